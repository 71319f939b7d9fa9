package config

import (
	"fmt"
	"net"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment overlay. Unset or empty variables leave the
// corresponding Config field untouched.
type EnvConfig struct {
	Port          *string `env:"PORT"`
	HTTPAddr      *string `env:"HTTP_ADDR"`
	DatabaseDSN   *string `env:"DATABASE_DSN"`
	SecretKey     *string `env:"JWT_SECRET"`
	NodeEnv       *string `env:"NODE_ENV"`
	AppEnv        *string `env:"APP_ENV"`
	RedisHost     *string `env:"REDIS_HOST"`
	RedisPort     string  `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword *string `env:"REDIS_PASSWORD"`
	RedisDB       *int    `env:"REDIS_DB"`
	BcryptCost    *int    `env:"BCRYPT_COST"`
}

// parseEnv overlays settings from the given environment onto config.
// A malformed value is an error.
func parseEnv(config *Config, environ map[string]string) error {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if ec.Port != nil {
		config.EndpointAddrHTTP = ":" + *ec.Port
	}
	setString(&config.EndpointAddrHTTP, ec.HTTPAddr)
	setString(&config.DatabaseDSN, ec.DatabaseDSN)
	setString(&config.SecretKey, ec.SecretKey)
	setString(&config.Environment, ec.NodeEnv)
	setString(&config.Environment, ec.AppEnv)
	setString(&config.RedisPassword, ec.RedisPassword)

	if ec.RedisHost != nil {
		config.RedisAddr = net.JoinHostPort(*ec.RedisHost, ec.RedisPort)
	}
	if ec.RedisDB != nil {
		config.RedisDB = *ec.RedisDB
	}
	if ec.BcryptCost != nil {
		config.BcryptCost = *ec.BcryptCost
	}
	return nil
}
