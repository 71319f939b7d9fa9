package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Client is the auth API contract consumed by the CLI.
type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	ListAddresses(ctx context.Context) ([]models.Address, error)
	AddAddress(ctx context.Context, a models.Address) ([]models.Address, error)
	DeleteAddress(ctx context.Context, id string) ([]models.Address, error)
	LoggedIn() bool
}

type envelope struct {
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  []models.FieldError `json:"errors"`
}

type userData struct {
	User *models.User `json:"user"`
}

type addressesData struct {
	Addresses []models.Address `json:"addresses"`
}

// HTTPClient talks to the auth server over HTTP, carrying the session
// cookie between calls.
type HTTPClient struct {
	base *url.URL
	http *http.Client
}

// NewHTTPClient returns a client for the server at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		base: u,
		http: &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// LoggedIn reports whether a session cookie is currently held.
func (c *HTTPClient) LoggedIn() bool {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == common.SessionCookieName && ck.Value != "" {
			return true
		}
	}
	return false
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, env)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func newAPIError(status int, env envelope) *APIError {
	e := &APIError{Status: status, Message: env.Message, Fields: env.Errors}
	switch status {
	case http.StatusBadRequest:
		e.kind = ErrValidation
	case http.StatusUnauthorized:
		e.kind = ErrUnauthorized
	case http.StatusNotFound:
		e.kind = ErrNotFound
	case http.StatusConflict:
		e.kind = ErrConflict
	case http.StatusServiceUnavailable:
		e.kind = ErrUnavailable
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	var out userData
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", r, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login authenticates with either a username or an email address.
func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	body := map[string]string{"password": password}
	if strings.Contains(identifier, "@") {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var out userData
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var out userData
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *HTTPClient) ListAddresses(ctx context.Context) ([]models.Address, error) {
	var out addressesData
	if err := c.do(ctx, http.MethodGet, "/api/auth/me/addresses", nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *HTTPClient) AddAddress(ctx context.Context, a models.Address) ([]models.Address, error) {
	a.ID = ""
	var out addressesData
	if err := c.do(ctx, http.MethodPost, "/api/auth/me/addresses", a, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *HTTPClient) DeleteAddress(ctx context.Context, id string) ([]models.Address, error) {
	var out addressesData
	path := "/api/auth/me/addresses/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}
