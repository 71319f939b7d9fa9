package common

import "time"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// DefaultSessionValidity is the lifetime of an issued session token and of
// the cookie that carries it.
const DefaultSessionValidity = 7 * 24 * time.Hour
