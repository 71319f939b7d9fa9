// Package client is the HTTP transport for the auth API used by the CLI.
//
// HTTPClient keeps the session cookie in a cookie jar, so after Login or
// Register the protected endpoints are called as the logged-in user until
// Logout. Non-2xx responses are returned as *APIError, which matches the
// sentinels ErrUnauthorized, ErrConflict, ErrNotFound and ErrValidation
// via errors.Is. Transport failures wrap ErrUnavailable.
package client
