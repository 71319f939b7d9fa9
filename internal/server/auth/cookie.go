package auth

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Cookies writes and clears the session cookie. Issuing and clearing use
// the same HttpOnly, SameSite and Secure attributes; browsers keep a cookie
// whose clearing attributes differ from the ones it was set with.
type Cookies struct {
	secure bool
	maxAge time.Duration
	now    func() time.Time
}

// NewCookies builds the cookie helper. secure should be true only in
// production, where the service is reached over TLS.
func NewCookies(secure bool, maxAge time.Duration) *Cookies {
	return &Cookies{secure: secure, maxAge: maxAge, now: time.Now}
}

func (c *Cookies) base() *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Set attaches the session token to the response.
func (c *Cookies) Set(w http.ResponseWriter, token string) {
	cookie := c.base()
	cookie.Value = token
	cookie.MaxAge = int(c.maxAge / time.Second)
	cookie.Expires = c.now().Add(c.maxAge).UTC()
	http.SetCookie(w, cookie)
}

// Clear instructs the client to drop the session cookie.
func (c *Cookies) Clear(w http.ResponseWriter) {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, cookie)
}

// TokenFromRequest returns the session token carried by r, if any.
func TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(common.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
