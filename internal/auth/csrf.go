package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/alfredjeanlab/trellis/internal/idgen"
)

// CSRF double-submit: the server hands out a random cookie that scripts can
// read, and state-changing requests must echo it in a header.
const (
	CSRFCookieName = "trellis.csrf_protection"
	CSRFHeaderName = "X-CSRF-Protection"
)

// NewCSRFToken returns a fresh random token.
func NewCSRFToken() (string, error) {
	return idgen.Token()
}

// CSRFCookie builds the cookie carrying token. It is deliberately readable
// from scripts (HttpOnly=false).
func CSRFCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   true,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	}
}

// ValidCSRF reports whether r carries a non-empty CSRF header equal to its
// CSRF cookie.
func ValidCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	header := r.Header.Get(CSRFHeaderName)
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) == 1
}

// SetCSRF attaches a matching cookie and header to an outgoing request.
func SetCSRF(req *http.Request, token string) {
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
	req.Header.Set(CSRFHeaderName, token)
}
