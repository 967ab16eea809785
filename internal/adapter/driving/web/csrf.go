package web

import (
	"crypto/rand"
	"crypto/subtle"
	"net/http"
)

// The same name is used for the cookie and the hidden form field.
const csrfName = "csrf_token"

// csrfToken returns the token forms must echo back, issuing a cookie on the
// first visit.
func csrfToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(csrfName); err == nil && c.Value != "" {
		return c.Value
	}

	token := rand.Text()
	http.SetCookie(w, &http.Cookie{
		Name:     csrfName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
	return token
}

// validateCSRF reports whether the submitted form token matches the cookie.
func validateCSRF(r *http.Request) bool {
	c, err := r.Cookie(csrfName)
	if err != nil || c.Value == "" {
		return false
	}
	submitted := r.PostFormValue(csrfName)
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(c.Value)) == 1
}
