package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
)

// Cookies issues and reads HMAC-signed token cookies. A signed value is
// "<value>.<base64url(HMAC-SHA256(name=value))>", so a value moved to another
// cookie name no longer verifies.
type Cookies struct {
	secret     []byte
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCookies(secret string, secure bool, accessTTL, refreshTTL time.Duration) *Cookies {
	return &Cookies{secret: []byte(secret), secure: secure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (c *Cookies) mac(name, value string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(name + "=" + value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (c *Cookies) sign(name, value string) string {
	return value + "." + c.mac(name, value)
}

// unsign returns the value of a signed cookie, or false when the signature
// does not match.
func (c *Cookies) unsign(name, signed string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(c.mac(name, value))) {
		return "", false
	}
	return value, true
}

// Read returns the verified value of cookie name. Missing and tampered
// cookies both read as "".
func (c *Cookies) Read(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	v, ok := c.unsign(name, ck.Value)
	if !ok {
		return ""
	}
	return v
}

func (c *Cookies) set(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    c.sign(name, value),
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookies) SetAccess(w http.ResponseWriter, token string) {
	c.set(w, common.AccessTokenCookie, token, c.accessTTL)
}

func (c *Cookies) SetRefresh(w http.ResponseWriter, token string) {
	c.set(w, common.RefreshTokenCookie, token, c.refreshTTL)
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{common.AccessTokenCookie, common.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
