package browser

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Cookie is a browser cookie as exchanged with a Driver. A zero Expires
// means a session cookie.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"httpOnly,omitempty"`
}

// ParseCookie parses a Set-Cookie style string such as
// "name=value; Path=/; Domain=example.com; Secure; HttpOnly".
//
// Attribute names are case-insensitive and unknown attributes are ignored.
// A "Name=" attribute overrides the leading name. Expires accepts the HTTP
// date formats understood by net/http.
func ParseCookie(raw string) (Cookie, error) {
	parts := strings.Split(raw, ";")

	var c Cookie
	if first := strings.TrimSpace(parts[0]); first != "" {
		name, value, _ := strings.Cut(first, "=")
		c.Name = strings.TrimSpace(name)
		c.Value = strings.TrimSpace(value)
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, "=")
		val = strings.TrimSpace(val)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			c.Name = val
		case "domain":
			c.Domain = val
		case "path":
			c.Path = val
		case "expires":
			t, err := http.ParseTime(val)
			if err != nil {
				return Cookie{}, fmt.Errorf("invalid cookie expiry %q: %w", val, err)
			}
			c.Expires = t
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		}
	}

	if c.Name == "" {
		return Cookie{}, fmt.Errorf("cookie %q has no name", raw)
	}
	return c, nil
}
