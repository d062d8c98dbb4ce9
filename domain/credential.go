package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// Credential is the authentication credential attached to upstream calls.
// Exactly one of bearer or session token is forwarded; bearer wins when both
// are present on the inbound request. The zero value is anonymous.
type Credential struct {
	bearer  string
	session string
}

// BearerCredential builds a credential from an Authorization header value.
// The value must already carry the "Bearer " prefix.
func BearerCredential(header string) Credential {
	return Credential{bearer: header}
}

// SessionCredential builds a credential from an upstream session token.
func SessionCredential(token string) Credential {
	return Credential{session: token}
}

// ResolveCredential selects the credential for an inbound browser request:
// Authorization bearer header first, session cookie second, anonymous last.
func ResolveCredential(r *http.Request) Credential {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return BearerCredential(auth)
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return SessionCredential(cookie.Value)
	}
	return Credential{}
}

// IsAnonymous reports whether no credential was resolved.
func (c Credential) IsAnonymous() bool {
	return c.bearer == "" && c.session == ""
}

// Apply sets the outbound auth header. At most one header is ever written.
func (c Credential) Apply(h http.Header) {
	switch {
	case c.bearer != "":
		h.Set("Authorization", c.bearer)
	case c.session != "":
		h.Set("Cookie", fmt.Sprintf("%s=%s", SessionCookieName, c.session))
	}
}
