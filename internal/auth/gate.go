package auth

import "strings"

// LoginPath is where unauthenticated page navigations are sent.
const LoginPath = "/auth/login"

// Decision is the gate's verdict for one request.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Gate decides per request whether a valid session is required and present.
// It holds no mutable state: every call re-verifies the presented token.
type Gate struct {
	tokens *TokenService
	// allowPrefixes bypass the gate entirely (auth pages, API routes).
	allowPrefixes []string
}

// NewGate builds a gate around the given token verifier. When no prefixes
// are supplied the defaults match the application's public surface.
func NewGate(tokens *TokenService, allowPrefixes ...string) *Gate {
	if len(allowPrefixes) == 0 {
		allowPrefixes = []string{"/auth", "/api"}
	}
	return &Gate{tokens: tokens, allowPrefixes: allowPrefixes}
}

// Decide is a pure function of (path, token). Allow-listed paths pass with
// no token required; every other path needs a token that verifies, and
// failures redirect to the login entry point.
func (g *Gate) Decide(path, token string) Decision {
	for _, prefix := range g.allowPrefixes {
		if strings.HasPrefix(path, prefix) {
			return Decision{Allow: true}
		}
	}
	if token == "" {
		return Decision{Allow: false, RedirectTo: LoginPath}
	}
	if _, err := g.tokens.Verify(token); err != nil {
		return Decision{Allow: false, RedirectTo: LoginPath}
	}
	return Decision{Allow: true}
}
