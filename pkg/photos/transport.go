package photos

import "net/http"

// AuthTransport wraps an http.RoundTripper and adds a bearer token and
// User-Agent header to every request. Token acquisition and refresh live
// outside this module; callers hand in whatever token source they have.
type AuthTransport struct {
	http.RoundTripper
	Token     func() string
	UserAgent string
}

// RoundTrip executes a single HTTP transaction with auth headers applied.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	if t.Token != nil {
		if token := t.Token(); token != "" {
			clonedReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if t.UserAgent != "" {
		clonedReq.Header.Set("User-Agent", t.UserAgent)
	}
	rt := t.RoundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip(clonedReq)
}
