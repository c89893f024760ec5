package source

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client for GitHub requests. When token is
// non-empty every request carries it as a bearer token; otherwise requests
// are unauthenticated and subject to stricter rate limits.
func NewHTTPClient(token string, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if token == "" {
		return client
	}
	client.Transport = &tokenTransport{token: token, base: http.DefaultTransport}
	return client
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/vnd.github+json")
	}
	return t.base.RoundTrip(r)
}
