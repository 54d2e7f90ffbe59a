package util

import (
	"net/http"
	"time"
)

const (
	apiTimeout   = 10 * time.Second
	checkTimeout = 5 * time.Second
)

// NewAPIClient returns the client used for the Steam, Roblox and Discord application endpoints.
func NewAPIClient() *http.Client {
	return &http.Client{
		Timeout: apiTimeout,
	}
}

// NewCheckClient returns a short-lived client for HEAD checks.
func NewCheckClient() *http.Client {
	return &http.Client{
		Timeout: checkTimeout,
	}
}

// NewHeaderClient returns a client that adds the given headers to every request.
func NewHeaderClient(headers map[string]string) *http.Client {
	return &http.Client{
		Timeout:   apiTimeout,
		Transport: &headerTripper{tripper: http.DefaultTransport, headers: headers},
	}
}

type headerTripper struct {
	tripper http.RoundTripper
	headers map[string]string
}

func (t *headerTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for key, value := range t.headers {
		if value == "" {
			continue
		}
		req.Header.Set(key, value)
	}
	return t.tripper.RoundTrip(req)
}
