package rules

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Source provides the raw rule-set document from wherever it lives.
type Source interface {
	FetchDocument(ctx context.Context) (string, error)
	Name() string
}

// HTTPSource fetches the rule-set document from a fixed URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a fetcher with bounded connect and read timeouts,
// so a dead rules host can never stall a refresh for long.
func NewHTTPSource(url string) *HTTPSource {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	return &HTTPSource{
		URL: url,
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext:           dialer.DialContext,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
	}
}

func (s *HTTPSource) Name() string { return "http" }

// FetchDocument performs the GET and returns the raw document body.
// Any non-200 status is a fetch failure.
func (s *HTTPSource) FetchDocument(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create rules request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch rules: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read rules body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch rules: status %d, body: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}
