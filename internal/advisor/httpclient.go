package advisor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPAdvisor posts the prompt to a configured endpoint and returns the
// response body as the advisor's free text. The endpoint owns the actual
// LLM inference; this client only carries the contract.
type HTTPAdvisor struct {
	url    string
	client *http.Client
}

// NewHTTPAdvisor creates an HTTPAdvisor for url with the given call timeout.
func NewHTTPAdvisor(url string, timeout time.Duration) *HTTPAdvisor {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &HTTPAdvisor{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Advise implements Advisor.
func (a *HTTPAdvisor) Advise(ctx context.Context, prompt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(prompt))
	if err != nil {
		return "", fmt.Errorf("advisor: build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor: call %s: %w", a.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisor: %s returned %s", a.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("advisor: read response: %w", err)
	}
	return string(body), nil
}
