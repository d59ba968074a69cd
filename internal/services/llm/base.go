package llm

import (
	"context"
	"fmt"
	"time"

	xhttp "TrendPull/pkg/http"
)

// httpBase centralizes the client, base URL and auth headers of model endpoints.
type httpBase struct {
	baseURL string
	headers map[string]string
	client  *xhttp.Client
}

func newHTTPBase(baseURL string, timeout time.Duration, headers map[string]string) *httpBase {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpBase{
		baseURL: baseURL,
		headers: headers,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// postJSON posts payload to path under baseURL and decodes the JSON reply into dest.
func (b *httpBase) postJSON(ctx context.Context, path string, payload, dest any) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("llm http client not initialized")
	}
	if err := b.client.PostJSON(ctx, b.baseURL+path, b.headers, payload, dest); err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// Stop marks an error that must not be retried.
type Stop struct{ Err error }

func (s Stop) Error() string { return s.Err.Error() }
func (s Stop) Unwrap() error { return s.Err }

// Retry runs fn up to attempts times, sleeping attempt*step between tries.
// A Stop error ends the loop and is returned unwrapped.
func Retry(ctx context.Context, attempts int, step time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if s, ok := err.(Stop); ok {
			return s.Err
		}
		if i == attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * step):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
