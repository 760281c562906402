package resilience

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that retries transport errors and 5xx
// responses with exponential backoff, guarded by a Breaker. Requests with a
// body must set GetBody, which http.NewRequest does for in-memory readers.
type Transport struct {
	Base        http.RoundTripper
	Breaker     *Breaker
	Attempts    int
	BaseBackoff time.Duration
	Jitter      float64
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	ctx := req.Context()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if t.Breaker != nil && !t.Breaker.Allow(ctx) {
			if lastErr != nil {
				return nil, fmt.Errorf("%w (last error: %v)", ErrOpenCircuit, lastErr)
			}
			return nil, ErrOpenCircuit
		}
		attemptReq, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := base.RoundTrip(attemptReq)
		success := err == nil && resp.StatusCode < http.StatusInternalServerError
		if t.Breaker != nil {
			t.Breaker.Report(ctx, success)
		}
		if success || attempt == attempts {
			return resp, err
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		timer := time.NewTimer(Backoff(t.BaseBackoff, attempt, t.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("resilience: request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}
