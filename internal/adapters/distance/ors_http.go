package distance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"route-optimization-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Response body bytes kept in an httpStatusError.
const maxErrorBody = 4096

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Code, e.Body)
}

// RetryPolicy controls how ORS calls are retried. Only rate limiting (429),
// gateway-side 5xx responses and network errors are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// Backoff grows by this factor after every failed attempt.
	Multiplier float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 4, InitialBackoff: 200 * time.Millisecond, Multiplier: 2}
}

func (p RetryPolicy) attempts() int {
	return max(1, p.MaxAttempts)
}

func (p RetryPolicy) next(backoff time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return backoff
	}
	return time.Duration(float64(backoff) * p.Multiplier)
}

func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// postJSON sends payload to endpoint under the provider's rate limit and
// retry policy. A new request is built per attempt so the body can be replayed.
// The caller closes the returned body.
func (o *ORSMatrixProvider) postJSON(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	backoff := o.retry.InitialBackoff
	attempts := o.retry.attempts()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := o.send(ctx, endpoint, payload)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) || attempt >= attempts {
			return nil, err
		}

		log.Debug().
			Str("req_id", obs.RequestID(ctx)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(err).
			Msg("ors request failed, retrying")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff = o.retry.next(backoff)
	}
}

// send performs one POST and turns 4xx/5xx responses into httpStatusError.
func (o *ORSMatrixProvider) send(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}
