package distance

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ORSMatrixProvider implements DistanceMatrixProvider using the
// OpenRouteService matrix API.
//
// One GetDistanceMatrix call issues a single POST for the full n×n matrix.
// Requests are throttled by a shared token bucket so concurrent optimizations
// stay inside the account's quota, and transient failures are retried with
// exponential backoff. The provider is safe for concurrent use.
type ORSMatrixProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	limiter *rate.Limiter
	retry   RetryPolicy
}

// ORSOption customizes an ORSMatrixProvider.
type ORSOption func(*ORSMatrixProvider)

// WithORSBaseURL points the provider at a different ORS deployment.
func WithORSBaseURL(u string) ORSOption {
	return func(o *ORSMatrixProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithORSRateLimit caps outgoing requests per second (burst 1). Zero disables throttling.
func WithORSRateLimit(perSecond float64) ORSOption {
	return func(o *ORSMatrixProvider) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithORSRetry replaces the default retry policy.
func WithORSRetry(p RetryPolicy) ORSOption {
	return func(o *ORSMatrixProvider) { o.retry = p }
}

// WithORSHTTPClient replaces the HTTP client (tests, custom transports).
func WithORSHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSMatrixProvider) { o.session = c }
}

func NewORSMatrixProvider(apiKey string, opts ...ORSOption) (*ORSMatrixProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSMatrixProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}
