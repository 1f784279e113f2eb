package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrUpstreamStatus is returned together with the response when an upstream answers 5xx.
var ErrUpstreamStatus = errors.New("upstream returned a server error")

// HTTPDoer is the subset of *http.Client used by the outbound clients.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BreakerClient wraps an instrumented http.Client with a circuit breaker.
// Requests are never retried; an open breaker fails fast.
type BreakerClient struct {
	client *http.Client
	cb     *gobreaker.CircuitBreaker[*http.Response]
}

func NewBreakerClient(name string, timeout time.Duration) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller abandoning its own request says nothing about the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			GetLogger().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Do sends the request through the breaker. For 5xx answers the response is
// returned together with ErrUpstreamStatus so callers can still read the body.
func (b *BreakerClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s unavailable: %w", b.cb.Name(), err)
	}
	return resp, err
}
