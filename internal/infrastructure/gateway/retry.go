package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/config"
)

// RetryClient retries transient gateway failures with exponential backoff.
// Verify is read-only and Initialize reuses the same reference, so both are
// safe to repeat.
type RetryClient struct {
	inner      application.GatewayClient
	baseDelay  time.Duration
	maxRetries int
	jitter     time.Duration
}

func NewRetryClient(inner application.GatewayClient, cfg config.RetryConfig) *RetryClient {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
		jitter:     cfg.BaseDelay,
	}
}

func (r *RetryClient) Initialize(ctx context.Context, req application.InitializeRequest) (*application.InitializeResponse, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.InitializeResponse, error) {
			return r.inner.Initialize(ctx, req)
		},
	)
}

func (r *RetryClient) Verify(ctx context.Context, reference string) (*application.VerifyResponse, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.VerifyResponse, error) {
			return r.inner.Verify(ctx, reference)
		},
	)
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// isRetryable: 5xx and 429 answers, and transport errors. The caller's own
// deadline is final.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.jitter <= 0 {
		return base
	}
	return base + time.Duration(rand.Int63n(int64(r.jitter)))
}
