package limiter

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/bryanwahyu/automaton-health/internal/domain/ai"
)

// Client throttles calls to the wrapped completion client. The vendor doesn't
// document its limit, so the rate comes from config.
type Client struct {
	next    ai.Client
	limiter *rate.Limiter
}

// Wrap returns next unchanged when rps <= 0.
func Wrap(next ai.Client, rps float64, burst int) ai.Client {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (c *Client) Generate(ctx context.Context, parts []ai.Part) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for ai rate limit: %w", err)
	}
	return c.next.Generate(ctx, parts)
}
