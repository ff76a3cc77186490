package deploy

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/cardledger/cardledger/internal"
)

const (
	defaultHealthCheckRetryMax = 5
	healthCheckRequestTimeout  = 10 * time.Second
)

// NewHealthCheckStep returns a Step that polls url with a retrying HTTP
// client until it responds with a 200, or the retry budget is exhausted.
func NewHealthCheckStep(url string, retryMax int) Step {
	if retryMax <= 0 {
		retryMax = defaultHealthCheckRetryMax
	}
	return Step{
		Name: "healthcheck",
		Run: func(ctx context.Context) error {
			client := NewRetryableHTTPClient(retryMax, healthCheckRequestTimeout)

			req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("failed to create health check request: %w", err)
			}

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("health check failed for %s: %w", url, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health check for %s returned status %d", url, resp.StatusCode)
			}

			return nil
		},
	}
}

func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryPolicy

	return retryableHTTPClient
}

// retryPolicy is a retryablehttp.CheckRetry function. It is used to determine
// whether a request should be retried or not.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	// do not retry on context.Canceled or context.DeadlineExceeded
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}
