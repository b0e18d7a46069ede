// File: internal/network/preflight.go
package network

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Preflight issues a GET against the portal base URL before the browser
// launches. A dead or misdeployed target should fail the run in seconds,
// not after a full browser timeout.
func Preflight(ctx context.Context, client *http.Client, baseURL string, logger *zap.Logger) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("portal unreachable at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	// Auth redirects and the signed-out landing page are both fine; only
	// server-side failure classes abort the run.
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("portal returned %s for %s", resp.Status, baseURL)
	}

	logger.Info("Preflight check passed.",
		zap.String("base_url", baseURL),
		zap.Int("status", resp.StatusCode))
	return nil
}
