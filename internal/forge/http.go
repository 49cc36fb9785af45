// Package forge provides read access to the Gitea and GitHub REST APIs with
// Link-header pagination and bounded retry on rate-limit responses.
package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

const (
	retryAttempts = 3
	retryBaseWait = time.Second
)

// getJSON performs one authenticated GET, decodes the body into out and
// returns the rel="next" URL from the Link header, if any. 429 responses are
// retried with exponential backoff, bounded to retryAttempts tries.
func getJSON(ctx context.Context, client *http.Client, url, authScheme, token string, out any) (string, error) {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", authScheme+" "+token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("get %s: %w", url, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("get %s: %w", url, entities.ErrRateLimited)
			continue
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			_ = resp.Body.Close()
			return "", fmt.Errorf("get %s: status %d: %w", url, resp.StatusCode, entities.ErrAuth)
		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusConflict:
			// 409 is how Gitea reports an empty repository.
			_ = resp.Body.Close()
			return "", fmt.Errorf("get %s: status %d: %w", url, resp.StatusCode, entities.ErrNotFound)
		case resp.StatusCode != http.StatusOK:
			_ = resp.Body.Close()
			return "", fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", url, err)
		}
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return "", fmt.Errorf("decode %s: %w", url, err)
			}
		}
		return nextLink(resp.Header.Get("Link")), nil
	}
	return "", lastErr
}

// nextLink extracts the rel="next" URL from a Link response header. An empty
// result means the last page was reached.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		url := strings.TrimSpace(section[0])
		return strings.Trim(url, "<>")
	}
	return ""
}
