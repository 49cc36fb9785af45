// Package zulip delivers messages to Zulip streams.
package zulip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

// Client sends messages through the Zulip REST API using bot credentials.
type Client struct {
	log    *zap.SugaredLogger
	http   *http.Client
	site   string
	email  string
	apiKey string
}

// New creates a Zulip client.
func New(log *zap.SugaredLogger, cfg *config.Config) *Client {
	return &Client{
		log:    log.Named("zulip"),
		http:   &http.Client{Timeout: cfg.HTTP.RequestTimeout},
		site:   strings.TrimRight(cfg.Zulip.Site, "/"),
		email:  cfg.Zulip.Email,
		apiKey: cfg.Zulip.APIKey,
	}
}

type sendResponse struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
}

// Send posts one message to a stream topic. A non-success API result is
// returned in DeliveryResult, not as an error: delivery failure is a
// per-message condition the caller logs and moves past.
func (c *Client) Send(ctx context.Context, stream, topic, content string) (entities.DeliveryResult, error) {
	form := url.Values{}
	form.Set("type", "stream")
	form.Set("to", stream)
	form.Set("topic", topic)
	form.Set("content", content)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.site+"/api/v1/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return entities.DeliveryResult{}, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return entities.DeliveryResult{}, fmt.Errorf("send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entities.DeliveryResult{}, fmt.Errorf("read response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return entities.DeliveryResult{}, fmt.Errorf("decode response: %w", err)
	}

	return entities.DeliveryResult{
		Success: decoded.Result == "success",
		Message: decoded.Msg,
	}, nil
}
