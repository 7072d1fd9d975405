package provisioner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/halcyonlabs/meetscribe/internal/provisioner"
)

const maxRetries = 3

// HTTPClient talks to the bot vendor's REST API. Transient failures (network
// errors, 5xx) are retried with exponential backoff; 4xx responses are not.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) provisioner.Client {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

type createBotRequest struct {
	MeetingURL      string `json:"meeting_url"`
	TurnStreamURL   string `json:"turn_stream_url"`
	StatusNotifyURL string `json:"status_notify_url"`
}

type createBotResponse struct {
	BotID string `json:"bot_id"`
}

func (c *HTTPClient) CreateBot(ctx context.Context, meetingURL, turnStreamURL, notifyURL string) (string, error) {
	body, err := json.Marshal(createBotRequest{
		MeetingURL:      meetingURL,
		TurnStreamURL:   turnStreamURL,
		StatusNotifyURL: notifyURL,
	})
	if err != nil {
		return "", err
	}

	var botID string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/bots", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if err := checkStatus(resp); err != nil {
			return err
		}
		var decoded createBotResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid create-bot response: %w", err))
		}
		if decoded.BotID == "" {
			return backoff.Permanent(fmt.Errorf("create-bot response missing bot_id"))
		}
		botID = decoded.BotID
		return nil
	}
	if err := c.retry(ctx, operation); err != nil {
		return "", fmt.Errorf("create bot request failed: %w", err)
	}
	return botID, nil
}

func (c *HTTPClient) FetchTranscript(ctx context.Context, botID string) ([]byte, error) {
	var payload []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/bots/"+botID+"/transcript", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.authorize(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(provisioner.ErrBotNotFound)
		}
		if err := checkStatus(resp); err != nil {
			return err
		}
		payload, err = io.ReadAll(resp.Body)
		return err
	}
	if err := c.retry(ctx, operation); err != nil {
		if errors.Is(err, provisioner.ErrBotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch transcript request failed: %w", err)
	}
	return payload, nil
}

func (c *HTTPClient) retry(ctx context.Context, operation backoff.Operation) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(operation, policy)
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// checkStatus classifies a non-2xx response: 5xx is retryable, anything else
// is permanent.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := fmt.Errorf("provisioner returned status %d", resp.StatusCode)
	if resp.StatusCode >= 500 {
		return err
	}
	return backoff.Permanent(err)
}
