package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"heronnest/internal/config"
)

type PushMessage struct {
	To    string         `json:"to"`
	Sound string         `json:"sound"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

type Pusher interface {
	Send(ctx context.Context, msg PushMessage) error
}

// ExpoClient delivers push messages through the Expo push service.
type ExpoClient struct {
	endpoint    string
	accessToken string
	client      *http.Client
}

func NewExpoClient(cfg config.Push) *ExpoClient {
	return &ExpoClient{
		endpoint:    cfg.Endpoint,
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type expoResponse struct {
	Data struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *ExpoClient) Send(ctx context.Context, msg PushMessage) error {
	if msg.Sound == "" {
		msg.Sound = "default"
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if e.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.accessToken)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var result expoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to decode push response: %w", err)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("push rejected: %s", result.Errors[0].Message)
	}
	if result.Data.Status == "error" {
		return fmt.Errorf("push rejected: %s", result.Data.Message)
	}
	return nil
}
