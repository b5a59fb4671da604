// Package instagram wraps the Meta Graph send API used for Instagram DMs.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client sends direct messages through the Graph API.
type Client interface {
	SendText(ctx context.Context, recipientID, text string) (*SendResponse, error)
}

type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

type graphClient struct {
	baseURL         string
	apiVersion      string
	pageAccessToken string
	client          *http.Client
}

func NewClient(baseURL, apiVersion, pageAccessToken string, timeout time.Duration) Client {
	return &graphClient{
		baseURL:         baseURL,
		apiVersion:      apiVersion,
		pageAccessToken: pageAccessToken,
		client:          &http.Client{Timeout: timeout},
	}
}

// SendText posts {recipient:{id},message:{text}} to the page's send endpoint,
// authenticating with the page access token as a query parameter.
func (c *graphClient) SendText(ctx context.Context, recipientID, text string) (*SendResponse, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("recipient ID is required")
	}

	payload := map[string]interface{}{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": text},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/me/messages?access_token=%s",
		c.baseURL, c.apiVersion, url.QueryEscape(c.pageAccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var result SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "unknown error"
		if result.Error != nil {
			msg = result.Error.Message
		}
		return &result, fmt.Errorf("send failed with status %d: %s", resp.StatusCode, msg)
	}

	return &result, nil
}
