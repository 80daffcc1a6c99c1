package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bgclub-bot/internal/core/domain"
)

const messagingAPI = "https://api.line.me/v2/bot/message"

// Config holds Messaging API credentials.
type Config struct {
	ChannelSecret      string
	ChannelAccessToken string
}

// Client talks to the LINE Messaging API.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a messaging client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ChannelSecret exposes the webhook signing secret for signature checks.
func (c *Client) ChannelSecret() string {
	return c.config.ChannelSecret
}

// Reply answers a webhook event through its reply token. The API caps one
// reply at five message objects; overflow is cut, not split.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []domain.Message) error {
	if len(messages) > 5 {
		messages = messages[:5]
	}
	payload := map[string]interface{}{
		"replyToken": replyToken,
		"messages":   renderAll(messages),
	}
	return c.post(ctx, messagingAPI+"/reply", payload)
}

// Push sends unsolicited messages to a chat identifier.
func (c *Client) Push(ctx context.Context, uuid string, messages []domain.Message) error {
	if len(messages) > 5 {
		messages = messages[:5]
	}
	payload := map[string]interface{}{
		"to":       uuid,
		"messages": renderAll(messages),
	}
	return c.post(ctx, messagingAPI+"/push", payload)
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.ChannelAccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("LINE messaging error: %s", string(body))
	}
	return nil
}
