// Package whatsapp talks to the local WhatsApp HTTP bridge. The bridge
// front-ends the phone session and exposes unread-message polling,
// text sending, media download and read acknowledgement.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type unreadResponse struct {
	Data []bridgeMessage `json:"data"`
}

type bridgeMessage struct {
	SenderName string `json:"senderName"`
	ChatID     string `json:"chatId"`
	Type       string `json:"type"`
	Body       string `json:"body"`
	MediaKey   string `json:"mediaKey"`
	Timestamp  int64  `json:"timestamp"`
}

type mediaResponse struct {
	Data string `json:"data"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchUnread returns every message the bridge currently reports as
// unread. The bridge re-reports messages until MarkAllRead is called,
// so callers must deduplicate.
func (c *Client) FetchUnread(ctx context.Context) ([]models.InboundEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/getAllUnreadMessages", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportUnavailableError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewTransportUnavailableError(
			fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(body)))
	}

	var unread unreadResponse
	if err := json.Unmarshal(body, &unread); err != nil {
		return nil, fmt.Errorf("failed to unmarshal unread messages: %w", err)
	}

	events := make([]models.InboundEvent, 0, len(unread.Data))
	for _, m := range unread.Data {
		events = append(events, models.InboundEvent{
			SenderName: m.SenderName,
			SenderID:   m.ChatID,
			Kind:       models.EventKind(m.Type),
			Body:       m.Body,
			MediaRef:   m.MediaKey,
			Timestamp:  time.Unix(m.Timestamp, 0).UTC(),
		})
	}
	return events, nil
}

// SendText delivers one outbound reply to a chat.
func (c *Client) SendText(ctx context.Context, reply models.Reply) error {
	payload := map[string]string{
		"chatId": reply.To,
		"text":   reply.Message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendText", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewReplySendFailedError(reply.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewReplySendFailedError(reply.To,
			fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}

// FetchMedia downloads the raw bytes of an image message. The bridge
// serves media as base64 keyed by the message's media reference.
func (c *Client) FetchMedia(ctx context.Context, mediaRef string) ([]byte, error) {
	u := fmt.Sprintf("%s/downloadMedia?mediaKey=%s", c.baseURL, url.QueryEscape(mediaRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewMediaFetchFailedError(mediaRef, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewMediaFetchFailedError(mediaRef, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewMediaFetchFailedError(mediaRef,
			fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(body)))
	}

	var media mediaResponse
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, errors.NewMediaFetchFailedError(mediaRef, err)
	}

	raw, err := base64.StdEncoding.DecodeString(media.Data)
	if err != nil {
		return nil, errors.NewMediaFetchFailedError(mediaRef, err)
	}
	return raw, nil
}

// MarkAllRead acknowledges every unread message so the bridge stops
// re-reporting them. Called once per batch after all replies are sent.
func (c *Client) MarkAllRead(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/markAllRead", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewTransportUnavailableError(
			fmt.Errorf("bridge returned status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}
