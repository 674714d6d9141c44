// Package ocr reads text out of document images via the OCR sidecar.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"magicbus-backend/internal/common/logger"
)

// TextExtractor pulls printed text from an image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

type ocrResponse struct {
	Text string `json:"text"`
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// ExtractText runs OCR over the image. It never fails the caller: when
// the sidecar is unreachable or errors, the returned string says so,
// and the downstream authenticity check scores the document on that
// basis (which bottoms out at a rejection, never an acceptance).
func (c *Client) ExtractText(ctx context.Context, image []byte) string {
	text, err := c.extract(ctx, image)
	if err != nil {
		c.logger.Warn("OCR extraction degraded", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Sprintf("OCR could not read the document: %v", err)
	}
	return text
}

func (c *Client) extract(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sidecar returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return parsed.Text, nil
}
