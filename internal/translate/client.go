// Package translate renders outbound replies in the applicant's
// language before delivery.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"magicbus-backend/internal/common/errors"
)

// Translator converts English text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
	Source string `json:"source"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Translate returns the text in targetLang. Callers treat failure as a
// degradation and fall back to the English original.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	jsonData, err := json.Marshal(translateRequest{
		Text:   text,
		Target: targetLang,
		Source: "en",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal translate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewTranslationFailedError(targetLang, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewTranslationFailedError(targetLang, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewTranslationFailedError(targetLang,
			fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed translateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.NewTranslationFailedError(targetLang, err)
	}
	return parsed.TranslatedText, nil
}
