package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"magicbus-backend/internal/common/logger"
)

func TestExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		w.Write([]byte(`{"text": "GOVERNMENT OF INDIA\nAadhaar 1234 5678 9012"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, logger.NewNoOpLogger())
	text := client.ExtractText(context.Background(), []byte{0x01})

	assert.Contains(t, text, "Aadhaar 1234 5678 9012")
}

func TestExtractText_SidecarDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second, logger.NewNoOpLogger())
	text := client.ExtractText(context.Background(), []byte{0x01})

	assert.Contains(t, text, "OCR could not read the document")
}

func TestExtractText_SidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, logger.NewNoOpLogger())
	text := client.ExtractText(context.Background(), []byte{0x01})

	assert.Contains(t, text, "OCR could not read the document")
}
