package whatsapp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/models"
)

func TestFetchUnread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getAllUnreadMessages", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"data": [
			{"senderName": "Asha", "chatId": "919876543210@c.us", "type": "chat", "body": "hello", "timestamp": 1756339200},
			{"senderName": "Ravi", "chatId": "919812345678@c.us", "type": "image", "mediaKey": "media-42", "timestamp": 1756339260}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	events, err := client.FetchUnread(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Asha", events[0].SenderName)
	assert.Equal(t, "919876543210@c.us", events[0].SenderID)
	assert.Equal(t, models.EventKindChat, events[0].Kind)
	assert.Equal(t, "hello", events[0].Body)
	assert.Equal(t, models.EventKindImage, events[1].Kind)
	assert.Equal(t, "media-42", events[1].MediaRef)
}

func TestFetchUnread_BridgeDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.FetchUnread(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportUnavailable, errors.CodeOf(err))
}

func TestFetchUnread_BridgeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.FetchUnread(context.Background())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTransportUnavailable, errors.CodeOf(err))
}

func TestSendText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendText", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.SendText(context.Background(), models.Reply{
		To:      "919876543210@c.us",
		Name:    "Asha",
		Message: "Hi Asha,\nWelcome aboard!",
	})

	require.NoError(t, err)
	assert.Equal(t, "919876543210@c.us", got["chatId"])
	assert.Equal(t, "Hi Asha,\nWelcome aboard!", got["text"])
}

func TestSendText_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.SendText(context.Background(), models.Reply{To: "x@c.us", Message: "hi"})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReplySendFailed, errors.CodeOf(err))
}

func TestFetchMedia(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/downloadMedia", r.URL.Path)
		assert.Equal(t, "media-42", r.URL.Query().Get("mediaKey"))
		json.NewEncoder(w).Encode(map[string]string{"data": base64.StdEncoding.EncodeToString(raw)})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	got, err := client.FetchMedia(context.Background(), "media-42")

	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestFetchMedia_BadBase64(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "not base64!!"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.FetchMedia(context.Background(), "media-42")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMediaFetchFailed, errors.CodeOf(err))
}

func TestMarkAllRead(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markAllRead", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	require.NoError(t, client.MarkAllRead(context.Background()))
	assert.True(t, called)
}
