package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "test-model", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "what is BMI?", gjson.GetBytes(body, "messages.1.content").String())
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":" Body mass index. "}}]}`)
	}))
	t.Cleanup(srv.Close)

	reply, err := NewClient(srv.URL, "key", "test-model").Complete(context.Background(), "what is BMI?")
	require.NoError(t, err)
	assert.Equal(t, "Body mass index.", reply)
}

func TestComplete_EmptyMessage(t *testing.T) {
	_, err := NewClient("http://unused", "", "m").Complete(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestComplete_NotConfigured(t *testing.T) {
	_, err := NewClient("", "", "m").Complete(context.Background(), "hi")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestComplete_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, "", "m").Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestComplete_MissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, "", "m").Complete(context.Background(), "hi")
	require.Error(t, err)
}
