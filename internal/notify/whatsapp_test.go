package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsMessage(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer gw-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	g := NewWhatsAppGateway(srv.URL, "gw-token")
	err := g.Send(context.Background(), "+905551112233", "Odeme hatirlatmasi", "ref-1")
	require.NoError(t, err)

	assert.Equal(t, "+905551112233", got.To)
	assert.Equal(t, "Odeme hatirlatmasi", got.Content)
	assert.Equal(t, "ref-1", got.AttachmentRef)
}

func TestSendRejectedByGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewWhatsAppGateway(srv.URL, "gw-token")
	err := g.Send(context.Background(), "+905551112233", "hello", "")
	assert.Error(t, err)
}

func TestSendGatewayUnreachable(t *testing.T) {
	g := NewWhatsAppGateway("http://127.0.0.1:1", "gw-token")
	err := g.Send(context.Background(), "+905551112233", "hello", "")
	assert.Error(t, err)
}
