package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeSendsHubForm(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"hub.mode":          r.PostFormValue("hub.mode"),
			"hub.topic":         r.PostFormValue("hub.topic"),
			"hub.callback":      r.PostFormValue("hub.callback"),
			"hub.verify":        r.PostFormValue("hub.verify"),
			"hub.lease_seconds": r.PostFormValue("hub.lease_seconds"),
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	err := client.Subscribe(context.Background(), "UCxxx", "https://example.org/youtube-webhook")
	require.NoError(t, err)
	assert.Equal(t, "subscribe", form["hub.mode"])
	assert.Equal(t, "https://www.youtube.com/xml/feeds/videos.xml?channel_id=UCxxx", form["hub.topic"])
	assert.Equal(t, "https://example.org/youtube-webhook", form["hub.callback"])
	assert.Equal(t, "sync", form["hub.verify"])
	assert.Equal(t, "432000", form["hub.lease_seconds"])
}

func TestUnsubscribeSendsHubForm(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"hub.mode":          r.PostFormValue("hub.mode"),
			"hub.topic":         r.PostFormValue("hub.topic"),
			"hub.lease_seconds": r.PostFormValue("hub.lease_seconds"),
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	err := client.Unsubscribe(context.Background(), "UCxxx", "https://example.org/youtube-webhook")
	require.NoError(t, err)
	assert.Equal(t, "unsubscribe", form["hub.mode"])
	assert.Equal(t, "https://www.youtube.com/xml/feeds/videos.xml?channel_id=UCxxx", form["hub.topic"])
	// Unsubscribes are not leased.
	assert.Equal(t, "", form["hub.lease_seconds"])
}

func TestSubscribeNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("hub is down"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	err := client.Subscribe(context.Background(), "UCxxx", "https://example.org/youtube-webhook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "hub is down")
}

func TestTargetKinds(t *testing.T) {
	assert.True(t, ChannelTarget("UCxxx").IsChannel())
	assert.False(t, HandleTarget("@creator").IsChannel())
}
