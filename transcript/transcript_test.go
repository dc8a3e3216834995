package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAPI(t *testing.T, response string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "VID123", r.URL.Query().Get("videoId"))
		assert.Equal(t, "secret", r.Header.Get("x-rapidapi-key"))
		_, _ = w.Write([]byte(response))
	}))
}

func TestMatchesFindsKeyword(t *testing.T) {
	server := newFakeAPI(t, `{"success": true, "transcript": [
		{"text": "welcome back everyone"},
		{"text": "today we watch the Launch together"}
	]}`)
	defer server.Close()

	service := NewServiceWithURL(server.URL, "secret")
	matches, err := service.Matches(context.Background(), "VID123", "launch")
	require.NoError(t, err)
	assert.True(t, matches)
}

func TestMatchesKeywordAbsent(t *testing.T) {
	server := newFakeAPI(t, `{"success": true, "transcript": [{"text": "nothing relevant"}]}`)
	defer server.Close()

	service := NewServiceWithURL(server.URL, "secret")
	matches, err := service.Matches(context.Background(), "VID123", "launch")
	require.NoError(t, err)
	assert.False(t, matches)
}

func TestMatchesNoTranscript(t *testing.T) {
	server := newFakeAPI(t, `{"success": false}`)
	defer server.Close()

	service := NewServiceWithURL(server.URL, "secret")
	_, err := service.Matches(context.Background(), "VID123", "launch")
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestMatchesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := NewServiceWithURL(server.URL, "secret")
	_, err := service.Matches(context.Background(), "VID123", "launch")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTranscript)
}
