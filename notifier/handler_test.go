package notifier

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"youtube-keyword-notifier/store"
)

const feedBody = `<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>YouTube video feed</title>
  <updated>2024-05-01T10:01:00+00:00</updated>
  <entry>
    <id>yt:video:VID123</id>
    <yt:videoId>VID123</yt:videoId>
    <yt:channelId>UCxxx</yt:channelId>
    <title>Launch day</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=VID123"/>
    <author>
      <name>Creator</name>
      <uri>https://www.youtube.com/channel/UCxxx</uri>
    </author>
    <published>2024-05-01T10:00:00+00:00</published>
    <updated>2024-05-01T10:01:00+00:00</updated>
  </entry>
</feed>`

func TestHandleVerificationEchoesChallenge(t *testing.T) {
	f := newFixture(t)
	request := httptest.NewRequest(http.MethodGet, "/youtube-webhook?hub.challenge=abc123", nil)
	recorder := httptest.NewRecorder()

	f.service.HandleVerification(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "abc123", recorder.Body.String())
	assert.Equal(t, "text/plain", recorder.Header().Get("Content-Type"))
}

func TestHandleVerificationMissingChallenge(t *testing.T) {
	f := newFixture(t)
	request := httptest.NewRequest(http.MethodGet, "/youtube-webhook", nil)
	recorder := httptest.NewRecorder()

	f.service.HandleVerification(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleVerificationRecordsLease(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.subs.Put("UCxxx", store.Subscription{CallbackURL: testCallback}))

	values := url.Values{}
	values.Set("hub.challenge", "abc123")
	values.Set("hub.topic", "https://www.youtube.com/xml/feeds/videos.xml?channel_id=UCxxx")
	values.Set("hub.lease_seconds", "432000")
	request := httptest.NewRequest(http.MethodGet, "/youtube-webhook?"+values.Encode(), nil)
	recorder := httptest.NewRecorder()

	f.service.HandleVerification(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "abc123", recorder.Body.String())
	sub, err := f.subs.Lookup("UCxxx")
	require.NoError(t, err)
	require.NotNil(t, sub.LeaseExpiresAt)
	expected := time.Now().Add(432000 * time.Second)
	assert.WithinDuration(t, expected, *sub.LeaseExpiresAt, time.Minute)
}

func TestHandleVerificationLeaseForUnknownChannelStillAnswers(t *testing.T) {
	f := newFixture(t)
	values := url.Values{}
	values.Set("hub.challenge", "abc123")
	values.Set("hub.topic", "https://www.youtube.com/xml/feeds/videos.xml?channel_id=UCghost")
	values.Set("hub.lease_seconds", "432000")
	request := httptest.NewRequest(http.MethodGet, "/youtube-webhook?"+values.Encode(), nil)
	recorder := httptest.NewRecorder()

	f.service.HandleVerification(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "abc123", recorder.Body.String())
}

func TestHandleFeedDispatchesMatch(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.subs.Put("UCxxx", store.Subscription{Keyword: "launch", CallbackURL: testCallback}))
	f.matcher.result = true

	request := httptest.NewRequest(http.MethodPost, "/youtube-webhook", strings.NewReader(feedBody))
	recorder := httptest.NewRecorder()
	f.service.HandleFeed(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, f.matcher.calls, 1)
	assert.Equal(t, matchCall{videoId: "VID123", keyword: "launch"}, f.matcher.calls[0])
	require.Len(t, f.notifier.notified, 1)
	notified := f.notifier.notified[0]
	assert.Equal(t, "VID123", notified.video.Id)
	assert.Equal(t, "Launch day", notified.video.Title)
	assert.Equal(t, "Creator", notified.video.Channel.Title)
}

func TestHandleFeedMalformedBody(t *testing.T) {
	f := newFixture(t)
	request := httptest.NewRequest(http.MethodPost, "/youtube-webhook", strings.NewReader("<feed><entry>"))
	recorder := httptest.NewRecorder()

	f.service.HandleFeed(recorder, request)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Empty(t, f.matcher.calls)
}

func TestHandleFeedMissingVideoId(t *testing.T) {
	f := newFixture(t)
	body := `<feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`
	request := httptest.NewRequest(http.MethodPost, "/youtube-webhook", strings.NewReader(body))
	recorder := httptest.NewRecorder()

	f.service.HandleFeed(recorder, request)

	// Degrades to no-op; the hub must not see an error here.
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, f.matcher.calls)
	assert.Empty(t, f.notifier.notified)
}

func TestHandleFeedUnknownChannel(t *testing.T) {
	f := newFixture(t)
	request := httptest.NewRequest(http.MethodPost, "/youtube-webhook", strings.NewReader(feedBody))
	recorder := httptest.NewRecorder()

	f.service.HandleFeed(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, f.matcher.calls)
	assert.Empty(t, f.notifier.notified)
}
