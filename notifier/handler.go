package notifier

import (
	"encoding/xml"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"time"

	"youtube-keyword-notifier/youtube"
)

// HandleVerification answers the hub's GET handshake by echoing the
// challenge verbatim. When the query also carries the topic and granted
// lease, the lease expiry is recorded for the renewal sweep; recording
// failures never affect the handshake.
func (s *Service) HandleVerification(writer http.ResponseWriter, request *http.Request) {
	challenge := request.FormValue(youtube.HubChallenge)
	if len(challenge) == 0 {
		writer.WriteHeader(http.StatusBadRequest)
		return
	}
	s.recordLease(request.FormValue(youtube.HubTopic), request.FormValue(youtube.HubLeaseSeconds))
	writer.Header().Set("Content-Type", "text/plain")
	_, err := writer.Write([]byte(challenge))
	if err != nil {
		log.Printf("error during write challenge: %v", err.Error())
	}
}

func (s *Service) recordLease(topic string, leaseSeconds string) {
	submatch := youtube.HubTopicPattern.FindStringSubmatch(topic)
	if submatch == nil {
		return
	}
	channelId := submatch[1]
	lease, err := strconv.Atoi(leaseSeconds)
	if err != nil {
		log.Printf("unable to parse lease seconds: %v, source: %v", err.Error(), leaseSeconds)
		return
	}
	expiresAt := time.Now().Add(time.Duration(lease) * time.Second)
	err = s.subs.RecordLease(channelId, expiresAt)
	if err != nil {
		log.Printf("unable to save lease expiry: %v, channelId: %v", err.Error(), channelId)
	}
}

// HandleFeed receives the hub's POST notifications. Only an unparseable body
// is an error; anything else responds 200 so the hub does not start its
// retry backoff.
func (s *Service) HandleFeed(writer http.ResponseWriter, request *http.Request) {
	var feed youtube.Feed
	body, err := ioutil.ReadAll(request.Body)
	if err != nil {
		log.Printf("unable to read feed body: %v", err.Error())
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	err = xml.Unmarshal(body, &feed)
	if err != nil {
		log.Printf("unable to decode incoming feed: %v; source: %v", err.Error(), string(body))
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	videoId := feed.Entry.VideoId
	channelId := feed.Entry.ChannelId
	if len(videoId) == 0 || len(channelId) == 0 {
		log.Printf("videoId or channelId is missing, payload: %v", string(body))
		return
	}
	publishedAt, err := time.Parse(time.RFC3339, feed.Entry.Published)
	if err != nil {
		log.Printf("unable to parse published time %v of video %v", feed.Entry.Published, videoId)
	}
	s.dispatchVideo(youtube.VideoInfo{
		Id: videoId,
		Channel: youtube.ChannelInfo{
			Id:    channelId,
			Title: feed.Entry.Author.Name,
		},
		Title:       feed.Entry.Title,
		PublishedAt: publishedAt,
	})
}
