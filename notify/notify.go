// Package notify is the delivery extension point for matched videos.
package notify

import (
	"log"

	"youtube-keyword-notifier/youtube"
)

type Notifier interface {
	// NotifyMatch delivers one matched video. Keyword is empty when the
	// subscription notifies on every upload.
	NotifyMatch(video youtube.VideoInfo, keyword string) error
}

// LogNotifier is the default delivery: a log line per match.
type LogNotifier struct{}

func (LogNotifier) NotifyMatch(video youtube.VideoInfo, keyword string) error {
	if keyword != "" {
		log.Printf("MATCH %q in video %v (%v): https://youtube.com/watch?v=%v",
			keyword, video.Title, video.Channel.Title, video.Id)
		return nil
	}
	log.Printf("new video %v (%v): https://youtube.com/watch?v=%v",
		video.Title, video.Channel.Title, video.Id)
	return nil
}
