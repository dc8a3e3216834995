package notifier

import (
	"context"
	"log"
	"time"

	"youtube-keyword-notifier/youtube"
)

const (
	// Window stays >= interval so consecutive cycles overlap instead of
	// leaving gaps; the seen store absorbs the resulting re-deliveries.
	pollInterval = time.Second * 20
	pollWindow   = time.Second * 20
)

type VideoSearcher interface {
	SearchRecent(ctx context.Context, keyword string, window time.Duration) ([]youtube.VideoInfo, error)
}

// PollKeyword is the fallback path when no channel subscription exists: it
// searches for fresh videos matching the keyword until ctx is cancelled.
// Cancellation is observed at the top of each cycle, so stopping can take up
// to one interval. Fixed-rate sleep; drift under slow upstream responses is
// accepted.
func (s *Service) PollKeyword(ctx context.Context, searcher VideoSearcher, keyword string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.pollCycle(ctx, searcher, keyword)
		time.Sleep(pollInterval)
	}
}

func (s *Service) pollCycle(ctx context.Context, searcher VideoSearcher, keyword string) {
	videos, err := searcher.SearchRecent(ctx, keyword, pollWindow)
	if err != nil {
		log.Printf("error during search for recent videos: %v", err.Error())
		return
	}
	for _, video := range videos {
		s.handlePolledVideo(video, keyword)
	}
}

// handlePolledVideo marks the video seen before notifying: a crash in
// between loses at most one notification, never repeats one.
func (s *Service) handlePolledVideo(video youtube.VideoInfo, keyword string) {
	lock := s.mb.Video(video.Id)
	err := lock.Lock()
	if err != nil {
		log.Println(err.Error())
		return
	}
	defer func() {
		_, err := lock.Unlock()
		if err != nil {
			log.Println(err.Error())
		}
	}()
	if s.seen.Contains(video.Id) {
		return
	}
	s.seen.Add(video.Id)
	err = s.notifier.NotifyMatch(video, keyword)
	if err != nil {
		log.Println(err.Error())
	}
}
