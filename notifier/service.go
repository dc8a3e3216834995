package notifier

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"

	"youtube-keyword-notifier/hub"
	"youtube-keyword-notifier/mutex"
	"youtube-keyword-notifier/notify"
	"youtube-keyword-notifier/store"
	"youtube-keyword-notifier/youtube"
)

const matchTimeout = time.Second * 10

type ChannelResolver interface {
	Resolve(ctx context.Context, handle string) (youtube.ChannelInfo, error)
}

type HubClient interface {
	Subscribe(ctx context.Context, channelId string, callback string) error
	Unsubscribe(ctx context.Context, channelId string, callback string) error
}

type KeywordMatcher interface {
	Matches(ctx context.Context, videoId string, keyword string) (bool, error)
}

type Service struct {
	resolver ChannelResolver
	hub      HubClient
	subs     store.Subscriptions
	seen     store.SeenVideos
	matcher  KeywordMatcher
	mb       mutex.Builder
	notifier notify.Notifier
	callback string
}

func NewService(
	resolver ChannelResolver,
	hubClient HubClient,
	subs store.Subscriptions,
	seen store.SeenVideos,
	matcher KeywordMatcher,
	mb mutex.Builder,
	notifier notify.Notifier,
	callback string,
) *Service {
	return &Service{
		resolver: resolver,
		hub:      hubClient,
		subs:     subs,
		seen:     seen,
		matcher:  matcher,
		mb:       mb,
		notifier: notifier,
		callback: callback,
	}
}

// Subscribe resolves the handle, registers the channel with the hub and, once
// the hub accepted the intent, records the subscription locally. Acceptance
// is not verification: the hub's challenge handshake happens afterwards
// against the webhook.
func (s *Service) Subscribe(ctx context.Context, handle string, keyword string) (string, error) {
	channel, err := s.resolver.Resolve(ctx, handle)
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve handle %v", handle)
	}
	err = s.hub.Subscribe(ctx, channel.Id, s.callback)
	if err != nil {
		return "", errors.Wrapf(err, "cannot subscribe to channel %v", channel.Id)
	}
	err = s.subs.Put(channel.Id, store.Subscription{
		Keyword:     keyword,
		CallbackURL: s.callback,
	})
	if err != nil {
		return "", errors.Wrap(err, "cannot store subscription")
	}
	log.Printf("subscribed to channel %v (%v)", channel.Title, channel.Id)
	return channel.Id, nil
}

// Unsubscribe is advisory: it reports success or failure instead of erroring,
// since it is typically invoked interactively. Removing a channel that was
// never stored locally still issues the hub call and succeeds.
func (s *Service) Unsubscribe(ctx context.Context, target hub.Target) bool {
	channelId := target.ChannelId
	if !target.IsChannel() {
		channel, err := s.resolver.Resolve(ctx, target.Handle)
		if err != nil {
			log.Printf("failed to resolve handle %v: %v", target.Handle, err.Error())
			return false
		}
		channelId = channel.Id
	}
	err := s.hub.Unsubscribe(ctx, channelId, s.callback)
	if err != nil {
		log.Printf("failed to unsubscribe from channel %v: %v", channelId, err.Error())
		return false
	}
	err = s.subs.Remove(channelId)
	if err != nil {
		log.Printf("failed to remove stored subscription %v: %v", channelId, err.Error())
	}
	log.Printf("unsubscribed from channel %v", channelId)
	return true
}

// dispatchVideo routes one pushed video against the stored subscription for
// its channel. Unknown channels and filtered-out videos are no-ops; only the
// keyword check can make this path expensive.
func (s *Service) dispatchVideo(video youtube.VideoInfo) {
	sub, err := s.subs.Lookup(video.Channel.Id)
	if err != nil && errors.Is(err, store.ErrNotFound) {
		log.Printf("no subscription for channel %v, ignoring video %v", video.Channel.Id, video.Id)
		return
	}
	if err != nil {
		log.Printf("unable to look up subscription for channel %v: %v", video.Channel.Id, err.Error())
		return
	}
	if sub.Keyword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), matchTimeout)
		defer cancel()
		matches, err := s.matcher.Matches(ctx, video.Id, sub.Keyword)
		if err != nil {
			// Missing transcripts and transient failures both degrade to
			// no-match; the hub must not see an error for them.
			log.Printf("could not check transcript of video %v: %v", video.Id, err.Error())
			return
		}
		if !matches {
			log.Printf("keyword %q not found in video %v", sub.Keyword, video.Id)
			return
		}
	}
	s.notifyAboutVideo(video, sub.Keyword)
}

func (s *Service) notifyAboutVideo(video youtube.VideoInfo, keyword string) {
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
	err = s.notifier.NotifyMatch(video, keyword)
	if err != nil {
		log.Println(err.Error())
	}
}
