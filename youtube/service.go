package youtube

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytApi "google.golang.org/api/youtube/v3"
)

const (
	searchTimeout = time.Second * 5
	channelType   = "channel"
	videoType     = "video"
	orderByDate   = "date"
)

var (
	snippetPart = []string{"snippet"}

	ErrChannelNotFound = errors.New("unable to find channel")
)

type Service struct {
	yt *ytApi.Service
}

func NewService(apiKey string) (*Service, error) {
	service, err := ytApi.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Service{service}, nil
}

// NormalizeHandle ensures the leading @ the search endpoint expects.
func NormalizeHandle(handle string) string {
	if strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

// Resolve finds the stable channel id for a handle. It searches for the
// handle first, then confirms the candidate by fetching the full channel
// record. The caller decides whether to retry.
func (s *Service) Resolve(ctx context.Context, handle string) (ChannelInfo, error) {
	handle = NormalizeHandle(handle)
	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	response, err := s.yt.Search.
		List(snippetPart).
		Context(searchCtx).
		Q(handle).
		Type(channelType).
		MaxResults(1).
		Do()
	if err != nil {
		return ChannelInfo{}, wrapUpstream(err, "error during search for channel by handle")
	}
	if len(response.Items) == 0 {
		return ChannelInfo{}, ErrChannelNotFound
	}
	return s.FindChannelById(ctx, response.Items[0].Id.ChannelId)
}

func (s *Service) FindChannelById(ctx context.Context, id string) (ChannelInfo, error) {
	listCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	response, err := s.yt.Channels.
		List(snippetPart).
		Context(listCtx).
		MaxResults(1).
		Id(id).
		Do()
	if err != nil {
		return ChannelInfo{}, wrapUpstream(err, "error on calling youtube api")
	}
	items := response.Items
	if len(items) == 0 {
		return ChannelInfo{}, ErrChannelNotFound
	}
	if len(items) > 1 {
		fmt.Printf("unexpected item count (%v) during search for channel", len(items))
	}
	channel := items[0]
	if channel.Snippet == nil {
		return ChannelInfo{}, errors.New("snippet is missing in response")
	}
	return ChannelInfo{Id: channel.Id, Title: channel.Snippet.Title}, nil
}

// SearchRecent lists videos matching the keyword that were published within
// the trailing window, most recent first.
func (s *Service) SearchRecent(ctx context.Context, keyword string, window time.Duration) ([]VideoInfo, error) {
	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()
	publishedAfter := time.Now().Add(-window).UTC().Format(time.RFC3339)
	response, err := s.yt.Search.
		List(snippetPart).
		Context(searchCtx).
		Q(keyword).
		Type(videoType).
		Order(orderByDate).
		PublishedAfter(publishedAfter).
		Do()
	if err != nil {
		return nil, wrapUpstream(err, "error during search for recent videos")
	}
	var videos []VideoInfo
	for _, item := range response.Items {
		publishedAt, err := parseTime(item.Snippet.PublishedAt)
		if err != nil {
			fmt.Printf("unable to parse time %v during search for recent videos", item.Snippet.PublishedAt)
		}
		videos = append(videos, VideoInfo{
			Id: item.Id.VideoId,
			Channel: ChannelInfo{
				Id:    item.Snippet.ChannelId,
				Title: item.Snippet.ChannelTitle,
			},
			Title:       item.Snippet.Title,
			PublishedAt: publishedAt,
		})
	}
	return videos, nil
}

func parseTime(timeText string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, timeText)
}

// wrapUpstream keeps the upstream status code and body readable in the
// wrapped message when the failure came from the API rather than transport.
func wrapUpstream(err error, message string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return errors.Wrapf(err, "%v (status %v)", message, apiErr.Code)
	}
	return errors.Wrap(err, message)
}
