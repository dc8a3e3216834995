// Package transcript answers whether a keyword occurs in a video's spoken
// transcript, via the RapidAPI transcript service.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	matchTimeout  = time.Second * 10
	transcriptURL = "https://youtube-transcript3.p.rapidapi.com/api/transcript"
	rapidAPIHost  = "youtube-transcript3.p.rapidapi.com"
)

var ErrNoTranscript = errors.New("no transcript available")

type Service struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewService(token string) *Service {
	return &Service{
		baseURL: transcriptURL,
		token:   token,
		client:  &http.Client{Timeout: matchTimeout},
	}
}

// NewServiceWithURL is used by tests to point at a fake transcript API.
func NewServiceWithURL(baseURL, token string) *Service {
	return &Service{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: matchTimeout},
	}
}

type payload struct {
	Success    bool `json:"success"`
	Transcript []struct {
		Text string `json:"text"`
	} `json:"transcript"`
}

// Matches reports whether the keyword occurs in the video's transcript,
// case-insensitively. Videos without a transcript fail with ErrNoTranscript.
func (s *Service) Matches(ctx context.Context, videoId string, keyword string) (bool, error) {
	values := url.Values{}
	values.Set("videoId", videoId)
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%v?%v", s.baseURL, values.Encode()),
		nil,
	)
	if err != nil {
		return false, errors.Wrap(err, "unable to build transcript request")
	}
	request.Header.Set("x-rapidapi-host", rapidAPIHost)
	request.Header.Set("x-rapidapi-key", s.token)
	response, err := s.client.Do(request)
	if err != nil {
		return false, errors.Wrap(err, "unable to get transcript")
	}
	defer func() {
		err := response.Body.Close()
		if err != nil {
			log.Printf("error during closing transcript body: %v", err.Error())
		}
	}()
	code := response.StatusCode
	if code < 200 || code > 299 {
		return false, errors.Errorf("unexpected status during transcript fetch: %v", code)
	}
	var p payload
	err = json.NewDecoder(response.Body).Decode(&p)
	if err != nil {
		return false, errors.Wrap(err, "unable to decode transcript")
	}
	if !p.Success || p.Transcript == nil {
		return false, ErrNoTranscript
	}
	needle := strings.ToLower(keyword)
	for _, segment := range p.Transcript {
		if strings.Contains(strings.ToLower(segment.Text), needle) {
			return true, nil
		}
	}
	return false, nil
}
