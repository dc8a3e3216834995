// Package hub talks to the PubSubHubbub hub that pushes YouTube channel
// updates to a registered callback.
package hub

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"youtube-keyword-notifier/youtube"
)

const requestTimeout = time.Second * 10

// Target identifies a channel for unsubscribe: either a raw channel id or a
// handle that still needs resolving. The decision is made at the call
// boundary instead of prefix sniffing inside the manager.
type Target struct {
	ChannelId string
	Handle    string
}

func ChannelTarget(id string) Target { return Target{ChannelId: id} }

func HandleTarget(handle string) Target { return Target{Handle: handle} }

func (t Target) IsChannel() bool { return t.ChannelId != "" }

type Client struct {
	hubURL string
	client *http.Client
}

func NewClient() *Client {
	return &Client{
		hubURL: youtube.HubYouTubeURL,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// NewClientWithURL is used by tests to point at a fake hub.
func NewClientWithURL(hubURL string) *Client {
	return &Client{
		hubURL: hubURL,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// Subscribe asks the hub to push updates for the channel to the callback.
// A 2xx only means the hub accepted the intent; the verification handshake
// against the callback happens afterwards.
func (c *Client) Subscribe(ctx context.Context, channelId string, callback string) error {
	values := url.Values{}
	values.Set(youtube.HubMode, youtube.HubModeSubscribe)
	values.Set(youtube.HubTopic, fmt.Sprintf(youtube.HubTopicFormat, channelId))
	values.Set(youtube.HubCallback, callback)
	values.Set(youtube.HubVerify, youtube.HubVerifySync)
	values.Set(youtube.HubLeaseSeconds, fmt.Sprintf("%v", youtube.HubLeaseSeconds5Days))
	return c.postForm(ctx, values, "subscription")
}

// Unsubscribe asks the hub to stop pushing updates for the channel.
func (c *Client) Unsubscribe(ctx context.Context, channelId string, callback string) error {
	values := url.Values{}
	values.Set(youtube.HubMode, youtube.HubModeUnsubscribe)
	values.Set(youtube.HubTopic, fmt.Sprintf(youtube.HubTopicFormat, channelId))
	values.Set(youtube.HubCallback, callback)
	values.Set(youtube.HubVerify, youtube.HubVerifySync)
	return c.postForm(ctx, values, "unsubscription")
}

func (c *Client) postForm(ctx context.Context, values url.Values, action string) error {
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.hubURL,
		strings.NewReader(values.Encode()),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to build %v request", action)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	response, err := c.client.Do(request)
	if err != nil {
		return errors.Wrapf(err, "unable to make %v request", action)
	}
	body := response.Body
	defer func() {
		err := body.Close()
		if err != nil {
			log.Printf("error when closing the body: %v", err.Error())
		}
	}()
	code := response.StatusCode
	if code < 200 || code > 299 {
		body, err := ioutil.ReadAll(body)
		if err != nil {
			return errors.Errorf("unexpected status during %v %v; can't read body: %v", action, code, err.Error())
		}
		return errors.Errorf("unexpected status during %v %v; body: %v", action, code, string(body))
	}
	return nil
}
