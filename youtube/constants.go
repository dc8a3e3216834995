package youtube

import "regexp"

const (
	HubMode         = "hub.mode"
	HubTopic        = "hub.topic"
	HubChallenge    = "hub.challenge"
	HubLeaseSeconds = "hub.lease_seconds"
	HubCallback     = "hub.callback"
	HubVerify       = "hub.verify"
)

const (
	HubModeSubscribe     = "subscribe"
	HubModeUnsubscribe   = "unsubscribe"
	HubVerifySync        = "sync"
	HubTopicFormat       = "https://www.youtube.com/xml/feeds/videos.xml?channel_id=%v"
	HubYouTubeURL        = "https://pubsubhubbub.appspot.com/subscribe"
	WebhookPathURLFormat = "https://%v/youtube-webhook"
	// Hub leases expire silently; 5 days, renewed by the background sweep.
	HubLeaseSeconds5Days = 432000
)

var (
	HubTopicPattern = regexp.MustCompile("https://www\\.youtube\\.com/xml/feeds/videos\\.xml\\?channel_id=(.+)")
)
