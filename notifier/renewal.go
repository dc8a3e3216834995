package notifier

import (
	"context"
	"log"
	"time"
)

const (
	renewalInterval = time.Hour
	// Renew everything due before the sweep after the next one runs.
	renewalHorizon = renewalInterval * 2
)

// RunLeaseRenewal keeps hub subscriptions alive: hub leases expire silently,
// so every sweep re-subscribes the channels whose lease ends within the
// horizon or was never recorded. Failures are logged and retried on the next
// sweep.
func (s *Service) RunLeaseRenewal(ctx context.Context) {
	for {
		s.renewExpiring(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(renewalInterval):
		}
	}
}

func (s *Service) renewExpiring(ctx context.Context) {
	expiring, err := s.subs.LeaseExpiring(time.Now().Add(renewalHorizon))
	if err != nil {
		log.Printf("unable to list expiring subscriptions: %v", err.Error())
		return
	}
	for channelId, sub := range expiring {
		callback := sub.CallbackURL
		if callback == "" {
			callback = s.callback
		}
		err := s.hub.Subscribe(ctx, channelId, callback)
		if err != nil {
			log.Printf("error when trying to renew subscription to channel %v: %v", channelId, err.Error())
			continue
		}
		log.Printf("renewed subscription to channel %v", channelId)
	}
}
