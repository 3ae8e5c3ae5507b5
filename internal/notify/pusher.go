package notify

import (
	"context"
	"fmt"

	"github.com/pusher/pusher-http-go/v5"
)

// maxChannelsPerTrigger is the Pusher limit for one trigger call.
const maxChannelsPerTrigger = 100

// PusherPublisher delivers events to Pusher private channels.
type PusherPublisher struct {
	client *pusher.Client
}

// NewPusherPublisher creates a new PusherPublisher.
func NewPusherPublisher(appID, key, secret, cluster string) *PusherPublisher {
	return &PusherPublisher{
		client: &pusher.Client{
			AppID:   appID,
			Key:     key,
			Secret:  secret,
			Cluster: cluster,
			Secure:  true,
		},
	}
}

// Publish triggers event on every channel. The Pusher client is not
// context aware, so ctx is only checked between batches.
func (p *PusherPublisher) Publish(ctx context.Context, channels []string, event string, payload any) error {
	for start := 0; start < len(channels); start += maxChannelsPerTrigger {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+maxChannelsPerTrigger, len(channels))
		if err := p.client.TriggerMulti(channels[start:end], event, payload); err != nil {
			return fmt.Errorf("pusher trigger %s: %w", event, err)
		}
	}
	return nil
}

// AuthorizePrivateChannel signs a private channel subscription request.
func (p *PusherPublisher) AuthorizePrivateChannel(params []byte) ([]byte, error) {
	return p.client.AuthorizePrivateChannel(params)
}
