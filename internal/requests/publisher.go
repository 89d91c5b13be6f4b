package requests

import (
	"context"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// CommandPublisher dispatches serialized calculation commands. The pipeline
// treats dispatch as fire-and-forget; the response arrives later as an
// independent event on the result subscription.
type CommandPublisher interface {
	PublishCommand(ctx context.Context, data []byte, attributes map[string]string) error
}

// TopicPublisher adapts a Pub/Sub publisher handle to CommandPublisher.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

// NewTopicPublisher wraps the given publisher handle.
func NewTopicPublisher(publisher *pubsub.Publisher) *TopicPublisher {
	return &TopicPublisher{publisher: publisher}
}

// PublishCommand implements CommandPublisher. It waits for the server's
// acknowledgement so a broker outage surfaces to the caller instead of
// silently losing the command.
func (p *TopicPublisher) PublishCommand(ctx context.Context, data []byte, attributes map[string]string) error {
	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attributes})
	_, err := result.Get(ctx)
	return err
}
