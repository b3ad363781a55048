package notify

import "context"

type eventWriter interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// KafkaNotifier queues the email for the notification service.
type KafkaNotifier struct {
	W     eventWriter
	Topic string
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg Email) error {
	return n.W.PublishEvent(ctx, n.Topic, msg.To, msg)
}
