package notify

import (
	"context"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const updatesChannel = "queue_updates"

// RedisNotifier carries queue-change events over a Redis pub/sub
// channel so every node sees writes made by its peers. Locally it
// wraps a Broker, which handlers subscribe to.
type RedisNotifier struct {
	client *redis.Client
	local  *Broker
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewRedisNotifier starts listening on the updates channel and returns
// the notifier. Close releases the subscription.
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &RedisNotifier{
		client: client,
		local:  NewBroker(),
		logger: logger,
		cancel: cancel,
	}
	go n.listen(ctx)
	return n
}

func (n *RedisNotifier) listen(ctx context.Context) {
	sub := n.client.Subscribe(ctx, updatesChannel)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n.local.Publish(msg.Payload)
		}
	}
}

// Publish broadcasts the queue id to all nodes. The local fan-out
// happens when the message comes back over the subscription, keeping
// one delivery path for local and remote writes alike.
func (n *RedisNotifier) Publish(queueID string) {
	if err := n.client.Publish(context.Background(), updatesChannel, queueID).Err(); err != nil {
		n.logger.Error("failed to publish queue update", zap.String("queueId", queueID), zap.Error(err))
		// Still deliver locally so this node's observers are not starved.
		n.local.Publish(queueID)
	}
}

// Subscribe registers a handler for queue-change events.
func (n *RedisNotifier) Subscribe(handler func(queueID string)) func() {
	return n.local.Subscribe(handler)
}

// Close stops the pub/sub listener.
func (n *RedisNotifier) Close() {
	n.cancel()
}
