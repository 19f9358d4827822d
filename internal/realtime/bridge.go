package realtime

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunSubscriber bridges the redis backplane into the local hub: global-topic
// events fan out to every connection, user topics to that user's connections.
// Running the hub behind redis pub/sub keeps fan-out addressable across
// instances instead of a process-wide socket registry.
func RunSubscriber(ctx context.Context, client *redis.Client, hub *Hub, logger *zap.SugaredLogger) {
	pubsub := client.PSubscribe(ctx, "sos.*")

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				switch {
				case msg.Channel == TopicGlobal:
					hub.Broadcast([]byte(msg.Payload))
				case strings.HasPrefix(msg.Channel, userTopicPrefix):
					hub.SendToUser(strings.TrimPrefix(msg.Channel, userTopicPrefix), []byte(msg.Payload))
				default:
					logger.Debugf("Ignoring realtime message on unknown topic %s", msg.Channel)
				}
			}
		}
	}()
}
