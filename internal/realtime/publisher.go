package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// TopicGlobal carries events every connected client should see.
	TopicGlobal = "sos.global"

	userTopicPrefix = "sos.user."
)

// TopicUser is the private topic of a single user.
func TopicUser(userID string) string {
	return userTopicPrefix + userID
}

// Event is the envelope delivered to websocket clients.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// Publisher is the addressable pub/sub channel the notifier writes to.
// Delivery is best-effort: no retry, no persistence, a disconnected client
// simply misses the event.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

type RedisPublisher struct {
	redisClient *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime event: %w", err)
	}

	if err := p.redisClient.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish realtime event: %w", err)
	}
	return nil
}
