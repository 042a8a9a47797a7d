package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pasteldream/pastel-backend/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "pastel:realtime:"

// RedisFeed fans events across processes over Redis pub/sub.
type RedisFeed struct {
	client *goredis.Client
	pubsub *goredis.PubSub
	d      *dispatcher
	done   chan struct{}
}

func NewRedisFeed(ctx context.Context, client *goredis.Client) (*RedisFeed, error) {
	pubsub := client.PSubscribe(ctx, redisChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to realtime channels: %w", err)
	}

	f := &RedisFeed{
		client: client,
		pubsub: pubsub,
		d:      newDispatcher(),
		done:   make(chan struct{}),
	}
	go f.run()

	logger.Info("Redis realtime feed started", map[string]interface{}{
		"pattern": redisChannelPrefix + "*",
	})
	return f, nil
}

func (f *RedisFeed) run() {
	defer close(f.done)
	for msg := range f.pubsub.Channel() {
		var e Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			logger.Warn("Dropping malformed realtime message", map[string]interface{}{
				"channel": msg.Channel,
				"error":   err.Error(),
			})
			continue
		}
		f.d.dispatch(e)
	}
}

func (f *RedisFeed) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, redisChannelPrefix+e.Channel, data).Err()
}

func (f *RedisFeed) Subscribe(filter Filter, h Handler) (Subscription, error) {
	s, err := f.d.add(filter, h)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close stops delivery. The Redis client itself is owned by the caller.
func (f *RedisFeed) Close() error {
	f.d.close()
	err := f.pubsub.Close()
	<-f.done
	return err
}
