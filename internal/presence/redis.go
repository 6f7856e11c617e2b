package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceChannel = "teamup:presence"

// RedisBroker relays presence events over a Redis pub/sub channel.
type RedisBroker struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisBroker(redisURL string, logger *zap.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBroker{client: client, logger: logger}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal presence event: %w", err)
	}
	if err := b.client.Publish(ctx, presenceChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish presence event: %w", err)
	}
	return nil
}

// Subscribe pumps channel messages to handler on a dedicated goroutine
// until ctx is cancelled. Malformed payloads are logged and skipped;
// one bad peer must not take down the subscription.
func (b *RedisBroker) Subscribe(ctx context.Context, handler func(Event)) error {
	sub := b.client.Subscribe(ctx, presenceChannel)
	// force the subscription to be established before returning
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe presence channel: %w", err)
	}

	go func() {
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
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("dropping malformed presence event", zap.Error(err))
					continue
				}
				handler(ev)
			}
		}
	}()
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
