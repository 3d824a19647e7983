package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	readBlock = 5 * time.Second
	readCount = 100
	// DefaultMaxLen caps the stream; older entries are trimmed approximately.
	DefaultMaxLen = 10000
)

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	maxLen int64
	log    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, maxLen: DefaultMaxLen, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"type": event.Type, "payload": string(data)},
	}).Err()
}

// RedisSubscriber tails a stream from the moment Subscribe is called. Every
// subscriber sees every event.
type RedisSubscriber struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	lastID := "$"

	go func() {
		for ctx.Err() == nil {
			res, err := s.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, lastID},
				Count:   readCount,
				Block:   readBlock,
			}).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.log.Warn("stream read failed", zap.String("stream", stream), zap.Error(err))
					sleep(ctx, time.Second)
				}
				continue
			}
			for _, st := range res {
				for _, msg := range st.Messages {
					lastID = msg.ID
					event, err := decode(msg)
					if err != nil {
						s.log.Error("failed to decode event", zap.String("id", msg.ID), zap.Error(err))
						continue
					}
					handler(event)
				}
			}
		}
	}()

	return nil
}

// RedisGroupSubscriber consumes a stream as a member of a consumer group, so
// each event is handled by one worker and acknowledged afterwards.
type RedisGroupSubscriber struct {
	client   *redis.Client
	group    string
	consumer string
	log      *zap.Logger
}

func NewRedisGroupSubscriber(client *redis.Client, group, consumer string, log *zap.Logger) *RedisGroupSubscriber {
	return &RedisGroupSubscriber{client: client, group: group, consumer: consumer, log: log}
}

func (s *RedisGroupSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", s.group, err)
	}

	go func() {
		for ctx.Err() == nil {
			res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    s.group,
				Consumer: s.consumer,
				Streams:  []string{stream, ">"},
				Count:    readCount,
				Block:    readBlock,
			}).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					s.log.Warn("group read failed", zap.String("stream", stream), zap.Error(err))
					sleep(ctx, time.Second)
				}
				continue
			}
			for _, st := range res {
				for _, msg := range st.Messages {
					if event, err := decode(msg); err != nil {
						s.log.Error("failed to decode event", zap.String("id", msg.ID), zap.Error(err))
					} else {
						handler(event)
					}
					if err := s.client.XAck(ctx, stream, s.group, msg.ID).Err(); err != nil {
						s.log.Warn("ack failed", zap.String("id", msg.ID), zap.Error(err))
					}
				}
			}
		}
	}()

	return nil
}

func decode(msg redis.XMessage) (Event, error) {
	typ, _ := msg.Values["type"].(string)
	if typ == "" {
		return Event{}, errors.New("missing event type")
	}
	event := Event{Type: typ}
	if raw, ok := msg.Values["payload"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &event.Payload); err != nil {
			return Event{}, err
		}
	}
	return event, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
