package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"SendLater/internal/models"
)

const defaultConnectTimeout = 10 * time.Second

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string

	// ConnectTimeout bounds the initial connectivity retries.
	ConnectTimeout time.Duration
}

// RedisPublisher PUBLISHes history entries as JSON on a Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// NewRedisPublisher connects and pings Redis, retrying with exponential
// backoff until ConnectTimeout elapses.
func NewRedisPublisher(ctx context.Context, opts RedisOptions, log *zap.Logger) (*RedisPublisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("redis publisher: channel is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = opts.ConnectTimeout

	attempt := 0
	ping := func() error {
		attempt++
		err := client.Ping(ctx).Err()
		if err != nil {
			log.Warn("redis ping failed",
				zap.String("addr", opts.Addr),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	}

	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis publisher: connect %s: %w", opts.Addr, err)
	}

	log.Info("redis publisher connected",
		zap.String("addr", opts.Addr),
		zap.String("channel", opts.Channel),
	)

	return &RedisPublisher{
		client:  client,
		channel: opts.Channel,
		log:     log,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, entry models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
