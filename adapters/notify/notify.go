// Package notify pushes settings change notifications over Redis pub/sub.
// Publishers announce a new revision; subscribers reload their provider.
package notify

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"move-quote/core/settings"
	"move-quote/internal/logging"
)

// DefaultChannel is the pub/sub channel settings changes are announced on
const DefaultChannel = "movequote:settings"

// Reloader reloads settings from their source
type Reloader interface {
	Reload(ctx context.Context) (*settings.Snapshot, error)
}

// NewClient creates a Redis client for addr
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Publish announces that revision is available
func Publish(ctx context.Context, client *redis.Client, channel string, revision int64) error {
	if channel == "" {
		channel = DefaultChannel
	}
	return client.Publish(ctx, channel, strconv.FormatInt(revision, 10)).Err()
}

// Subscriber reloads settings whenever a change is announced
type Subscriber struct {
	client   *redis.Client
	channel  string
	reloader Reloader
	logger   *zap.Logger
}

// NewSubscriber creates a subscriber
func NewSubscriber(client *redis.Client, channel string, reloader Reloader, logger *zap.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{
		client:   client,
		channel:  channel,
		reloader: reloader,
		logger:   logging.OrNop(logger).With(zap.String("channel", channel)),
	}
}

// Run subscribes and reloads on every message until ctx is done
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	s.logger.Info("listening for settings changes")

	return s.consume(ctx, pubsub.Channel())
}

func (s *Subscriber) consume(ctx context.Context, messages <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.handle(ctx, msg)
		}
	}
}

// handle reloads unless the announced revision is already published
func (s *Subscriber) handle(ctx context.Context, msg *redis.Message) {
	announced, err := strconv.ParseInt(strings.TrimSpace(msg.Payload), 10, 64)
	if err != nil {
		announced = -1
	}

	if cur, ok := s.reloader.(interface{ Current() *settings.Snapshot }); ok && announced >= 0 {
		if snap := cur.Current(); !snap.IsDefault() && snap.Revision >= announced {
			s.logger.Debug("settings revision already published", zap.Int64("revision", announced))
			return
		}
	}

	snap, err := s.reloader.Reload(ctx)
	if err != nil {
		s.logger.Error("settings reload after notification failed",
			zap.String("payload", msg.Payload), zap.Error(err))
		return
	}
	s.logger.Info("settings reloaded after notification",
		zap.Int64("version", snap.Version), zap.Int64("revision", snap.Revision))
}
