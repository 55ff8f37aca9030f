package realtime

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/config"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
)

const userChannelPrefix = "chat:user:"

// NewRedis creates a new Redis client
func NewRedis(cfg config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	log := logger.WithComponent("redis")
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis client created")
	return rdb
}

func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

// Relay fans events out through Redis so sessions held by other instances receive them.
// With a nil client it degrades to local delivery through the hub.
type Relay struct {
	rdb *redis.Client
	hub *Hub
	log zerolog.Logger
}

func NewRelay(rdb *redis.Client, hub *Hub) *Relay {
	return &Relay{rdb: rdb, hub: hub, log: logger.WithComponent("relay")}
}

func (r *Relay) Emit(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}

	if r.rdb != nil {
		err := r.rdb.Publish(ctx, UserChannel(userID), payload).Err()
		if err == nil {
			return nil
		}
		r.log.Warn().Err(err).Str("user_id", userID.String()).Msg("publish failed, delivering locally")
	}
	r.hub.SendToUser(userID, payload)
	return nil
}

// Run forwards messages on chat:user:* to local sessions until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	if r.rdb == nil {
		return
	}

	sub := r.rdb.PSubscribe(ctx, userChannelPrefix+"*")
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
			userID, ok := userFromChannel(msg.Channel)
			if !ok {
				r.log.Warn().Str("channel", msg.Channel).Msg("ignoring message on unexpected channel")
				continue
			}
			r.hub.SendToUser(userID, []byte(msg.Payload))
		}
	}
}

func userFromChannel(channel string) (uuid.UUID, bool) {
	if !strings.HasPrefix(channel, userChannelPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(channel, userChannelPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
