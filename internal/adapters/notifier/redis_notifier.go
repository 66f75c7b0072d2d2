package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-escrow-engine/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient builds the Redis client used for notification publishing. The
// pool stays small: publishing is the only traffic on this connection.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
		MaxRetries:   3,
	})
}

// Ping verifies the Redis connection at startup
func Ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return client.Ping(ctx).Err()
}

// RedisNotifier publishes user notifications to a per-user Redis pub/sub
// channel. Delivery is best effort: failures are logged and swallowed so
// a broken notification path can never abort a settlement or a bid.
type RedisNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

type RedisNotifierParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

// NewRedisNotifier creates a new Redis notifier
func NewRedisNotifier(params RedisNotifierParams) *RedisNotifier {
	return &RedisNotifier{
		client: params.RedisClient,
		logger: params.Logger.With().Str("component", "redis_notifier").Logger(),
	}
}

type payload struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Notify publishes a notification for a user
func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	body, err := json.Marshal(payload{
		Title:     title,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		n.logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to encode notification")
		return
	}

	channel := fmt.Sprintf("notifications:user:%s", userID.String())
	if err := n.client.Publish(ctx, channel, body).Err(); err != nil {
		n.logger.Warn().Err(err).
			Str("user_id", userID.String()).
			Str("title", title).
			Msg("Failed to publish notification")
		return
	}

	n.logger.Debug().
		Str("user_id", userID.String()).
		Str("title", title).
		Msg("Notification published")
}
