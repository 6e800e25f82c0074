// Package realtime реализует подписку на realtime-события бекенда
// через Redis Pub/Sub. Бекенд публикует новую версию строки профиля
// в канал profiles:update:<user_uid> при каждом UPDATE.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator"
	"github.com/redis/go-redis/v9"

	"github.com/sidequest-campus/gatekeeper/internal/config"
	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/metrics"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// InitRedis создает клиент Redis и проверяет соединение.
func InitRedis(ctx context.Context, cfg config.RedisConnection) (*redis.Client, error) {
	const op = "realtime.InitRedis"
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rdb, nil
}

// Client подписчик realtime-событий об изменении профилей.
type Client struct {
	rdb      *redis.Client
	log      *slog.Logger
	validate *validator.Validate
}

// NewClient создает новый realtime-клиент поверх существующего соединения.
func NewClient(rdb *redis.Client, log *slog.Logger) *Client {
	return &Client{
		rdb:      rdb,
		log:      log,
		validate: validator.New(),
	}
}

// ProfileChannel возвращает имя канала с событиями профиля пользователя.
func ProfileChannel(userUID string) string {
	return "profiles:update:" + userUID
}

// SubscribeProfileUpdates открывает подписку на UPDATE-события профиля
// пользователя. Каждое событие несет новую строку целиком; некорректные
// сообщения логируются и отбрасываются. Возвращаемая функция закрывает
// подписку синхронно: после ее возврата новых событий не будет, а канал
// результата закрывается.
func (c *Client) SubscribeProfileUpdates(ctx context.Context, userUID string) (<-chan models.ProfileRow, func(), error) {
	const op = "realtime.SubscribeProfileUpdates"

	pubsub := c.rdb.Subscribe(ctx, ProfileChannel(userUID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan models.ProfileRow)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			metrics.RealtimeEvents.Inc()

			var row models.ProfileRow
			if err := json.Unmarshal([]byte(msg.Payload), &row); err != nil {
				metrics.MalformedRealtimeEvents.Inc()
				c.log.Error("failed to decode realtime profile event", sl.Err(err))
				continue
			}
			if err := c.validate.Struct(row); err != nil {
				metrics.MalformedRealtimeEvents.Inc()
				c.log.Error("malformed realtime profile event", sl.Err(err))
				continue
			}
			out <- row
		}
	}()

	stop := sync.OnceFunc(func() {
		if err := pubsub.Close(); err != nil {
			c.log.Error("failed to close realtime subscription", sl.Err(err))
		}
	})
	return out, stop, nil
}
