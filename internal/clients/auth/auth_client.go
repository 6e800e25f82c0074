// Package auth реализует клиент аутентификационного примитива бекенда.
// Токен текущей сессии установки хранится под ключом sessions:<installation_id>,
// события аутентификации публикуются в канал auth:events:<installation_id>
// в порядке их возникновения на бекенде.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	jwtlib "github.com/sidequest-campus/gatekeeper/internal/lib/jwt"
	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// AuthClient клиент аутентификационного примитива бекенда.
type AuthClient struct {
	rdb            *redis.Client
	tokens         jwtlib.Maker
	installationID string
	log            *slog.Logger
}

// New создает новый AuthClient для данной установки приложения.
func New(rdb *redis.Client, tokens jwtlib.Maker, installationID string, log *slog.Logger) *AuthClient {
	return &AuthClient{
		rdb:            rdb,
		tokens:         tokens,
		installationID: installationID,
		log:            log,
	}
}

func (a *AuthClient) sessionKey() string {
	return "sessions:" + a.installationID
}

func (a *AuthClient) eventsChannel() string {
	return "auth:events:" + a.installationID
}

// GetSession выполняет разовое разрешение текущей сессии.
// Отсутствие сохраненного токена означает отсутствие сессии (nil, nil).
func (a *AuthClient) GetSession(ctx context.Context) (*models.Session, error) {
	const op = "auth.GetSession"

	token, err := a.rdb.Get(ctx, a.sessionKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session, err := a.sessionFromToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// SignOut удаляет сохраненный токен и публикует событие SIGNED_OUT.
func (a *AuthClient) SignOut(ctx context.Context) error {
	const op = "auth.SignOut"

	if err := a.rdb.Del(ctx, a.sessionKey()).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	payload, err := json.Marshal(models.SessionEvent{Type: models.SessionSignedOut})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := a.rdb.Publish(ctx, a.eventsChannel(), payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribe открывает подписку на события аутентификации. В канал
// результата передается новая сессия (nil при выходе) в порядке
// поступления событий, без склеивания повторов. Некорректные события
// логируются и пропускаются. Возвращаемая функция закрывает подписку.
func (a *AuthClient) Subscribe(ctx context.Context) (<-chan *models.Session, func(), error) {
	const op = "auth.Subscribe"

	pubsub := a.rdb.Subscribe(ctx, a.eventsChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(chan *models.Session)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event models.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				a.log.Error("failed to decode auth event", sl.Err(err))
				continue
			}

			switch event.Type {
			case models.SessionSignedOut:
				out <- nil
			case models.SessionSignedIn, models.SessionTokenRefreshed:
				session, err := a.sessionFromToken(event.AccessToken)
				if err != nil {
					a.log.Error("failed to parse session token from auth event", sl.Err(err))
					continue
				}
				out <- session
			default:
				a.log.Warn("unknown auth event type", slog.String("type", string(event.Type)))
			}
		}
	}()

	stop := sync.OnceFunc(func() {
		if err := pubsub.Close(); err != nil {
			a.log.Error("failed to close auth event subscription", sl.Err(err))
		}
	})
	return out, stop, nil
}

func (a *AuthClient) sessionFromToken(token string) (*models.Session, error) {
	claims, err := a.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		UserUID:     claims.UserUID,
		Email:       claims.Email,
		AccessToken: token,
	}, nil
}
