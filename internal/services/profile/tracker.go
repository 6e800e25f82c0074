// Package profile отслеживает заполненность профиля пользователя:
// разовая загрузка строки при появлении сессии и realtime-подписка
// на последующие изменения.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/metrics"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// Repository описывает контракт чтения профиля из хранилища.
type Repository interface {
	// GetProfile возвращает строку профиля или (nil, nil), если ее нет.
	GetProfile(ctx context.Context, userUID string) (*models.ProfileRow, error)
}

// Subscriber описывает контракт realtime-подписки на изменения профиля.
type Subscriber interface {
	// SubscribeProfileUpdates открывает подписку на UPDATE-события
	// профиля пользователя; возвращаемая функция закрывает ее синхронно.
	SubscribeProfileUpdates(ctx context.Context, userUID string) (<-chan models.ProfileRow, func(), error)
}

// Tracker отслеживает заполненность профиля текущего пользователя.
// Одновременно активна не более одной realtime-подписки.
type Tracker struct {
	repo       Repository
	subscriber Subscriber
	log        *slog.Logger

	mu        sync.Mutex
	stop      func()
	activeUID string
}

// New создает новый Tracker.
func New(repo Repository, subscriber Subscriber, log *slog.Logger) *Tracker {
	return &Tracker{
		repo:       repo,
		subscriber: subscriber,
		log:        log,
	}
}

// FetchInitial выполняет разовую загрузку профиля и возвращает признак
// заполненности. Ошибка загрузки и отсутствие записи трактуются как
// незаполненный профиль (fail-closed): неизвестный профиль никогда не
// открывает доступ.
func (t *Tracker) FetchInitial(ctx context.Context, userUID string) bool {
	const op = "profile.FetchInitial"

	row, err := t.repo.GetProfile(ctx, userUID)
	if err != nil {
		metrics.ProfileFetchFailures.Inc()
		t.log.Error("initial profile fetch failed, treating profile as incomplete",
			slog.String("op", op), slog.String("user_uid", userUID), sl.Err(err))
		return false
	}
	if row == nil {
		t.log.Info("profile record not found, treating profile as incomplete",
			slog.String("op", op), slog.String("user_uid", userUID))
		return false
	}
	return row.Complete()
}

// Subscribe открывает realtime-подписку на изменения профиля пользователя.
// Существующая подписка, если была, закрывается до открытия новой.
// Заполненность пересчитывается только из присланной строки, без
// повторного чтения базы.
func (t *Tracker) Subscribe(ctx context.Context, userUID string, onChange func(complete bool)) error {
	const op = "profile.Subscribe"

	t.mu.Lock()
	defer t.mu.Unlock()

	t.unsubscribeLocked()

	rows, stop, err := t.subscriber.SubscribeProfileUpdates(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	t.stop = stop
	t.activeUID = userUID

	go func() {
		for row := range rows {
			onChange(row.Complete())
		}
	}()
	return nil
}

// Unsubscribe закрывает активную подписку, если она есть.
// Вызывается при завершении сессии.
func (t *Tracker) Unsubscribe() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsubscribeLocked()
}

func (t *Tracker) unsubscribeLocked() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
		t.activeUID = ""
	}
}
