// Package session содержит обертку над аутентификационным примитивом
// бекенда: разовая загрузка сессии при старте и подписка на события
// входа, выхода и обновления токена. Параллельно сессионные переходы
// транслируются в подсистему push-уведомлений.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/models"
	"github.com/sidequest-campus/gatekeeper/internal/push"
)

// Backend описывает аутентификационный примитив бекенда.
type Backend interface {
	// GetSession возвращает текущую сессию или (nil, nil), если ее нет.
	GetSession(ctx context.Context) (*models.Session, error)
	// Subscribe открывает подписку на события аутентификации; в канал
	// передается новая сессия (nil при выходе) в порядке возникновения.
	Subscribe(ctx context.Context) (<-chan *models.Session, func(), error)
}

// Store хранит и раздает сессионные переходы.
type Store struct {
	backend  Backend
	notifier push.Notifier
	log      *slog.Logger
}

// New создает новый Store.
func New(backend Backend, notifier push.Notifier, log *slog.Logger) *Store {
	return &Store{
		backend:  backend,
		notifier: notifier,
		log:      log,
	}
}

// GetInitialSession выполняет разовое разрешение сессии при старте.
// Ошибка обращения к бекенду логируется и трактуется как отсутствие
// сессии. Побочный эффект: установка ассоциируется (или разассоциируется)
// в push-подсистеме.
func (s *Store) GetInitialSession(ctx context.Context) *models.Session {
	const op = "session.GetInitialSession"

	session, err := s.backend.GetSession(ctx)
	if err != nil {
		s.log.Error("failed to resolve initial session", slog.String("op", op), sl.Err(err))
		session = nil
	}
	s.notifyPush(ctx, session)
	return session
}

// Subscribe подписывает обработчик на сессионные переходы. События
// доставляются в порядке возникновения, без склеивания: каждый вход,
// выход и каждое обновление токена доходит до обработчика. Возвращает
// функцию отписки.
func (s *Store) Subscribe(ctx context.Context, handler func(*models.Session)) (func(), error) {
	const op = "session.Subscribe"

	sessions, stop, err := s.backend.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		for session := range sessions {
			s.notifyPush(ctx, session)
			handler(session)
		}
	}()
	return stop, nil
}

// notifyPush сообщает push-подсистеме о переходе сессии в фоне.
// Сбой вызова логируется и не влияет на состояние гейткипера.
func (s *Store) notifyPush(ctx context.Context, session *models.Session) {
	go func() {
		var err error
		if session != nil {
			err = s.notifier.Associate(ctx, session.UserUID)
		} else {
			err = s.notifier.Disassociate(ctx)
		}
		if err != nil {
			s.log.Warn("push association update failed", sl.Err(err))
		}
	}()
}
