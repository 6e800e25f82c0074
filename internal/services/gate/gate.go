// Package gate реализует оркестратор доступа: из сессионных переходов,
// результата проверки версии и заполненности профиля он выводит единственное
// решение о том, какой режим приложения видит пользователь.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/metrics"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// VersionChecker описывает контракт проверки версии приложения.
type VersionChecker interface {
	Check(ctx context.Context) models.VersionStatus
}

// SessionSource описывает контракт источника сессионных переходов.
type SessionSource interface {
	// GetInitialSession выполняет разовое разрешение сессии при старте.
	GetInitialSession(ctx context.Context) *models.Session
	// Subscribe подписывает обработчик на сессионные переходы.
	Subscribe(ctx context.Context, handler func(*models.Session)) (func(), error)
}

// ProfileTracker описывает контракт трекера заполненности профиля.
type ProfileTracker interface {
	// FetchInitial возвращает заполненность профиля (fail-closed).
	FetchInitial(ctx context.Context, userUID string) bool
	// Subscribe открывает realtime-подписку на изменения профиля.
	Subscribe(ctx context.Context, userUID string, onChange func(complete bool)) error
	// Unsubscribe закрывает активную подписку.
	Unsubscribe()
}

// RoleResolver описывает контракт определения роли по email.
type RoleResolver interface {
	Resolve(email string) models.Role
}

type eventKind int

const (
	initialSessionResolved eventKind = iota
	sessionChanged
	versionChecked
	profileResolved
)

// event входное событие цикла оркестратора.
type event struct {
	kind     eventKind
	session  *models.Session
	status   models.VersionStatus
	epoch    uint64
	complete bool
}

// Gate пересчитывает решение о доступе при каждом изменении входов.
// Все события обрабатываются одной горутиной в порядке поступления,
// поэтому состояние цикла не требует блокировок.
type Gate struct {
	log      *slog.Logger
	version  VersionChecker
	sessions SessionSource
	profiles ProfileTracker
	roles    RoleResolver

	events chan event

	mu        sync.RWMutex
	decision  models.AccessDecision
	listeners []func(models.AccessDecision)

	// состояние цикла, принадлежит только горутине Run
	epoch           uint64
	session         *models.Session
	profileComplete bool
	profileReady    bool
	initialSeen     bool
	initialDone     bool
	versionStatus   models.VersionStatus
}

// New создает Gate. Решение до запуска цикла — Loading.
func New(version VersionChecker, sessions SessionSource, profiles ProfileTracker, roles RoleResolver, log *slog.Logger) *Gate {
	return &Gate{
		log:      log,
		version:  version,
		sessions: sessions,
		profiles: profiles,
		roles:    roles,
		events:   make(chan event, 16),
		decision: models.AccessDecision{Mode: models.ModeLoading},
	}
}

// Current возвращает текущее решение о доступе.
func (g *Gate) Current() models.AccessDecision {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.decision
}

// OnChange регистрирует слушателя смен решения. Регистрация выполняется
// до запуска Run; слушатель вызывается из горутины цикла.
func (g *Gate) OnChange(fn func(models.AccessDecision)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Run запускает цикл оркестратора и блокируется до отмены контекста.
// Подписка на сессионные события открывается до разового разрешения
// сессии, чтобы не потерять переходы, случившиеся во время старта.
func (g *Gate) Run(ctx context.Context) error {
	const op = "gate.Run"

	stop, err := g.sessions.Subscribe(ctx, func(session *models.Session) {
		g.send(ctx, event{kind: sessionChanged, session: session})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stop()

	go func() {
		g.send(ctx, event{kind: versionChecked, status: g.version.Check(ctx)})
	}()
	go func() {
		g.send(ctx, event{kind: initialSessionResolved, session: g.sessions.GetInitialSession(ctx)})
	}()

	for {
		select {
		case <-ctx.Done():
			g.profiles.Unsubscribe()
			return nil
		case ev := <-g.events:
			g.handle(ctx, ev)
			g.publish()
		}
	}
}

func (g *Gate) send(ctx context.Context, ev event) {
	select {
	case g.events <- ev:
	case <-ctx.Done():
	}
}

func (g *Gate) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case versionChecked:
		g.versionStatus = ev.status

	case initialSessionResolved:
		g.initialSeen = true
		// Живое событие могло опередить разовое разрешение —
		// тогда оно уже авторитетно и не перекрывается
		if g.epoch == 0 {
			g.applySession(ctx, ev.session)
		}

	case sessionChanged:
		g.applySession(ctx, ev.session)

	case profileResolved:
		if ev.epoch != g.epoch {
			metrics.StaleResultsDiscarded.Inc()
			g.log.Debug("discarding profile result for superseded session",
				slog.Uint64("result_epoch", ev.epoch), slog.Uint64("current_epoch", g.epoch))
			return
		}
		g.profileComplete = ev.complete
		g.profileReady = true
	}

	if !g.initialDone && g.initialSeen && g.profileReady {
		g.initialDone = true
	}
}

// applySession обрабатывает сессионный переход: старая realtime-подписка
// закрывается до открытия новой, а каждому асинхронному результату
// присваивается эпоха, по которой отбрасываются устаревшие ответы.
// Обновление токена того же пользователя заменяет только сессию:
// подписка, заполненность профиля и эпоха остаются прежними.
func (g *Gate) applySession(ctx context.Context, session *models.Session) {
	if session != nil && g.session != nil && session.UserUID == g.session.UserUID {
		g.session = session
		return
	}

	g.epoch++
	g.profiles.Unsubscribe()
	g.session = session
	g.profileComplete = false

	if session == nil {
		g.profileReady = true
		return
	}

	g.profileReady = false
	epoch := g.epoch
	userUID := session.UserUID

	// Подписка открывается до разовой загрузки: первым значением
	// заполненности становится то, что разрешится раньше, последующие
	// события просто обновляют его
	if err := g.profiles.Subscribe(ctx, userUID, func(complete bool) {
		g.send(ctx, event{kind: profileResolved, epoch: epoch, complete: complete})
	}); err != nil {
		g.log.Error("failed to subscribe to profile updates",
			slog.String("user_uid", userUID), sl.Err(err))
	}

	go func() {
		complete := g.profiles.FetchInitial(ctx, userUID)
		g.send(ctx, event{kind: profileResolved, epoch: epoch, complete: complete})
	}()
}

// compute выводит решение из текущих входов. Порядок старшинства:
// начальное окно Loading, затем устаревшая версия, затем наличие сессии.
func (g *Gate) compute() models.AccessDecision {
	if !g.initialDone {
		return models.AccessDecision{Mode: models.ModeLoading}
	}
	if g.versionStatus.Outdated {
		return models.AccessDecision{
			Mode:      models.ModeUpdateRequired,
			UpdateURL: g.versionStatus.UpdateURL,
		}
	}
	if g.session == nil {
		return models.AccessDecision{Mode: models.ModeUnauthenticated}
	}
	if !g.profileReady {
		return models.AccessDecision{Mode: models.ModeLoading}
	}

	userRole := g.roles.Resolve(g.session.Email)
	complete := g.profileComplete
	if userRole == models.RoleAdmin {
		// Администратор не гейтится заполненностью профиля
		complete = true
	}
	return models.AccessDecision{
		Mode:            models.ModeAuthenticated,
		Role:            userRole,
		ProfileComplete: complete,
		UserUID:         g.session.UserUID,
		UserEmail:       g.session.Email,
	}
}

func (g *Gate) publish() {
	decision := g.compute()

	g.mu.Lock()
	changed := decision != g.decision
	g.decision = decision
	listeners := g.listeners
	g.mu.Unlock()

	if !changed {
		return
	}
	metrics.DecisionTransitions.WithLabelValues(string(decision.Mode)).Inc()
	g.log.Info("access decision changed", slog.String("mode", string(decision.Mode)))
	for _, fn := range listeners {
		fn(decision)
	}
}
