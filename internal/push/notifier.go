// Package push связывает гейткипер с внешней подсистемой push-уведомлений.
// При появлении сессии установка ассоциируется с пользователем, при
// завершении — ассоциация снимается. Вызовы выполняются по принципу
// fire-and-forget: их сбои не влияют на состояние гейткипера.
package push

import "context"

// Notifier описывает контракт подсистемы push-уведомлений.
type Notifier interface {
	// Associate связывает установку с пользователем.
	Associate(ctx context.Context, userUID string) error
	// Disassociate снимает связь установки с пользователем.
	Disassociate(ctx context.Context) error
}

// Noop реализация Notifier, ничего не делающая. Используется в тестах
// и при запуске без брокера.
type Noop struct{}

// Associate не делает ничего.
func (Noop) Associate(_ context.Context, _ string) error { return nil }

// Disassociate не делает ничего.
func (Noop) Disassociate(_ context.Context) error { return nil }
