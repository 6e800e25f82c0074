// Package versiongate реализует проверку версии приложения против
// удаленной конфигурации. Проверка выполняется один раз за запуск,
// результат фиксируется до перезапуска.
package versiongate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/metrics"
	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// ConfigProvider описывает контракт получения конфигурации версий.
type ConfigProvider interface {
	// GetAppConfig возвращает единственную запись конфигурации
	// или (nil, nil), если запись отсутствует.
	GetAppConfig(ctx context.Context) (*models.AppVersionConfig, error)
}

// Gate сравнивает встроенную версию приложения с удаленной.
type Gate struct {
	provider       ConfigProvider
	currentVersion string
	log            *slog.Logger

	once   sync.Once
	status models.VersionStatus
}

// New создает Gate для встроенной версии приложения.
func New(provider ConfigProvider, currentVersion string, log *slog.Logger) *Gate {
	return &Gate{
		provider:       provider,
		currentVersion: currentVersion,
		log:            log,
	}
}

// Check выполняет проверку версии. Версия считается устаревшей при любом
// точном несовпадении строк, включая «даунгрейд». Ошибка загрузки или
// отсутствие записи трактуются как актуальная версия (fail-open) и
// никогда не блокируют пользователя. Результат первого вызова
// фиксируется: повторные вызовы возвращают его без обращения к базе.
func (g *Gate) Check(ctx context.Context) models.VersionStatus {
	g.once.Do(func() {
		const op = "versiongate.Check"

		cfg, err := g.provider.GetAppConfig(ctx)
		if err != nil {
			metrics.VersionCheckFailures.Inc()
			g.log.Error("version check failed, treating version as up to date", slog.String("op", op), sl.Err(err))
			return
		}
		if cfg == nil {
			g.log.Warn("app config record is missing, treating version as up to date", slog.String("op", op))
			return
		}
		if cfg.LatestVersion != g.currentVersion {
			g.status = models.VersionStatus{
				Outdated:  true,
				UpdateURL: cfg.UpdateURL,
			}
			g.log.Info("app version is outdated",
				slog.String("current", g.currentVersion),
				slog.String("latest", cfg.LatestVersion))
		}
	})
	return g.status
}
