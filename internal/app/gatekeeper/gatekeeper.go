// Package gatekeeper собирает приложение: хранилище, realtime-подписки,
// клиент аутентификации, push-подсистему, оркестратор доступа и HTTP-сервер.
package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/streadway/amqp"

	authclient "github.com/sidequest-campus/gatekeeper/internal/clients/auth"
	"github.com/sidequest-campus/gatekeeper/internal/config"
	jwtlib "github.com/sidequest-campus/gatekeeper/internal/lib/jwt"
	"github.com/sidequest-campus/gatekeeper/internal/lib/sl"
	"github.com/sidequest-campus/gatekeeper/internal/migrations"
	"github.com/sidequest-campus/gatekeeper/internal/push"
	"github.com/sidequest-campus/gatekeeper/internal/rabbitmq"
	"github.com/sidequest-campus/gatekeeper/internal/realtime"
	gateservice "github.com/sidequest-campus/gatekeeper/internal/services/gate"
	"github.com/sidequest-campus/gatekeeper/internal/services/profile"
	"github.com/sidequest-campus/gatekeeper/internal/services/role"
	"github.com/sidequest-campus/gatekeeper/internal/services/session"
	"github.com/sidequest-campus/gatekeeper/internal/services/versiongate"
	"github.com/sidequest-campus/gatekeeper/internal/storage"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	gate   *gateservice.Gate
	db     *storage.Storage
	rdb    *redis.Client
	broker *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	rdb, err := realtime.InitRedis(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Недоступность брокера не мешает запуску: push-ассоциации
	// деградируют до заглушки, решения о доступе не зависят от них
	var notifier push.Notifier = push.Noop{}
	var broker *amqp.Connection
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		logger.Error("failed to connect to push broker, associations disabled", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetPushQueues())
		if err != nil {
			logger.Error("failed to set up push broker channel, associations disabled", sl.Err(err))
			_ = conn.Close()
		} else {
			notifier = push.NewPublisher(ch, cfg.InstallationID)
			broker = conn
		}
	}

	tokenMaker := jwtlib.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	backend := authclient.New(rdb, tokenMaker, cfg.InstallationID, logger)

	sessionStore := session.New(backend, notifier, logger)
	versionGate := versiongate.New(db, cfg.AppVersion, logger)
	tracker := profile.New(db, realtime.NewClient(rdb, logger), logger)
	roles := role.New(cfg.AdminEmails)

	gate := gateservice.New(versionGate, sessionStore, tracker, roles, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, gate)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		gate:   gate,
		db:     db,
		rdb:    rdb,
		broker: broker,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := a.gate.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.broker != nil {
			_ = a.broker.Close()
		}
		_ = a.rdb.Close()
		_ = a.db.Close()
		return err
	}
}
