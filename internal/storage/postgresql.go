// Package storage реализует хранилище данных на основе PostgreSQL
// для гейткипера: чтение профилей пользователей и единственной
// записи конфигурации версий приложения. Гейткипер только читает —
// записи выполняет бекенд.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sidequest-campus/gatekeeper/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// GetProfile возвращает строку профиля по идентификатору пользователя.
// Если профиль еще не создан, возвращает (nil, nil).
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.ProfileRow, error) {
	const op = "storage.GetProfile"

	query := `SELECT user_uid, full_name, phone, id_card_url, is_email_verified
			  FROM profiles
			  WHERE user_uid = $1`
	var row models.ProfileRow
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&row.UserUID,
		&row.FullName,
		&row.Phone,
		&row.IDCardURL,
		&row.IsEmailVerified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &row, nil
}

// GetAppConfig возвращает единственную запись конфигурации версий.
// Если запись отсутствует, возвращает (nil, nil).
func (s *Storage) GetAppConfig(ctx context.Context) (*models.AppVersionConfig, error) {
	const op = "storage.GetAppConfig"

	query := `SELECT latest_version, update_url FROM app_config LIMIT 1`
	var cfg models.AppVersionConfig
	err := s.DB.QueryRowContext(ctx, query).Scan(&cfg.LatestVersion, &cfg.UpdateURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Close закрывает соединение с базой данных.
func (s *Storage) Close() error {
	return s.DB.Close()
}
