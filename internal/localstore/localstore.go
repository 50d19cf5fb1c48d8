// Package localstore постоянное локальное хранилище ключ-значение агента.
// Значения хранятся в JSON в SQLite-файле и переживают перезапуск процесса.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	// Регистрация драйвера sqlite3 для database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/idleforest/idleforest/internal/lib/sl"
)

// Ключи, которые читают и пишут разные части агента.
const (
	KeyLastSync       = "last_supabase_sync"
	KeyLifetimeCount  = "lifetime_total_count_m"
	KeySession        = "session"
	KeyInstallTime    = "install_timestamp"
	KeyReferralCode   = "referralCode"
	KeyOptIn          = "mellowtelOptIn"
	KeySpeedMbps      = "speedMbps"
	KeyHelpTasks      = "idleforest_help_tasks"
	KeyNodeIdentifier = "node_identifier"
)

// TimeLayout формат отметок времени: ISO-8601 с миллисекундами в UTC.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Store хранилище ключ-значение поверх SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open открывает (или создаёт) файл хранилища по пути path.
func Open(path string, log *slog.Logger) (*Store, error) {
	const op = "localstore.Open"

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// SQLite не допускает параллельной записи.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{db: db, log: log.With(slog.String("component", "localstore"))}, nil
}

// Close закрывает файл хранилища.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get читает значение key в dst.
// Отсутствующий ключ и значение, которое не удалось разобрать, дают found=false без ошибки.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	const op = "localstore.Get"

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn("stored value is corrupt, treating as absent",
			slog.String("key", key), sl.Err(err))
		return false, nil
	}
	return true, nil
}

// Set сохраняет значение value под ключом key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	const op = "localstore.Set"

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remove удаляет ключ. Удаление отсутствующего ключа не ошибка.
func (s *Store) Remove(ctx context.Context, key string) error {
	const op = "localstore.Remove"
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetString читает строковое значение.
func (s *Store) GetString(ctx context.Context, key string) (string, bool, error) {
	var v string
	found, err := s.Get(ctx, key, &v)
	return v, found, err
}

// GetInt64 читает числовое значение. Дробная часть отбрасывается:
// счётчики SDK пишутся как произвольные JSON-числа.
func (s *Store) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	var v float64
	found, err := s.Get(ctx, key, &v)
	if err != nil || !found {
		return 0, found, err
	}
	return int64(math.Floor(v)), true, nil
}

// GetTime читает отметку времени, сохранённую SetTime.
// Строка в другом формате считается отсутствующим значением.
func (s *Store) GetTime(ctx context.Context, key string) (time.Time, bool, error) {
	raw, found, err := s.GetString(ctx, key)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.log.Warn("stored timestamp is corrupt, treating as absent",
			slog.String("key", key), sl.Err(err))
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// SetTime сохраняет отметку времени строкой ISO-8601.
func (s *Store) SetTime(ctx context.Context, key string, t time.Time) error {
	return s.Set(ctx, key, t.UTC().Format(TimeLayout))
}
