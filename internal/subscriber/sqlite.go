package subscriber

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"CryptoSignal/internal/logger"
	"CryptoSignal/internal/model"
)

// SQLiteStore persists subscribers to a SQLite database so they survive restarts.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger.Component("subscriber")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("sqlite subscriber store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			chat_id       INTEGER PRIMARY KEY,
			username      TEXT NOT NULL DEFAULT '',
			subscribed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_at ON subscribers(subscribed_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Add(sub model.Subscriber) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	res, err := s.db.Exec(`INSERT INTO subscribers (chat_id, username, subscribed_at)
		VALUES (?,?,?) ON CONFLICT(chat_id) DO NOTHING`,
		sub.ChatID, sub.Username, sub.SubscribedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("insert subscriber %d: %w", sub.ChatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Remove(chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM subscribers WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, fmt.Errorf("delete subscriber %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) List() ([]model.Subscriber, error) {
	rows, err := s.db.Query(`SELECT chat_id, username, subscribed_at FROM subscribers
		ORDER BY subscribed_at, chat_id`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var out []model.Subscriber
	for rows.Next() {
		var (
			sub model.Subscriber
			at  int64
		)
		if err := rows.Scan(&sub.ChatID, &sub.Username, &at); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.SubscribedAt = time.Unix(0, at)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM subscribers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("closing sqlite subscriber store")
	return s.db.Close()
}
