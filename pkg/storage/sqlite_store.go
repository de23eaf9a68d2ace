package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

const dayLayout = "2006-01-02"

// Store keeps daily menu click counters and runtime markers in an embedded
// SQLite database. Menu view state is never persisted; it lives on the
// message. It uses modernc.org/sqlite for CGO-less builds.
type Store struct {
	dbPath string
	db     *sql.DB
	now    func() time.Time
}

var _ menu.Recorder = (*Store)(nil)

// NewStore creates a new Store pointing to dbPath. Call Init() before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath, now: time.Now}
}

// Init opens the SQLite database, configures pragmas, and ensures the schema exists.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA synchronous=NORMAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS menu_transitions_daily (
            day TEXT NOT NULL,
            menu_type TEXT NOT NULL,
            emoji TEXT NOT NULL,
            outcome TEXT NOT NULL,
            count INTEGER NOT NULL DEFAULT 0,
            PRIMARY KEY (day, menu_type, emoji, outcome)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_menu_transitions_menu ON menu_transitions_daily(menu_type, day)`,
		`CREATE TABLE IF NOT EXISTS runtime_meta (
            key TEXT PRIMARY KEY,
            ts TIMESTAMP NOT NULL
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// TransitionCount is one row of the daily counters.
type TransitionCount struct {
	Day      string
	MenuType string
	Emoji    string
	Outcome  string
	Count    int64
}

// IncrementDailyMenuTransition adds one click to the counter of day.
func (s *Store) IncrementDailyMenuTransition(day time.Time, menuType, emojiName, outcome string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if menuType == "" {
		menuType = "unknown"
	}
	_, err := s.db.Exec(
		`INSERT INTO menu_transitions_daily (day, menu_type, emoji, outcome, count)
         VALUES (?, ?, ?, ?, 1)
         ON CONFLICT(day, menu_type, emoji, outcome) DO UPDATE SET count = count + 1`,
		day.UTC().Format(dayLayout), menuType, emojiName, outcome,
	)
	return err
}

// GetDailyMenuTransitions returns the counters of day, ordered by menu type,
// emoji and outcome.
func (s *Store) GetDailyMenuTransitions(day time.Time) ([]TransitionCount, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(
		`SELECT day, menu_type, emoji, outcome, count FROM menu_transitions_daily
         WHERE day=? ORDER BY menu_type, emoji, outcome`,
		day.UTC().Format(dayLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransitionCount
	for rows.Next() {
		var c TransitionCount
		if err := rows.Scan(&c.Day, &c.MenuType, &c.Emoji, &c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneDailyMenuTransitions deletes counters older than keep days before now.
func (s *Store) PruneDailyMenuTransitions(keep int) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	cutoff := s.now().UTC().AddDate(0, 0, -keep).Format(dayLayout)
	res, err := s.db.Exec(`DELETE FROM menu_transitions_daily WHERE day < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordTransition counts an engine outcome for today.
func (s *Store) RecordTransition(menuType, emojiName string, outcome menu.Outcome) {
	if err := s.IncrementDailyMenuTransition(s.now(), menuType, emojiName, outcome.String()); err != nil {
		slog.Warn("Failed to record menu transition", "menuType", menuType, "emoji", emojiName, "error", err)
	}
}

// SetHeartbeat stores the last time the bot was seen alive.
func (s *Store) SetHeartbeat(t time.Time) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	_, err := s.db.Exec(
		`INSERT INTO runtime_meta (key, ts) VALUES ('heartbeat', ?)
         ON CONFLICT(key) DO UPDATE SET ts=excluded.ts`,
		t.UTC(),
	)
	return err
}

// GetHeartbeat returns the stored heartbeat, ok=false when none was written.
func (s *Store) GetHeartbeat() (time.Time, bool, error) {
	if s.db == nil {
		return time.Time{}, false, fmt.Errorf("store not initialized")
	}
	var t time.Time
	err := s.db.QueryRow(`SELECT ts FROM runtime_meta WHERE key='heartbeat'`).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
