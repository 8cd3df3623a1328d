package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"robocmd/pkg/logx"
)

//go:embed schema.sql
var schemaSQL string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	for _, pragma := range []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn("sqlite pragma failed", logx.String("pragma", pragma), logx.Err(err))
		}
	}

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("journal opened", logx.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendLifecycle(ctx context.Context, e LifecycleEntry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lifecycle(at, type, episode, command, interruptible, requirements, reason, by_command, tick, ticks, took_ms)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.At.UTC().Format(time.RFC3339Nano), e.Type, nullStr(e.Episode), e.Command, e.Interruptible,
		nullStr(strings.Join(e.Requirements, ",")), nullStr(e.Reason), nullStr(e.By),
		int64(e.Tick), int64(e.Ticks), e.TookMS,
	)
	if err != nil {
		return fmt.Errorf("append lifecycle: %w", err)
	}
	return nil
}

func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]LifecycleEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = -1 // no LIMIT in sqlite
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, type, episode, command, interruptible, requirements, reason, by_command, tick, ticks, took_ms
		 FROM lifecycle ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query lifecycle: %w", err)
	}
	defer rows.Close()

	var out []LifecycleEntry
	for rows.Next() {
		var (
			e                         LifecycleEntry
			at                        string
			episode, reqs, reason, by sql.NullString
			tick, ticks               int64
		)
		if err := rows.Scan(&at, &e.Type, &episode, &e.Command, &e.Interruptible, &reqs, &reason, &by, &tick, &ticks, &e.TookMS); err != nil {
			return nil, fmt.Errorf("scan lifecycle: %w", err)
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.Episode = episode.String
		if reqs.String != "" {
			e.Requirements = strings.Split(reqs.String, ",")
		}
		e.Reason = reason.String
		e.By = by.String
		e.Tick = uint64(tick)
		e.Ticks = uint64(ticks)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read lifecycle: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
