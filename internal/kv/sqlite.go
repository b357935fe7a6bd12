package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusdeck/internal/debug"

	_ "modernc.org/sqlite"
)

const sqliteStoreName = "state.sqlite"

// SQLiteStore keeps keys in a single table of a local SQLite database.
// Several processes may open the same file; WAL mode gives one writer and many readers.
type SQLiteStore struct {
	db   *sql.DB
	path string

	// PollInterval controls how often Watch checks the write counter.
	PollInterval time.Duration
}

// OpenSQLite opens (creating if needed) the store at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("kv: create dir: %w", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; keep a single one so they stick.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateKV(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: path, PollInterval: defaultPollRate}, nil
}

func migrateKV(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kv_meta (
			k TEXT PRIMARY KEY,
			v INTEGER NOT NULL
		);`,
		`INSERT OR IGNORE INTO kv_meta(k, v) VALUES('writes', 0);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(context.Background(), `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	return s.write(func(ctx context.Context, tx *sql.Tx) (bool, error) {
		var cur string
		err := tx.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&cur)
		if err == nil && cur == value {
			return false, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`,
			key, value, time.Now().UTC().UnixMilli())
		return err == nil, err
	})
}

func (s *SQLiteStore) Remove(key string) error {
	return s.write(func(ctx context.Context, tx *sql.Tx) (bool, error) {
		res, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
		if err != nil {
			return false, err
		}
		n, _ := res.RowsAffected()
		return n > 0, nil
	})
}

// write runs fn in a transaction and bumps the write counter when fn changed a row.
func (s *SQLiteStore) write(fn func(ctx context.Context, tx *sql.Tx) (bool, error)) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	changed, err := fn(ctx, tx)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE kv_meta SET v = v + 1 WHERE k = 'writes'`); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Snapshot() (map[string]string, error) {
	rows, err := s.db.QueryContext(context.Background(), `SELECT k, v FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) writeCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_meta WHERE k = 'writes'`).Scan(&n)
	return n, err
}

// Watch polls the write counter and diffs the table whenever it moves.
func (s *SQLiteStore) Watch(ctx context.Context) (<-chan Change, error) {
	last, err := s.writeCount(ctx)
	if err != nil {
		return nil, err
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollRate
	}
	trigger := make(chan struct{}, 1)
	go func() {
		defer close(trigger)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			n, err := s.writeCount(ctx)
			if err != nil {
				debug.Log("kv: sqlite write counter: %v", err)
				continue
			}
			if n == last {
				continue
			}
			last = n
			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}()
	return watchDiff(ctx, s, trigger), nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
