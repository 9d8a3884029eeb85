package ioscratch

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/gnames/gnflore/pkg/scratch"
	"github.com/gnames/gnsys"
	_ "modernc.org/sqlite"
)

// SQLite keeps values in a single table of a run-scoped database file.
type SQLite struct {
	dir string
	db  *sql.DB
}

// NewSQLite creates scratch.sqlite in dir.
func NewSQLite(dir string) (*SQLite, error) {
	if err := gnsys.MakeDir(dir); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "scratch.sqlite"))
	if err != nil {
		return nil, err
	}
	// concurrent writers on separate connections get 'database is locked'
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scratch (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{dir: dir, db: db}, nil
}

func (s *SQLite) Put(ctx context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scratch (key, data) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data`,
		key, data,
	)
	return err
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var res []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM scratch WHERE key = ?`, key,
	).Scan(&res)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scratch.ErrNotFound
	}
	return res, err
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scratch WHERE key = ?`, key)
	return err
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM scratch WHERE substr(key, 1, ?) = ? ORDER BY key`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

// Close closes the database and removes its directory.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return err
	}
	return os.RemoveAll(s.dir)
}
