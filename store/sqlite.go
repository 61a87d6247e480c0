package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"webdesk/desktop"
)

// SQLStore keeps the snapshot in a SQLite database.
type SQLStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; avoids SQLITE_BUSY between the saver and settings writes.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}
	return s, nil
}

func (s *SQLStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS file_system (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLStore) LoadSnapshot(ctx context.Context) (*desktop.Entity, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM file_system WHERE id = ?`, string(snapshotKey)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return Decode(data)
}

func (s *SQLStore) SaveSnapshot(ctx context.Context, root *desktop.Entity) error {
	data, err := Encode(root)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO file_system (id, data) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, string(snapshotKey), data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) Settings(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	stored := Settings{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		stored[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return withDefaults(stored), nil
}

func (s *SQLStore) PutSetting(ctx context.Context, key string, value json.RawMessage) error {
	if err := checkSetting(key, value); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
