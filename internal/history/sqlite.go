package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is an embedded row store keyed by (book, chapter). Each Update
// touches a single row, so a crash mid-run cannot drop other records.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	book       TEXT    NOT NULL,
	chapter    INTEGER NOT NULL,
	file_name  TEXT    NOT NULL,
	size_mb    REAL    NOT NULL DEFAULT 0,
	created_at TEXT    NOT NULL DEFAULT '',
	uploaded   INTEGER NOT NULL DEFAULT 0,
	video_id   TEXT    NOT NULL DEFAULT '',
	UNIQUE (book, chapter)
);`

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT book, chapter, file_name, size_mb, created_at, uploaded, video_id
FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Book, &r.Chapter, &r.FileName, &r.SizeMB, &r.CreatedAt, &r.Uploaded, &r.VideoID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Append(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range records {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM records WHERE book = ? AND chapter = ?`, r.Book, r.Chapter,
		).Scan(&count); err != nil {
			return fmt.Errorf("check record: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%s chapter %d: %w", r.Book, r.Chapter, ErrDuplicateRecord)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO records (book, chapter, file_name, size_mb, created_at, uploaded, video_id)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Book, r.Chapter, r.FileName, r.SizeMB, r.CreatedAt, r.Uploaded, r.VideoID,
		); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, record Record) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE records
SET file_name = ?, size_mb = ?, created_at = ?, uploaded = ?, video_id = ?
WHERE book = ? AND chapter = ?`,
		record.FileName, record.SizeMB, record.CreatedAt, record.Uploaded, record.VideoID,
		record.Book, record.Chapter,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s chapter %d: %w", record.Book, record.Chapter, ErrRecordNotFound)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
