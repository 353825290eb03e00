package history

import (
	"context"
	"path/filepath"
	"strings"
)

// Open picks the backend from the file extension: .db, .sqlite and .sqlite3
// open a SQLiteStore, anything else a FileStore.
func Open(ctx context.Context, path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(ctx, path)
	default:
		return NewFileStore(path), nil
	}
}
