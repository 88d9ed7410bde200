package queue

import (
	"context"
	"database/sql"
	"testing"

	"quaver/internal/config"
)

// Pragmas are carried in the DSN, so they must hold on every connection
// the pool hands out, not just the first one opened.
func TestOpenAppliesPragmasPerConnection(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StorageDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	conns := make([]*sql.Conn, 0, 3)
	t.Cleanup(func() {
		for _, conn := range conns {
			_ = conn.Close()
		}
	})

	// Holding the connections open forces the pool to dial new ones.
	for i := 0; i < 3; i++ {
		conn, err := store.db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn %d: %v", i, err)
		}
		conns = append(conns, conn)

		var foreignKeys int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
			t.Fatalf("query foreign_keys on connection %d: %v", i, err)
		}
		if foreignKeys != 1 {
			t.Fatalf("connection %d: foreign_keys = %d, want 1", i, foreignKeys)
		}

		var journalMode string
		if err := conn.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
			t.Fatalf("query journal_mode on connection %d: %v", i, err)
		}
		if journalMode != "wal" {
			t.Fatalf("connection %d: journal_mode = %q, want wal", i, journalMode)
		}
	}
}
