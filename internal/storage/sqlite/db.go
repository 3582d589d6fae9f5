package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

//go:embed index_migrations/*.sql
var embedIndexMigrations embed.FS

// sqlite-vec registers itself on every connection opened through go-sqlite3.
func init() {
	sqlite_vec.Auto()
}

// goose keeps its base FS and logger in package globals.
var migrateMu sync.Mutex

const dsnParams = "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

// NewDB opens the relational store and applies its migrations.
func NewDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	return open(ctx, dbPath, embedMigrations, "migrations")
}

// NewIndexDB opens a vector index file and applies the index schema.
func NewIndexDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	return open(ctx, dbPath, embedIndexMigrations, "index_migrations")
}

func open(ctx context.Context, dbPath string, fsys fs.FS, dir string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer per file
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db, fsys, dir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(log.NewMigrationLogger(ctx, dir))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}
