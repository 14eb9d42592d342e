package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/version"
)

// Sink keeps every discovered version in a SQLite table, one row per (asset, version)
type Sink struct {
	db *sql.DB
}

var _ version.Sink = (*Sink)(nil)

// Open creates (or reuses) the database at path and makes sure the schema is there
func Open(path string) (*Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Persist is always called under the store lock, so one connection is plenty
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	sink := &Sink{db: db}
	if err := sink.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

func (s *Sink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Sink) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS asset_versions (
        asset_id INTEGER NOT NULL,
        version INTEGER NOT NULL,
        date TEXT NOT NULL,
        PRIMARY KEY (asset_id, version)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Persist upserts every record of the collection in a single transaction
func (s *Sink) Persist(ctx context.Context, collection asset.Collection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO asset_versions(asset_id, version, date)
VALUES(?, ?, ?)
ON CONFLICT(asset_id, version) DO UPDATE SET
        date=excluded.date
`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range collection.Versions {
		if _, err := stmt.ExecContext(ctx, int64(collection.AssetId), int64(r.Version), string(r.Date)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert version %d of asset %d: %w", r.Version, collection.AssetId, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit versions of asset %d: %w", collection.AssetId, err)
	}
	return nil
}

// Load reads back everything stored for the given asset, in version order
func (s *Sink) Load(ctx context.Context, assetId asset.Id) (asset.Collection, error) {
	collection := asset.NewCollection(assetId)
	rows, err := s.db.QueryContext(ctx, `SELECT version, date FROM asset_versions WHERE asset_id = ? ORDER BY version`, int64(assetId))
	if err != nil {
		return collection, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v    int64
			date string
		)
		if scanErr := rows.Scan(&v, &date); scanErr != nil {
			return collection, fmt.Errorf("scan version: %w", scanErr)
		}
		collection.Upsert(asset.Record{Version: asset.VersionNumber(v), Date: asset.Date(date)})
	}
	if err := rows.Err(); err != nil {
		return collection, fmt.Errorf("iterate versions: %w", err)
	}
	return collection, nil
}
