// Package catalog stores document inspection results in SQLite or Postgres.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical/mudoc/internal/domain"
	"github.com/spherical/mudoc/internal/observability"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store is a domain.Catalog backed by database/sql.
type Store struct {
	db  DB
	sql *sql.DB
	log *observability.Logger
}

var _ domain.Catalog = (*Store)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id             TEXT PRIMARY KEY,
		path           TEXT NOT NULL UNIQUE,
		page_count     INTEGER NOT NULL,
		needs_password BOOLEAN NOT NULL,
		reflowable     BOOLEAN NOT NULL,
		is_pdf         BOOLEAN NOT NULL,
		metadata       TEXT NOT NULL,
		first_page     TEXT,
		inspected_at   TIMESTAMP NOT NULL
	)
`

// Open connects to the catalog database and creates the schema if needed.
// driver is "sqlite" (or "sqlite3") or "postgres".
func Open(ctx context.Context, driver, dsn string, log *observability.Logger) (*Store, error) {
	name, err := sqlDriver(driver)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = observability.Nop()
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, domain.IOError("open catalog", err)
	}
	if name == "sqlite3" {
		// A single connection keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, sql: db, log: log.WithOperation("catalog")}
	if err := s.pingWithBackoff(ctx, DefaultRetryConfig(), db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Debug().Str("driver", name).Msg("catalog opened")
	return s, nil
}

// New wraps an existing connection. The caller owns db and must run Migrate.
func New(db DB, log *observability.Logger) *Store {
	if log == nil {
		log = observability.Nop()
	}
	return &Store{db: db, log: log.WithOperation("catalog")}
}

func sqlDriver(driver string) (string, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", domain.ConfigError("unsupported catalog driver: "+driver, nil)
	}
}

// Migrate creates the documents table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return domain.IOError("migrate catalog", err)
	}
	return nil
}

// Close closes the connection opened by Open.
func (s *Store) Close() error {
	if s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Save inserts or replaces the record for info.Path and sets info.ID.
func (s *Store) Save(ctx context.Context, info *domain.DocumentInfo) error {
	if info.Path == "" {
		return domain.InvalidInputError("catalog record needs a path", nil)
	}
	if info.InspectedAt.IsZero() {
		info.InspectedAt = time.Now()
	}

	meta, err := json.Marshal(info.Metadata)
	if err != nil {
		return domain.IOError("encode metadata", err)
	}
	var firstPage sql.NullString
	if info.FirstPage != nil {
		b, err := json.Marshal(info.FirstPage)
		if err != nil {
			return domain.IOError("encode page bounds", err)
		}
		firstPage = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO documents (id, path, page_count, needs_password, reflowable,
			is_pdf, metadata, first_page, inspected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (path) DO UPDATE SET
			page_count = excluded.page_count,
			needs_password = excluded.needs_password,
			reflowable = excluded.reflowable,
			is_pdf = excluded.is_pdf,
			metadata = excluded.metadata,
			first_page = excluded.first_page,
			inspected_at = excluded.inspected_at
		RETURNING id
	`
	var id string
	err = s.db.QueryRowContext(ctx, query,
		uuid.New().String(), info.Path, info.PageCount, info.NeedsPassword, info.Reflowable,
		info.IsPDF, string(meta), firstPage, info.InspectedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return domain.IOError(fmt.Sprintf("save %s", info.Path), err)
	}
	info.ID = id

	s.log.Debug().Str("id", id).Str("path", info.Path).Msg("record saved")
	return nil
}

const selectColumns = `
	SELECT id, path, page_count, needs_password, reflowable, is_pdf,
		metadata, first_page, inspected_at
	FROM documents
`

// GetByPath retrieves the record stored for path.
func (s *Store) GetByPath(ctx context.Context, path string) (*domain.DocumentInfo, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE path = $1", path)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, domain.IOError("get "+path, err)
	}
	return info, nil
}

// List returns all records ordered by path.
func (s *Store) List(ctx context.Context) ([]*domain.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY path")
	if err != nil {
		return nil, domain.IOError("list catalog", err)
	}
	defer rows.Close()

	var infos []*domain.DocumentInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, domain.IOError("scan catalog record", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IOError("list catalog", err)
	}
	return infos, nil
}

// Delete removes the record stored for path.
func (s *Store) Delete(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = $1`, path)
	if err != nil {
		return domain.IOError("delete "+path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.IOError("delete "+path, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.log.Debug().Str("path", path).Msg("record deleted")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (*domain.DocumentInfo, error) {
	info := &domain.DocumentInfo{}
	var meta string
	var firstPage sql.NullString

	err := row.Scan(
		&info.ID, &info.Path, &info.PageCount, &info.NeedsPassword, &info.Reflowable,
		&info.IsPDF, &meta, &firstPage, &info.InspectedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(meta), &info.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if firstPage.Valid {
		info.FirstPage = &domain.Rect{}
		if err := json.Unmarshal([]byte(firstPage.String), info.FirstPage); err != nil {
			return nil, fmt.Errorf("decode page bounds: %w", err)
		}
	}
	return info, nil
}
