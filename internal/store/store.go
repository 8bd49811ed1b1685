// Package store writes mapped rows into PostgreSQL using the COPY protocol.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvmap/internal/config"
)

var (
	// ErrInvalidTable is returned when a COPY target has no table name or columns.
	ErrInvalidTable = errors.New("store: invalid copy target")

	// ErrRowWidth is returned when a row does not match the column list.
	ErrRowWidth = errors.New("store: row width does not match columns")
)

// Copier is the subset of a connection used for bulk loads.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store bulk-loads rows into PostgreSQL tables.
type Store struct {
	db     Copier
	logger *slog.Logger
}

// New returns a Store writing through db. A nil logger uses slog.Default.
func New(db Copier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Target names the table and columns a COPY writes to.
// Table may be schema-qualified ("staging.people").
type Target struct {
	Table   string
	Columns []string
}

func (t Target) validate() error {
	if strings.TrimSpace(t.Table) == "" {
		return fmt.Errorf("%w: table name is empty", ErrInvalidTable)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("%w: %s has no columns", ErrInvalidTable, t.Table)
	}
	return nil
}

func (t Target) identifier() pgx.Identifier {
	return pgx.Identifier(strings.Split(t.Table, "."))
}

// CopyRows writes rows with a single COPY and returns the number of rows
// written. Every row must have one value per column.
func (s *Store) CopyRows(ctx context.Context, target Target, rows [][]any) (int64, error) {
	if err := target.validate(); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if len(row) != len(target.Columns) {
			return 0, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(row), len(target.Columns))
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return s.copy(ctx, target, pgx.CopyFromRows(rows))
}

// CopyFunc streams rows from next into a single COPY. next returns a nil row
// and nil error at the end of data.
func (s *Store) CopyFunc(ctx context.Context, target Target, next func() ([]any, error)) (int64, error) {
	if err := target.validate(); err != nil {
		return 0, err
	}
	width := len(target.Columns)
	index := 0
	src := pgx.CopyFromFunc(func() ([]any, error) {
		row, err := next()
		if err != nil || row == nil {
			return row, err
		}
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, index, len(row), width)
		}
		index++
		return row, nil
	})
	return s.copy(ctx, target, src)
}

func (s *Store) copy(ctx context.Context, target Target, src pgx.CopyFromSource) (int64, error) {
	start := time.Now()
	n, err := s.db.CopyFrom(ctx, target.identifier(), target.Columns, src)
	if err != nil {
		s.logger.Warn("copy failed", "table", target.Table, "rows", n, "error", err)
		return n, fmt.Errorf("store: copy into %s: %w", target.Table, err)
	}
	s.logger.Debug("copy complete", "table", target.Table, "rows", n, "duration", time.Since(start))
	return n, nil
}

// Connect parses cfg.URL, applies the pool limits from cfg and verifies the
// connection with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}

// PostgreSQL error codes checked by callers.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeUndefinedTable      = "42P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsUndefinedTable reports whether err says the target table does not exist.
func IsUndefinedTable(err error) bool {
	return hasCode(err, codeUndefinedTable)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
