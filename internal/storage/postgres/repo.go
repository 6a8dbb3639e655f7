// Package postgres implements the Postgres sink used by cmd/csvload. It
// streams parsed rows into the target table with COPY, batching to
// bound memory; the ingestion core itself owns no persisted state.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres sink configuration.
type Config struct {
	// DSN is the connection string for pgxpool.
	DSN string

	// Table is the fully qualified target table name, e.g. "public.skus".
	Table string

	// Columns enumerates the destination columns in COPY order.
	Columns []string
}

// Repository is a Postgres-backed row sink.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a close function
// for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if cfg.Table == "" {
		return nil, nil, fmt.Errorf("postgres: table is required")
	}
	if len(cfg.Columns) == 0 {
		return nil, nil, fmt.Errorf("postgres: at least one column is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, func() { pool.Close() }, nil
}

// EnsureTable creates the target table when absent, with one text
// column per configured destination column. Loads that need real types
// should create the table themselves first.
func (r *Repository) EnsureTable(ctx context.Context) error {
	cols := make([]string, len(r.cfg.Columns))
	for i, c := range r.cfg.Columns {
		cols[i] = pgIdent(c) + " text"
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pgFQN(r.cfg.Table), strings.Join(cols, ", "))
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", r.cfg.Table, err)
	}
	return nil
}

// CopyRows COPYs one batch into the target table and returns the number
// of rows written.
func (r *Repository) CopyRows(ctx context.Context, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx,
		tableIdentifier(r.cfg.Table),
		r.cfg.Columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", r.cfg.Table, err)
	}
	return n, nil
}

// CopyFn abstracts the COPY call so batching can be tested without a
// database.
type CopyFn func(ctx context.Context, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of
// batchSize, and invokes copyFn per non-empty batch. It returns the
// total rows reported by copyFn and the first error encountered. It
// never buffers more than one batch plus the channel's pending items.
func LoadBatches(ctx context.Context, in <-chan []any, batchSize int, copyFn CopyFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total int64
		batch = make([][]any, 0, batchSize)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, batch)
		total += n
		batch = batch[:0]
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// tableIdentifier splits a possibly schema-qualified name into a pgx
// identifier.
func tableIdentifier(table string) pgx.Identifier {
	parts := strings.Split(table, ".")
	return pgx.Identifier(parts)
}

// pgIdent quotes a single identifier.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// pgFQN quotes a possibly schema-qualified table name.
func pgFQN(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}
