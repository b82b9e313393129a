package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository stores the lookup journal in PostgreSQL.
type Repository struct {
	db  Database
	log *slog.Logger
}

// Database is the subset of *pgxpool.Pool the repository uses.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

type Interface interface {
	RecordLookup(ctx context.Context, entry models.LookupEntry) error
	RecentLookups(ctx context.Context, limit int) ([]models.LookupEntry, error)
	Ping(ctx context.Context) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
