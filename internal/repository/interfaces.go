package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// IdentityRepositoryInterface defines operations for enrolled identity storage.
// List returns identities in insertion order, which is the gallery order.
type IdentityRepositoryInterface interface {
	Create(ctx context.Context, identity *domain.Identity) error
	Save(ctx context.Context, identity *domain.Identity) error
	Get(ctx context.Context, label string) (*domain.Identity, error)
	List(ctx context.Context) ([]domain.Identity, error)
	Delete(ctx context.Context, label string) error
	Ping(ctx context.Context) error
}

var (
	_ IdentityRepositoryInterface = (*IdentityRepository)(nil)
	_ IdentityRepositoryInterface = (*FileRepository)(nil)
)
