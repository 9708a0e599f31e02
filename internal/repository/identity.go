package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// IdentityRepository persists identities in PostgreSQL. Descriptors are stored as
// pgvector columns, so values round-trip at float32 precision.
type IdentityRepository struct {
	pool PgxPool
}

func NewIdentityRepository(pool PgxPool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Create inserts a new identity, failing with ErrIdentityExists on a taken label.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (label, descriptor, source_count, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	vec := pgvector.NewVector(identity.Descriptor.Float32())
	err := r.pool.QueryRow(ctx, query,
		identity.Label,
		&vec,
		identity.SourceCount,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdentityExists
		}
		return fmt.Errorf("create identity: %w", err)
	}

	return nil
}

// Save inserts or replaces the identity. A replaced identity keeps its position.
func (r *IdentityRepository) Save(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (label, descriptor, source_count, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (label) DO UPDATE SET
			descriptor = EXCLUDED.descriptor,
			source_count = EXCLUDED.source_count,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	vec := pgvector.NewVector(identity.Descriptor.Float32())
	err := r.pool.QueryRow(ctx, query,
		identity.Label,
		&vec,
		identity.SourceCount,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)

	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}

	return nil
}

func (r *IdentityRepository) Get(ctx context.Context, label string) (*domain.Identity, error) {
	query := `
		SELECT label, descriptor, source_count, created_at, updated_at
		FROM identities
		WHERE label = $1
	`

	var identity domain.Identity
	var descriptor *pgvector.Vector

	err := r.pool.QueryRow(ctx, query, label).Scan(
		&identity.Label,
		&descriptor,
		&identity.SourceCount,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	identity.Descriptor = toDescriptor(descriptor)
	return &identity, nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]domain.Identity, error) {
	query := `
		SELECT label, descriptor, source_count, created_at, updated_at
		FROM identities
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	identities := make([]domain.Identity, 0)
	for rows.Next() {
		var identity domain.Identity
		var descriptor *pgvector.Vector

		if err := rows.Scan(
			&identity.Label,
			&descriptor,
			&identity.SourceCount,
			&identity.CreatedAt,
			&identity.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}

		identity.Descriptor = toDescriptor(descriptor)
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, nil
}

func (r *IdentityRepository) Delete(ctx context.Context, label string) error {
	query := `
		DELETE FROM identities
		WHERE label = $1
	`

	result, err := r.pool.Exec(ctx, query, label)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}

	return nil
}

func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func toDescriptor(v *pgvector.Vector) domain.Descriptor {
	if v == nil || v.Slice() == nil {
		return nil
	}
	return domain.DescriptorFromFloat32(v.Slice())
}
