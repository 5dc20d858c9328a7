package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/auth"
)

const findAPIKeyByHashSQL = `SELECT id, key_hash, name, scopes
	FROM api_keys WHERE key_hash = $1 AND active = TRUE`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash returns the active key matching the HMAC hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	rows, err := r.pool.Query(ctx, findAPIKeyByHashSQL, hash)
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}

	info, err := pgx.CollectExactlyOneRow(rows, scanAPIKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return &info, nil
}

func scanAPIKey(row pgx.CollectableRow) (auth.APIKeyInfo, error) {
	var info auth.APIKeyInfo
	err := row.Scan(&info.ID, &info.KeyHash, &info.Name, &info.Scopes)
	return info, err
}
