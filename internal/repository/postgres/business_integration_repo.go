// internal/repository/postgres/business_integration_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"tafiti-service/internal/domain/business"
	xerrors "tafiti-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type BusinessIntegrationRepository struct {
	db *DB
}

func NewBusinessIntegrationRepository(db *DB) *BusinessIntegrationRepository {
	return &BusinessIntegrationRepository{db: db}
}

func (r *BusinessIntegrationRepository) Create(ctx context.Context, i *business.Integration) error {
	query := `
		INSERT INTO business_integrations (
			tenant_id, survey_ref, name, secret_hash, short_codes, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(
		ctx, query,
		i.TenantID, i.SurveyRef, i.Name, i.SecretHash, i.ShortCodes, i.Status,
	).Scan(&i.ID, &i.CreatedAt)

	if isUniqueViolation(err) {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	return nil
}

func (r *BusinessIntegrationRepository) FindByID(ctx context.Context, id int64) (*business.Integration, error) {
	query := `
		SELECT id, tenant_id, survey_ref, name, secret_hash, short_codes, status, created_at
		FROM business_integrations
		WHERE id = $1
	`
	var i business.Integration
	err := r.db.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.TenantID, &i.SurveyRef, &i.Name, &i.SecretHash, &i.ShortCodes, &i.Status, &i.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find integration: %w", err)
	}
	return &i, nil
}
