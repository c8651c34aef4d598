package repositories

import (
	"context"
	"errors"
	"fmt"

	"stockplan/internal/common"
	"stockplan/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ValuationRepository interface {
	Create(ctx context.Context, valuation *models.MaterialValuation) error
	GetActive(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error)
	DeactivateActive(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) error
	ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialValuation, error)
}

type valuationRepo struct {
	db Database
}

func NewValuationRepo(db Database) ValuationRepository {
	return &valuationRepo{db: db}
}

const valuationColumns = `id, tenant_id, material_id, method, valuation_date, unit_value,
		total_value, quantity_basis, currency, batch_lot_id, is_active, created_at`

func scanValuation(row pgx.Row) (*models.MaterialValuation, error) {
	v := &models.MaterialValuation{}
	err := row.Scan(&v.ID, &v.TenantID, &v.MaterialID, &v.Method, &v.ValuationDate, &v.UnitValue,
		&v.TotalValue, &v.QuantityBasis, &v.Currency, &v.BatchLotID, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *valuationRepo) Create(ctx context.Context, valuation *models.MaterialValuation) error {
	query := `
		INSERT INTO material_valuations (id, tenant_id, material_id, method, valuation_date,
			unit_value, total_value, quantity_basis, currency, batch_lot_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := r.db.Exec(ctx, query, valuation.ID, valuation.TenantID, valuation.MaterialID,
		valuation.Method, valuation.ValuationDate, valuation.UnitValue, valuation.TotalValue,
		valuation.QuantityBasis, valuation.Currency, valuation.BatchLotID, valuation.IsActive)
	return err
}

func (r *valuationRepo) GetActive(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM material_valuations
		WHERE tenant_id = $1 AND material_id = $2 AND method = $3 AND is_active = TRUE
		ORDER BY valuation_date DESC, created_at DESC
		LIMIT 1
	`, valuationColumns)
	v, err := scanValuation(r.db.QueryRow(ctx, query, tenantID, materialID, method))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "valuation", ID: materialID.String()}
	}
	return v, err
}

func (r *valuationRepo) DeactivateActive(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) error {
	query := `
		UPDATE material_valuations
		SET is_active = FALSE
		WHERE tenant_id = $1 AND material_id = $2 AND method = $3 AND is_active = TRUE
	`
	_, err := r.db.Exec(ctx, query, tenantID, materialID, method)
	return err
}

func (r *valuationRepo) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialValuation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM material_valuations
		WHERE tenant_id = $1 AND material_id = $2
		ORDER BY valuation_date DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`, valuationColumns)
	rows, err := r.db.Query(ctx, query, tenantID, materialID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var valuations []*models.MaterialValuation
	for rows.Next() {
		v, err := scanValuation(rows)
		if err != nil {
			return nil, err
		}
		valuations = append(valuations, v)
	}
	return valuations, rows.Err()
}
