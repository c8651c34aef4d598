package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockplan/internal/common"
	"stockplan/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DemandRepository interface {
	Create(ctx context.Context, demand *models.DemandRecord) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.DemandRecord, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.DemandRecord, error)
	ListWithinHorizon(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DemandRecord, error)
	ListByMaterialWithinHorizon(ctx context.Context, tenantID, materialID uuid.UUID, from, to time.Time) ([]*models.DemandRecord, error)
}

type demandRepo struct {
	db Database
}

func NewDemandRepo(db Database) DemandRepository {
	return &demandRepo{db: db}
}

const demandColumns = `id, tenant_id, material_id, quantity, need_date, source_type, source_id,
		priority, created_at`

func scanDemand(row pgx.Row) (*models.DemandRecord, error) {
	d := &models.DemandRecord{}
	err := row.Scan(&d.ID, &d.TenantID, &d.MaterialID, &d.Quantity, &d.NeedDate, &d.SourceType,
		&d.SourceID, &d.Priority, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *demandRepo) Create(ctx context.Context, demand *models.DemandRecord) error {
	query := `
		INSERT INTO demand_records (id, tenant_id, material_id, quantity, need_date, source_type,
			source_id, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, demand.ID, demand.TenantID, demand.MaterialID, demand.Quantity,
		demand.NeedDate, demand.SourceType, demand.SourceID, demand.Priority)
	return err
}

func (r *demandRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.DemandRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM demand_records WHERE tenant_id = $1 AND id = $2`, demandColumns)
	d, err := scanDemand(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "demand record", ID: id.String()}
	}
	return d, err
}

func (r *demandRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM demand_records WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *demandRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.DemandRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM demand_records
		WHERE tenant_id = $1
		ORDER BY need_date
		LIMIT $2 OFFSET $3
	`, demandColumns)
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDemands(rows)
}

func (r *demandRepo) ListWithinHorizon(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DemandRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM demand_records
		WHERE tenant_id = $1 AND need_date >= $2 AND need_date <= $3
		ORDER BY material_id, need_date
	`, demandColumns)
	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDemands(rows)
}

func (r *demandRepo) ListByMaterialWithinHorizon(ctx context.Context, tenantID, materialID uuid.UUID, from, to time.Time) ([]*models.DemandRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM demand_records
		WHERE tenant_id = $1 AND material_id = $2 AND need_date >= $3 AND need_date <= $4
		ORDER BY need_date
	`, demandColumns)
	rows, err := r.db.Query(ctx, query, tenantID, materialID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDemands(rows)
}

func collectDemands(rows pgx.Rows) ([]*models.DemandRecord, error) {
	var demands []*models.DemandRecord
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		demands = append(demands, d)
	}
	return demands, rows.Err()
}
