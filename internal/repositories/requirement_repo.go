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

type RequirementRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, requirement *models.MaterialRequirement) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaterialRequirement, error)
	ListByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*models.MaterialRequirement, error)
	ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialRequirement, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status models.RequirementStatus, limit, offset int) ([]*models.MaterialRequirement, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.RequirementStatus, sourceID *uuid.UUID) error
	SupersedeForMaterial(ctx context.Context, tx pgx.Tx, tenantID, materialID uuid.UUID, horizonEnd time.Time) error
}

type requirementRepo struct {
	db Database
}

func NewRequirementRepo(db Database) RequirementRepository {
	return &requirementRepo{db: db}
}

const requirementColumns = `id, tenant_id, run_id, material_id, requirement_date, required_quantity,
		available_quantity, net_requirement, planned_order_qty, planned_release_date, source_type,
		source_id, priority, status, lead_time_days, safety_stock, economic_order_qty,
		created_at, updated_at`

func scanRequirement(row pgx.Row) (*models.MaterialRequirement, error) {
	q := &models.MaterialRequirement{}
	err := row.Scan(&q.ID, &q.TenantID, &q.RunID, &q.MaterialID, &q.RequirementDate,
		&q.RequiredQuantity, &q.AvailableQuantity, &q.NetRequirement, &q.PlannedOrderQty,
		&q.PlannedReleaseDate, &q.SourceType, &q.SourceID, &q.Priority, &q.Status,
		&q.LeadTimeDays, &q.SafetyStock, &q.EconomicOrderQty, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CreateTx writes a requirement inside a planning run's per-material
// transaction so a failing material leaves no partial buckets behind.
func (r *requirementRepo) CreateTx(ctx context.Context, tx pgx.Tx, requirement *models.MaterialRequirement) error {
	query := `
		INSERT INTO material_requirements (id, tenant_id, run_id, material_id, requirement_date,
			required_quantity, available_quantity, net_requirement, planned_order_qty,
			planned_release_date, source_type, source_id, priority, status, lead_time_days,
			safety_stock, economic_order_qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
	`
	_, err := tx.Exec(ctx, query, requirement.ID, requirement.TenantID, requirement.RunID,
		requirement.MaterialID, requirement.RequirementDate, requirement.RequiredQuantity,
		requirement.AvailableQuantity, requirement.NetRequirement, requirement.PlannedOrderQty,
		requirement.PlannedReleaseDate, requirement.SourceType, requirement.SourceID,
		requirement.Priority, requirement.Status, requirement.LeadTimeDays, requirement.SafetyStock,
		requirement.EconomicOrderQty)
	return err
}

func (r *requirementRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaterialRequirement, error) {
	query := fmt.Sprintf(`SELECT %s FROM material_requirements WHERE tenant_id = $1 AND id = $2`, requirementColumns)
	q, err := scanRequirement(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "material requirement", ID: id.String()}
	}
	return q, err
}

func (r *requirementRepo) ListByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*models.MaterialRequirement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM material_requirements
		WHERE tenant_id = $1 AND run_id = $2
		ORDER BY material_id, requirement_date
	`, requirementColumns)
	rows, err := r.db.Query(ctx, query, tenantID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequirements(rows)
}

func (r *requirementRepo) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialRequirement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM material_requirements
		WHERE tenant_id = $1 AND material_id = $2
		ORDER BY requirement_date DESC
		LIMIT $3 OFFSET $4
	`, requirementColumns)
	rows, err := r.db.Query(ctx, query, tenantID, materialID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequirements(rows)
}

func (r *requirementRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status models.RequirementStatus, limit, offset int) ([]*models.MaterialRequirement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM material_requirements
		WHERE tenant_id = $1 AND status = $2
		ORDER BY priority DESC, requirement_date ASC
		LIMIT $3 OFFSET $4
	`, requirementColumns)
	rows, err := r.db.Query(ctx, query, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequirements(rows)
}

func (r *requirementRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.RequirementStatus, sourceID *uuid.UUID) error {
	query := `
		UPDATE material_requirements
		SET status = $1, source_id = COALESCE($2, source_id), updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4
	`
	tag, err := r.db.Exec(ctx, query, status, sourceID, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.NotFoundError{Resource: "material requirement", ID: id.String()}
	}
	return nil
}

// SupersedeForMaterial cancels a material's still-planned requirements
// inside the same transaction that writes the new run's records.
// Requirements are never deleted, only superseded.
func (r *requirementRepo) SupersedeForMaterial(ctx context.Context, tx pgx.Tx, tenantID, materialID uuid.UUID, horizonEnd time.Time) error {
	query := `
		UPDATE material_requirements
		SET status = 'cancelled', updated_at = NOW()
		WHERE tenant_id = $1 AND material_id = $2 AND status = 'planned'
			AND requirement_date <= $3
	`
	_, err := tx.Exec(ctx, query, tenantID, materialID, horizonEnd)
	return err
}

func collectRequirements(rows pgx.Rows) ([]*models.MaterialRequirement, error) {
	var requirements []*models.MaterialRequirement
	for rows.Next() {
		q, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, q)
	}
	return requirements, rows.Err()
}
