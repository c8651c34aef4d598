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

type MRPRunRepository interface {
	Create(ctx context.Context, run *models.MRPRun) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MRPRun, error)
	Update(ctx context.Context, run *models.MRPRun) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MRPRun, error)
}

type mrpRunRepo struct {
	db Database
}

func NewMRPRunRepo(db Database) MRPRunRepository {
	return &mrpRunRepo{db: db}
}

const runColumns = `id, tenant_id, run_code, status, horizon_days, started_at, completed_at,
		materials_planned, materials_skipped, requirements_created, error_message, created_at`

func scanRun(row pgx.Row) (*models.MRPRun, error) {
	run := &models.MRPRun{}
	err := row.Scan(&run.ID, &run.TenantID, &run.RunCode, &run.Status, &run.HorizonDays,
		&run.StartedAt, &run.CompletedAt, &run.MaterialsPlanned, &run.MaterialsSkipped,
		&run.RequirementsCreated, &run.ErrorMessage, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *mrpRunRepo) Create(ctx context.Context, run *models.MRPRun) error {
	query := `
		INSERT INTO mrp_runs (id, tenant_id, run_code, status, horizon_days, started_at,
			completed_at, materials_planned, materials_skipped, requirements_created,
			error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := r.db.Exec(ctx, query, run.ID, run.TenantID, run.RunCode, run.Status, run.HorizonDays,
		run.StartedAt, run.CompletedAt, run.MaterialsPlanned, run.MaterialsSkipped,
		run.RequirementsCreated, run.ErrorMessage)
	return err
}

func (r *mrpRunRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MRPRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM mrp_runs WHERE tenant_id = $1 AND id = $2`, runColumns)
	run, err := scanRun(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "planning run", ID: id.String()}
	}
	return run, err
}

func (r *mrpRunRepo) Update(ctx context.Context, run *models.MRPRun) error {
	query := `
		UPDATE mrp_runs
		SET status = $1, completed_at = $2, materials_planned = $3, materials_skipped = $4,
			requirements_created = $5, error_message = $6
		WHERE tenant_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, run.Status, run.CompletedAt, run.MaterialsPlanned,
		run.MaterialsSkipped, run.RequirementsCreated, run.ErrorMessage, run.TenantID, run.ID)
	return err
}

func (r *mrpRunRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MRPRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM mrp_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, runColumns)
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.MRPRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
