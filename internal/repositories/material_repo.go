package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockplan/internal/common"
	"stockplan/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MaterialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Material, error)
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Material, error)
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.MaterialSearchFilter) ([]*models.Material, error)
	ListBelowReorderPoint(ctx context.Context) ([]*models.ReorderAlert, error)
}

type materialRepo struct {
	db Database
}

func NewMaterialRepo(db Database) MaterialRepository {
	return &materialRepo{db: db}
}

const materialColumns = `id, tenant_id, name, code, material_type, unit_of_measure, standard_price,
		lead_time_days, reorder_point, economic_order_qty, safety_stock, min_stock, max_stock,
		order_multiple, default_location_id, default_valuation_method, is_active, lot_tracked,
		shelf_life_days, created_at, updated_at`

func scanMaterial(row pgx.Row) (*models.Material, error) {
	m := &models.Material{}
	err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Code, &m.MaterialType, &m.UnitOfMeasure,
		&m.StandardPrice, &m.LeadTimeDays, &m.ReorderPoint, &m.EconomicOrderQty, &m.SafetyStock,
		&m.MinStock, &m.MaxStock, &m.OrderMultiple, &m.DefaultLocationID, &m.DefaultValuation,
		&m.IsActive, &m.LotTracked, &m.ShelfLifeDays, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *materialRepo) Create(ctx context.Context, material *models.Material) error {
	query := `
		INSERT INTO materials (id, tenant_id, name, code, material_type, unit_of_measure, standard_price,
			lead_time_days, reorder_point, economic_order_qty, safety_stock, min_stock, max_stock,
			order_multiple, default_location_id, default_valuation_method, is_active, lot_tracked,
			shelf_life_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, material.ID, material.TenantID, material.Name, material.Code,
		material.MaterialType, material.UnitOfMeasure, material.StandardPrice, material.LeadTimeDays,
		material.ReorderPoint, material.EconomicOrderQty, material.SafetyStock, material.MinStock,
		material.MaxStock, material.OrderMultiple, material.DefaultLocationID, material.DefaultValuation,
		material.IsActive, material.LotTracked, material.ShelfLifeDays)
	return err
}

func (r *materialRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	query := fmt.Sprintf(`SELECT %s FROM materials WHERE tenant_id = $1 AND id = $2`, materialColumns)
	m, err := scanMaterial(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "material", ID: id.String()}
	}
	return m, err
}

func (r *materialRepo) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Material, error) {
	query := fmt.Sprintf(`SELECT %s FROM materials WHERE tenant_id = $1 AND code = $2`, materialColumns)
	m, err := scanMaterial(r.db.QueryRow(ctx, query, tenantID, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "material", ID: code}
	}
	return m, err
}

func (r *materialRepo) Update(ctx context.Context, material *models.Material) error {
	query := `
		UPDATE materials
		SET name = $1, code = $2, material_type = $3, unit_of_measure = $4, standard_price = $5,
			lead_time_days = $6, reorder_point = $7, economic_order_qty = $8, safety_stock = $9,
			min_stock = $10, max_stock = $11, order_multiple = $12, default_location_id = $13,
			default_valuation_method = $14, is_active = $15, lot_tracked = $16, shelf_life_days = $17,
			updated_at = NOW()
		WHERE tenant_id = $18 AND id = $19
	`
	_, err := r.db.Exec(ctx, query, material.Name, material.Code, material.MaterialType,
		material.UnitOfMeasure, material.StandardPrice, material.LeadTimeDays, material.ReorderPoint,
		material.EconomicOrderQty, material.SafetyStock, material.MinStock, material.MaxStock,
		material.OrderMultiple, material.DefaultLocationID, material.DefaultValuation, material.IsActive,
		material.LotTracked, material.ShelfLifeDays, material.TenantID, material.ID)
	return err
}

func (r *materialRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM materials WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *materialRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Material, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM materials
		WHERE tenant_id = $1
		ORDER BY code
		LIMIT $2 OFFSET $3
	`, materialColumns)
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*models.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// ListBelowReorderPoint scans all tenants for active materials whose
// available stock has fallen below the reorder point. Expired lots do
// not count toward availability.
func (r *materialRepo) ListBelowReorderPoint(ctx context.Context) ([]*models.ReorderAlert, error) {
	query := `
		SELECT m.tenant_id, m.id, m.name, m.code, m.reorder_point,
			COALESCE(SUM(l.remaining_quantity), 0) AS available
		FROM materials m
		LEFT JOIN batch_lots l ON l.material_id = m.id AND l.tenant_id = m.tenant_id
			AND l.status = 'available'
			AND (l.expiration_date IS NULL OR l.expiration_date > NOW())
		WHERE m.is_active = TRUE AND m.reorder_point IS NOT NULL
		GROUP BY m.tenant_id, m.id, m.name, m.code, m.reorder_point
		HAVING COALESCE(SUM(l.remaining_quantity), 0) < m.reorder_point
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.ReorderAlert
	for rows.Next() {
		a := &models.ReorderAlert{}
		if err := rows.Scan(&a.TenantID, &a.MaterialID, &a.Name, &a.Code, &a.ReorderPoint, &a.Available); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Search performs filtered catalog queries with dynamic conditions
func (r *materialRepo) Search(ctx context.Context, tenantID uuid.UUID, filter *models.MaterialSearchFilter) ([]*models.Material, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	queryBase := fmt.Sprintf(`SELECT %s FROM materials WHERE tenant_id = $1`, materialColumns)
	args := []any{tenantID}
	conditionCount := 1

	if filter.Query != "" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND (name ILIKE $%d OR code ILIKE $%d)`, conditionCount, conditionCount)
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.MaterialType != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND material_type = $%d`, conditionCount)
		args = append(args, *filter.MaterialType)
	}
	if filter.ActiveOnly {
		queryBase += ` AND is_active = TRUE`
	}
	if filter.LotTracked != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND lot_tracked = $%d`, conditionCount)
		args = append(args, *filter.LotTracked)
	}

	sortField := "code"
	switch filter.SortBy {
	case "name":
		sortField = "name"
	case "created_at":
		sortField = "created_at"
	case "lead_time_days":
		sortField = "lead_time_days"
	}
	sortOrder := "ASC"
	if strings.ToLower(filter.SortOrder) == "desc" {
		sortOrder = "DESC"
	}
	queryBase += fmt.Sprintf(` ORDER BY %s %s`, sortField, sortOrder)

	conditionCount++
	queryBase += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	if filter.Offset > 0 {
		conditionCount++
		queryBase += fmt.Sprintf(` OFFSET $%d`, conditionCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*models.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}
