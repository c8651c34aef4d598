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

type LocationRepository interface {
	Create(ctx context.Context, location *models.StorageLocation) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.StorageLocation, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.StorageLocation, error)
	Update(ctx context.Context, location *models.StorageLocation) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StorageLocation, error)
	ListChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]*models.StorageLocation, error)
	DescendantIDs(ctx context.Context, tenantID, rootID uuid.UUID) ([]uuid.UUID, error)
}

type locationRepo struct {
	db Database
}

func NewLocationRepo(db Database) LocationRepository {
	return &locationRepo{db: db}
}

const locationColumns = `id, tenant_id, name, code, location_type, parent_id, capacity,
		capacity_unit, is_active, created_at, updated_at`

func scanLocation(row pgx.Row) (*models.StorageLocation, error) {
	l := &models.StorageLocation{}
	err := row.Scan(&l.ID, &l.TenantID, &l.Name, &l.Code, &l.LocationType, &l.ParentID,
		&l.Capacity, &l.CapacityUnit, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *locationRepo) Create(ctx context.Context, location *models.StorageLocation) error {
	query := `
		INSERT INTO storage_locations (id, tenant_id, name, code, location_type, parent_id,
			capacity, capacity_unit, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, location.ID, location.TenantID, location.Name, location.Code,
		location.LocationType, location.ParentID, location.Capacity, location.CapacityUnit,
		location.IsActive)
	return err
}

func (r *locationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.StorageLocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM storage_locations WHERE tenant_id = $1 AND id = $2`, locationColumns)
	l, err := scanLocation(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "storage location", ID: id.String()}
	}
	return l, err
}

func (r *locationRepo) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.StorageLocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM storage_locations WHERE tenant_id = $1 AND code = $2`, locationColumns)
	l, err := scanLocation(r.db.QueryRow(ctx, query, tenantID, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "storage location", ID: code}
	}
	return l, err
}

func (r *locationRepo) Update(ctx context.Context, location *models.StorageLocation) error {
	query := `
		UPDATE storage_locations
		SET name = $1, capacity = $2, capacity_unit = $3, is_active = $4, updated_at = NOW()
		WHERE tenant_id = $5 AND id = $6
	`
	_, err := r.db.Exec(ctx, query, location.Name, location.Capacity, location.CapacityUnit,
		location.IsActive, location.TenantID, location.ID)
	return err
}

func (r *locationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM storage_locations WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *locationRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StorageLocation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM storage_locations
		WHERE tenant_id = $1
		ORDER BY code
		LIMIT $2 OFFSET $3
	`, locationColumns)
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

func (r *locationRepo) ListChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]*models.StorageLocation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM storage_locations
		WHERE tenant_id = $1 AND parent_id = $2
		ORDER BY code
	`, locationColumns)
	rows, err := r.db.Query(ctx, query, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

// DescendantIDs returns the root id plus every descendant id, walking the
// parent chain with a recursive CTE. The depth guard stops runaway
// recursion if the tree is ever corrupted.
func (r *locationRepo) DescendantIDs(ctx context.Context, tenantID, rootID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth FROM storage_locations WHERE tenant_id = $1 AND id = $2
			UNION ALL
			SELECT l.id, s.depth + 1
			FROM storage_locations l
			JOIN subtree s ON l.parent_id = s.id
			WHERE l.tenant_id = $1 AND s.depth < 32
		)
		SELECT id FROM subtree
	`
	rows, err := r.db.Query(ctx, query, tenantID, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectLocations(rows pgx.Rows) ([]*models.StorageLocation, error) {
	var locations []*models.StorageLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}
