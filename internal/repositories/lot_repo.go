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
	"github.com/shopspring/decimal"
)

type LotRepository interface {
	Create(ctx context.Context, lot *models.BatchLot) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.BatchLot, error)
	GetByBatchNumber(ctx context.Context, tenantID uuid.UUID, batchNumber string) (*models.BatchLot, error)
	Update(ctx context.Context, lot *models.BatchLot) error
	ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.BatchLot, error)
	ListWithRemaining(ctx context.Context, tenantID, materialID uuid.UUID) ([]*models.BatchLot, error)
	ListEligible(ctx context.Context, tenantID, materialID uuid.UUID, policy models.AllocationPolicy, asOf time.Time) ([]*models.BatchLot, error)
	AvailableQuantity(ctx context.Context, tenantID, materialID uuid.UUID, asOf time.Time) (decimal.Decimal, error)
	ReceiptTotals(ctx context.Context, tenantID, materialID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
	SumRemainingByLocations(ctx context.Context, tenantID uuid.UUID, locationIDs []uuid.UUID) (decimal.Decimal, error)
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)

	// Transactional variants used by the consume/reserve read-modify-write.
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*models.BatchLot, error)
	UpdateQuantitiesTx(ctx context.Context, tx pgx.Tx, lot *models.BatchLot) error
}

type lotRepo struct {
	db Database
}

func NewLotRepo(db Database) LotRepository {
	return &lotRepo{db: db}
}

const lotColumns = `id, tenant_id, batch_number, material_id, quantity, remaining_quantity,
		reserved_quantity, unit_of_measure, status, quality_status, manufacturing_date,
		expiration_date, received_date, unit_cost, location_id, vendor_id, parent_lot_id,
		created_at, updated_at`

func scanLot(row pgx.Row) (*models.BatchLot, error) {
	l := &models.BatchLot{}
	err := row.Scan(&l.ID, &l.TenantID, &l.BatchNumber, &l.MaterialID, &l.Quantity,
		&l.RemainingQuantity, &l.ReservedQuantity, &l.UnitOfMeasure, &l.Status, &l.QualityStatus,
		&l.ManufacturingDate, &l.ExpirationDate, &l.ReceivedDate, &l.UnitCost, &l.LocationID,
		&l.VendorID, &l.ParentLotID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *lotRepo) Create(ctx context.Context, lot *models.BatchLot) error {
	query := `
		INSERT INTO batch_lots (id, tenant_id, batch_number, material_id, quantity, remaining_quantity,
			reserved_quantity, unit_of_measure, status, quality_status, manufacturing_date,
			expiration_date, received_date, unit_cost, location_id, vendor_id, parent_lot_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, lot.ID, lot.TenantID, lot.BatchNumber, lot.MaterialID,
		lot.Quantity, lot.RemainingQuantity, lot.ReservedQuantity, lot.UnitOfMeasure, lot.Status,
		lot.QualityStatus, lot.ManufacturingDate, lot.ExpirationDate, lot.ReceivedDate, lot.UnitCost,
		lot.LocationID, lot.VendorID, lot.ParentLotID)
	return err
}

func (r *lotRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.BatchLot, error) {
	query := fmt.Sprintf(`SELECT %s FROM batch_lots WHERE tenant_id = $1 AND id = $2`, lotColumns)
	l, err := scanLot(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "batch lot", ID: id.String()}
	}
	return l, err
}

func (r *lotRepo) GetByBatchNumber(ctx context.Context, tenantID uuid.UUID, batchNumber string) (*models.BatchLot, error) {
	query := fmt.Sprintf(`SELECT %s FROM batch_lots WHERE tenant_id = $1 AND batch_number = $2`, lotColumns)
	l, err := scanLot(r.db.QueryRow(ctx, query, tenantID, batchNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "batch lot", ID: batchNumber}
	}
	return l, err
}

func (r *lotRepo) Update(ctx context.Context, lot *models.BatchLot) error {
	query := `
		UPDATE batch_lots
		SET remaining_quantity = $1, reserved_quantity = $2, status = $3, quality_status = $4,
			location_id = $5, updated_at = NOW()
		WHERE tenant_id = $6 AND id = $7
	`
	_, err := r.db.Exec(ctx, query, lot.RemainingQuantity, lot.ReservedQuantity, lot.Status,
		lot.QualityStatus, lot.LocationID, lot.TenantID, lot.ID)
	return err
}

func (r *lotRepo) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.BatchLot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM batch_lots
		WHERE tenant_id = $1 AND material_id = $2
		ORDER BY received_date DESC
		LIMIT $3 OFFSET $4
	`, lotColumns)
	rows, err := r.db.Query(ctx, query, tenantID, materialID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

// ListWithRemaining returns all non-terminal lots that still hold stock,
// oldest receipt first. Valuation walks these.
func (r *lotRepo) ListWithRemaining(ctx context.Context, tenantID, materialID uuid.UUID) ([]*models.BatchLot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM batch_lots
		WHERE tenant_id = $1 AND material_id = $2
			AND remaining_quantity > 0
			AND status NOT IN ('consumed', 'rejected', 'recalled', 'expired')
		ORDER BY received_date ASC, created_at ASC
	`, lotColumns)
	rows, err := r.db.Query(ctx, query, tenantID, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

// ListEligible returns available, unexpired lots ordered per the
// consumption policy. FEFO ties on expiration break by receipt date.
func (r *lotRepo) ListEligible(ctx context.Context, tenantID, materialID uuid.UUID, policy models.AllocationPolicy, asOf time.Time) ([]*models.BatchLot, error) {
	order := "received_date ASC, created_at ASC"
	switch policy {
	case models.PolicyLIFO:
		order = "received_date DESC, created_at DESC"
	case models.PolicyFEFO:
		order = "expiration_date ASC NULLS LAST, received_date ASC"
	}
	query := fmt.Sprintf(`
		SELECT %s FROM batch_lots
		WHERE tenant_id = $1 AND material_id = $2
			AND status = 'available'
			AND remaining_quantity > 0
			AND (expiration_date IS NULL OR expiration_date >= $3)
		ORDER BY %s
	`, lotColumns, order)
	rows, err := r.db.Query(ctx, query, tenantID, materialID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

func (r *lotRepo) AvailableQuantity(ctx context.Context, tenantID, materialID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(remaining_quantity), 0)
		FROM batch_lots
		WHERE tenant_id = $1 AND material_id = $2
			AND status = 'available'
			AND (expiration_date IS NULL OR expiration_date >= $3)
	`
	var qty decimal.Decimal
	err := r.db.QueryRow(ctx, query, tenantID, materialID, asOf).Scan(&qty)
	return qty, err
}

// ReceiptTotals aggregates every receipt to date for the material:
// total cost (quantity * unit cost) and total received quantity. The
// moving-average recompute divides one by the other.
func (r *lotRepo) ReceiptTotals(ctx context.Context, tenantID, materialID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity * unit_cost), 0), COALESCE(SUM(quantity), 0)
		FROM batch_lots
		WHERE tenant_id = $1 AND material_id = $2
	`
	var totalCost, totalQty decimal.Decimal
	err := r.db.QueryRow(ctx, query, tenantID, materialID).Scan(&totalCost, &totalQty)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return totalCost, totalQty, nil
}

func (r *lotRepo) SumRemainingByLocations(ctx context.Context, tenantID uuid.UUID, locationIDs []uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(remaining_quantity), 0)
		FROM batch_lots
		WHERE tenant_id = $1 AND location_id = ANY($2)
			AND status NOT IN ('consumed', 'rejected', 'recalled', 'expired')
	`
	var qty decimal.Decimal
	err := r.db.QueryRow(ctx, query, tenantID, locationIDs).Scan(&qty)
	return qty, err
}

// MarkExpired flips lots past their expiration date out of non-terminal
// states. Reads already apply the expiry override; this keeps the stored
// rows in agreement.
func (r *lotRepo) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE batch_lots
		SET status = 'expired', updated_at = NOW()
		WHERE expiration_date < $1
			AND status NOT IN ('consumed', 'rejected', 'recalled', 'expired')
	`
	tag, err := r.db.Exec(ctx, query, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *lotRepo) GetForUpdateTx(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*models.BatchLot, error) {
	query := fmt.Sprintf(`SELECT %s FROM batch_lots WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, lotColumns)
	l, err := scanLot(tx.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &common.NotFoundError{Resource: "batch lot", ID: id.String()}
	}
	return l, err
}

func (r *lotRepo) UpdateQuantitiesTx(ctx context.Context, tx pgx.Tx, lot *models.BatchLot) error {
	query := `
		UPDATE batch_lots
		SET remaining_quantity = $1, reserved_quantity = $2, status = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5
	`
	_, err := tx.Exec(ctx, query, lot.RemainingQuantity, lot.ReservedQuantity, lot.Status,
		lot.TenantID, lot.ID)
	return err
}

func collectLots(rows pgx.Rows) ([]*models.BatchLot, error) {
	var lots []*models.BatchLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}
