package repositories

import (
	"context"
	"testing"
	"time"

	"stockplan/internal/common"
	"stockplan/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var lotTestColumns = []string{
	"id", "tenant_id", "batch_number", "material_id", "quantity", "remaining_quantity",
	"reserved_quantity", "unit_of_measure", "status", "quality_status", "manufacturing_date",
	"expiration_date", "received_date", "unit_cost", "location_id", "vendor_id", "parent_lot_id",
	"created_at", "updated_at",
}

type LotRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       LotRepository
	tenantID   uuid.UUID
	materialID uuid.UUID
	context    context.Context
}

func (suite *LotRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewLotRepo(mock)
	suite.tenantID = uuid.New()
	suite.materialID = uuid.New()
	suite.context = context.Background()
}

func (suite *LotRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestLotRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LotRepoTestSuite))
}

func (suite *LotRepoTestSuite) lot(batchNumber string, remaining string) *models.BatchLot {
	qty := decimal.RequireFromString(remaining)
	return &models.BatchLot{
		ID:                uuid.New(),
		TenantID:          suite.tenantID,
		BatchNumber:       batchNumber,
		MaterialID:        suite.materialID,
		Quantity:          qty,
		RemainingQuantity: qty,
		ReservedQuantity:  decimal.Zero,
		UnitOfMeasure:     "kg",
		Status:            models.LotAvailable,
		ReceivedDate:      time.Now().AddDate(0, 0, -3),
		UnitCost:          decimal.RequireFromString("4.20"),
	}
}

func (suite *LotRepoTestSuite) lotRow(l *models.BatchLot) *pgxmock.Rows {
	return pgxmock.NewRows(lotTestColumns).
		AddRow(l.ID, l.TenantID, l.BatchNumber, l.MaterialID, l.Quantity, l.RemainingQuantity,
			l.ReservedQuantity, l.UnitOfMeasure, l.Status, l.QualityStatus, l.ManufacturingDate,
			l.ExpirationDate, l.ReceivedDate, l.UnitCost, l.LocationID, l.VendorID, l.ParentLotID,
			time.Now(), time.Now())
}

func (suite *LotRepoTestSuite) TestCreate_Success() {
	l := suite.lot("LOT-0001", "120")

	suite.mock.ExpectExec(`INSERT INTO batch_lots`).
		WithArgs(l.ID, l.TenantID, l.BatchNumber, l.MaterialID, l.Quantity, l.RemainingQuantity,
			l.ReservedQuantity, l.UnitOfMeasure, l.Status, l.QualityStatus, l.ManufacturingDate,
			l.ExpirationDate, l.ReceivedDate, l.UnitCost, l.LocationID, l.VendorID, l.ParentLotID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, l)
	assert.NoError(suite.T(), err)
}

func (suite *LotRepoTestSuite) TestGetByID_NotFound() {
	missingID := uuid.New()

	suite.mock.ExpectQuery(`SELECT .+ FROM batch_lots WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID, missingID).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, suite.tenantID, missingID)
	assert.Nil(suite.T(), result)

	var notFound *common.NotFoundError
	assert.ErrorAs(suite.T(), err, &notFound)
	assert.Equal(suite.T(), "batch lot", notFound.Resource)
}

func (suite *LotRepoTestSuite) TestGetByBatchNumber_Success() {
	l := suite.lot("LOT-0002", "40")

	suite.mock.ExpectQuery(`SELECT .+ FROM batch_lots WHERE tenant_id = \$1 AND batch_number = \$2`).
		WithArgs(suite.tenantID, l.BatchNumber).
		WillReturnRows(suite.lotRow(l))

	result, err := suite.repo.GetByBatchNumber(suite.context, suite.tenantID, l.BatchNumber)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), l.ID, result.ID)
	assert.True(suite.T(), result.RemainingQuantity.Equal(l.RemainingQuantity))
}

func (suite *LotRepoTestSuite) TestListEligible_FIFOOrdering() {
	asOf := time.Now()
	older := suite.lot("LOT-0003", "30")
	newer := suite.lot("LOT-0004", "50")

	rows := suite.lotRow(older).
		AddRow(newer.ID, newer.TenantID, newer.BatchNumber, newer.MaterialID, newer.Quantity,
			newer.RemainingQuantity, newer.ReservedQuantity, newer.UnitOfMeasure, newer.Status,
			newer.QualityStatus, newer.ManufacturingDate, newer.ExpirationDate, newer.ReceivedDate,
			newer.UnitCost, newer.LocationID, newer.VendorID, newer.ParentLotID, time.Now(), time.Now())

	suite.mock.ExpectQuery(`SELECT .+ FROM batch_lots\s+WHERE tenant_id = \$1 AND material_id = \$2\s+AND status = 'available'\s+AND remaining_quantity > 0\s+AND \(expiration_date IS NULL OR expiration_date >= \$3\)\s+ORDER BY received_date ASC, created_at ASC`).
		WithArgs(suite.tenantID, suite.materialID, asOf).
		WillReturnRows(rows)

	result, err := suite.repo.ListEligible(suite.context, suite.tenantID, suite.materialID, models.PolicyFIFO, asOf)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), "LOT-0003", result[0].BatchNumber)
}

func (suite *LotRepoTestSuite) TestListEligible_FEFOOrdering() {
	asOf := time.Now()
	l := suite.lot("LOT-0005", "25")

	suite.mock.ExpectQuery(`ORDER BY expiration_date ASC NULLS LAST, received_date ASC`).
		WithArgs(suite.tenantID, suite.materialID, asOf).
		WillReturnRows(suite.lotRow(l))

	result, err := suite.repo.ListEligible(suite.context, suite.tenantID, suite.materialID, models.PolicyFEFO, asOf)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 1)
}

func (suite *LotRepoTestSuite) TestAvailableQuantity_SumsUnexpiredStock() {
	asOf := time.Now()

	suite.mock.ExpectQuery(`SELECT COALESCE\(SUM\(remaining_quantity\), 0\)\s+FROM batch_lots`).
		WithArgs(suite.tenantID, suite.materialID, asOf).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.RequireFromString("85.5")))

	qty, err := suite.repo.AvailableQuantity(suite.context, suite.tenantID, suite.materialID, asOf)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), qty.Equal(decimal.RequireFromString("85.5")))
}

func (suite *LotRepoTestSuite) TestReceiptTotals_AggregatesFullHistory() {
	suite.mock.ExpectQuery(`SELECT COALESCE\(SUM\(quantity \* unit_cost\), 0\), COALESCE\(SUM\(quantity\), 0\)\s+FROM batch_lots\s+WHERE tenant_id = \$1 AND material_id = \$2`).
		WithArgs(suite.tenantID, suite.materialID).
		WillReturnRows(pgxmock.NewRows([]string{"total_cost", "total_qty"}).
			AddRow(decimal.RequireFromString("1650"), decimal.RequireFromString("150")))

	totalCost, totalQty, err := suite.repo.ReceiptTotals(suite.context, suite.tenantID, suite.materialID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), totalCost.Equal(decimal.RequireFromString("1650")))
	assert.True(suite.T(), totalQty.Equal(decimal.RequireFromString("150")))
}

func (suite *LotRepoTestSuite) TestSumRemainingByLocations() {
	locationIDs := []uuid.UUID{uuid.New(), uuid.New()}

	suite.mock.ExpectQuery(`SELECT COALESCE\(SUM\(remaining_quantity\), 0\)\s+FROM batch_lots\s+WHERE tenant_id = \$1 AND location_id = ANY\(\$2\)`).
		WithArgs(suite.tenantID, locationIDs).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.RequireFromString("12")))

	qty, err := suite.repo.SumRemainingByLocations(suite.context, suite.tenantID, locationIDs)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), qty.Equal(decimal.RequireFromString("12")))
}

func (suite *LotRepoTestSuite) TestMarkExpired_ReportsCount() {
	asOf := time.Now()

	suite.mock.ExpectExec(`UPDATE batch_lots\s+SET status = 'expired'`).
		WithArgs(asOf).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := suite.repo.MarkExpired(suite.context, asOf)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), count)
}

func (suite *LotRepoTestSuite) TestGetForUpdateTx_LocksRow() {
	l := suite.lot("LOT-0006", "60")

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT .+ FROM batch_lots WHERE tenant_id = \$1 AND id = \$2 FOR UPDATE`).
		WithArgs(suite.tenantID, l.ID).
		WillReturnRows(suite.lotRow(l))
	suite.mock.ExpectCommit()

	tx, err := suite.mock.Begin(suite.context)
	assert.NoError(suite.T(), err)

	result, err := suite.repo.GetForUpdateTx(suite.context, tx, suite.tenantID, l.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), l.ID, result.ID)

	assert.NoError(suite.T(), tx.Commit(suite.context))
}

func (suite *LotRepoTestSuite) TestUpdateQuantitiesTx() {
	l := suite.lot("LOT-0007", "60")
	l.RemainingQuantity = decimal.RequireFromString("20")
	l.Status = models.LotAvailable

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`UPDATE batch_lots\s+SET remaining_quantity = \$1, reserved_quantity = \$2, status = \$3`).
		WithArgs(l.RemainingQuantity, l.ReservedQuantity, l.Status, l.TenantID, l.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	tx, err := suite.mock.Begin(suite.context)
	assert.NoError(suite.T(), err)

	err = suite.repo.UpdateQuantitiesTx(suite.context, tx, l)
	assert.NoError(suite.T(), err)

	assert.NoError(suite.T(), tx.Commit(suite.context))
}
