package services

import (
	"context"
	"time"

	"stockplan/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Mock repositories and services

type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) Create(ctx context.Context, material *models.Material) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

func (m *MockMaterialRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Material), args.Error(1)
}

func (m *MockMaterialRepository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Material, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Material), args.Error(1)
}

func (m *MockMaterialRepository) Update(ctx context.Context, material *models.Material) error {
	args := m.Called(ctx, material)
	return args.Error(0)
}

func (m *MockMaterialRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockMaterialRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Material, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Material), args.Error(1)
}

func (m *MockMaterialRepository) Search(ctx context.Context, tenantID uuid.UUID, filter *models.MaterialSearchFilter) ([]*models.Material, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*models.Material), args.Error(1)
}

func (m *MockMaterialRepository) ListBelowReorderPoint(ctx context.Context) ([]*models.ReorderAlert, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.ReorderAlert), args.Error(1)
}

type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) Create(ctx context.Context, lot *models.BatchLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.BatchLot, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchLot), args.Error(1)
}

func (m *MockLotRepository) GetByBatchNumber(ctx context.Context, tenantID uuid.UUID, batchNumber string) (*models.BatchLot, error) {
	args := m.Called(ctx, tenantID, batchNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchLot), args.Error(1)
}

func (m *MockLotRepository) Update(ctx context.Context, lot *models.BatchLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

func (m *MockLotRepository) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.BatchLot, error) {
	args := m.Called(ctx, tenantID, materialID, limit, offset)
	return args.Get(0).([]*models.BatchLot), args.Error(1)
}

func (m *MockLotRepository) ListWithRemaining(ctx context.Context, tenantID, materialID uuid.UUID) ([]*models.BatchLot, error) {
	args := m.Called(ctx, tenantID, materialID)
	return args.Get(0).([]*models.BatchLot), args.Error(1)
}

func (m *MockLotRepository) ListEligible(ctx context.Context, tenantID, materialID uuid.UUID, policy models.AllocationPolicy, asOf time.Time) ([]*models.BatchLot, error) {
	args := m.Called(ctx, tenantID, materialID, policy, asOf)
	return args.Get(0).([]*models.BatchLot), args.Error(1)
}

func (m *MockLotRepository) ReceiptTotals(ctx context.Context, tenantID, materialID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, materialID)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockLotRepository) AvailableQuantity(ctx context.Context, tenantID, materialID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, materialID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLotRepository) SumRemainingByLocations(ctx context.Context, tenantID uuid.UUID, locationIDs []uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, locationIDs)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLotRepository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLotRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, tenantID, id uuid.UUID) (*models.BatchLot, error) {
	args := m.Called(ctx, tx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchLot), args.Error(1)
}

func (m *MockLotRepository) UpdateQuantitiesTx(ctx context.Context, tx pgx.Tx, lot *models.BatchLot) error {
	args := m.Called(ctx, tx, lot)
	return args.Error(0)
}

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) Create(ctx context.Context, location *models.StorageLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.StorageLocation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.StorageLocation, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) Update(ctx context.Context, location *models.StorageLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockLocationRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StorageLocation, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) ListChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]*models.StorageLocation, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Get(0).([]*models.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) DescendantIDs(ctx context.Context, tenantID, rootID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tenantID, rootID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockValuationRepository struct {
	mock.Mock
}

func (m *MockValuationRepository) Create(ctx context.Context, valuation *models.MaterialValuation) error {
	args := m.Called(ctx, valuation)
	return args.Error(0)
}

func (m *MockValuationRepository) GetActive(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error) {
	args := m.Called(ctx, tenantID, materialID, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaterialValuation), args.Error(1)
}

func (m *MockValuationRepository) DeactivateActive(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) error {
	args := m.Called(ctx, tenantID, materialID, method)
	return args.Error(0)
}

func (m *MockValuationRepository) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialValuation, error) {
	args := m.Called(ctx, tenantID, materialID, limit, offset)
	return args.Get(0).([]*models.MaterialValuation), args.Error(1)
}

type MockDemandRepository struct {
	mock.Mock
}

func (m *MockDemandRepository) Create(ctx context.Context, demand *models.DemandRecord) error {
	args := m.Called(ctx, demand)
	return args.Error(0)
}

func (m *MockDemandRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.DemandRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DemandRecord), args.Error(1)
}

func (m *MockDemandRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockDemandRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.DemandRecord, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.DemandRecord), args.Error(1)
}

func (m *MockDemandRepository) ListWithinHorizon(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]*models.DemandRecord, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DemandRecord), args.Error(1)
}

func (m *MockDemandRepository) ListByMaterialWithinHorizon(ctx context.Context, tenantID, materialID uuid.UUID, from, to time.Time) ([]*models.DemandRecord, error) {
	args := m.Called(ctx, tenantID, materialID, from, to)
	return args.Get(0).([]*models.DemandRecord), args.Error(1)
}

type MockRequirementRepository struct {
	mock.Mock
}

func (m *MockRequirementRepository) CreateTx(ctx context.Context, tx pgx.Tx, requirement *models.MaterialRequirement) error {
	args := m.Called(ctx, tx, requirement)
	return args.Error(0)
}

func (m *MockRequirementRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaterialRequirement, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaterialRequirement), args.Error(1)
}

func (m *MockRequirementRepository) ListByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*models.MaterialRequirement, error) {
	args := m.Called(ctx, tenantID, runID)
	return args.Get(0).([]*models.MaterialRequirement), args.Error(1)
}

func (m *MockRequirementRepository) ListByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialRequirement, error) {
	args := m.Called(ctx, tenantID, materialID, limit, offset)
	return args.Get(0).([]*models.MaterialRequirement), args.Error(1)
}

func (m *MockRequirementRepository) ListByStatus(ctx context.Context, tenantID uuid.UUID, status models.RequirementStatus, limit, offset int) ([]*models.MaterialRequirement, error) {
	args := m.Called(ctx, tenantID, status, limit, offset)
	return args.Get(0).([]*models.MaterialRequirement), args.Error(1)
}

func (m *MockRequirementRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.RequirementStatus, sourceID *uuid.UUID) error {
	args := m.Called(ctx, tenantID, id, status, sourceID)
	return args.Error(0)
}

func (m *MockRequirementRepository) SupersedeForMaterial(ctx context.Context, tx pgx.Tx, tenantID, materialID uuid.UUID, horizonEnd time.Time) error {
	args := m.Called(ctx, tx, tenantID, materialID, horizonEnd)
	return args.Error(0)
}

type MockMRPRunRepository struct {
	mock.Mock
}

func (m *MockMRPRunRepository) Create(ctx context.Context, run *models.MRPRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockMRPRunRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MRPRun, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MRPRun), args.Error(1)
}

func (m *MockMRPRunRepository) Update(ctx context.Context, run *models.MRPRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockMRPRunRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MRPRun, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.MRPRun), args.Error(1)
}

type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorRepository) Update(ctx context.Context, vendor *models.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockVendorRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vendor, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Vendor), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error) {
	args := m.Called(ctx, tenantID, materialID, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaterialValuation), args.Error(1)
}

func (m *MockCacheService) SetValuation(ctx context.Context, tenantID uuid.UUID, valuation *models.MaterialValuation, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, valuation, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) error {
	args := m.Called(ctx, tenantID, materialID, method)
	return args.Error(0)
}

func (m *MockCacheService) AcquireRunLock(ctx context.Context, tenantID, materialID uuid.UUID, horizonDays int, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, tenantID, materialID, horizonDays, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) ReleaseRunLock(ctx context.Context, tenantID, materialID uuid.UUID, horizonDays int) error {
	args := m.Called(ctx, tenantID, materialID, horizonDays)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockValuationService struct {
	mock.Mock
}

func (m *MockValuationService) RecordValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod, asOf time.Time, batchLotID *uuid.UUID) (*models.MaterialValuation, error) {
	args := m.Called(ctx, tenantID, materialID, method, asOf, batchLotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaterialValuation), args.Error(1)
}

func (m *MockValuationService) GetCurrentValue(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error) {
	args := m.Called(ctx, tenantID, materialID, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaterialValuation), args.Error(1)
}

func (m *MockValuationService) ApplyReceipt(ctx context.Context, tenantID uuid.UUID, material *models.Material, lot *models.BatchLot) error {
	args := m.Called(ctx, tenantID, material, lot)
	return args.Error(0)
}

func (m *MockValuationService) ListValuations(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialValuation, error) {
	args := m.Called(ctx, tenantID, materialID, limit, offset)
	return args.Get(0).([]*models.MaterialValuation), args.Error(1)
}

// stubTx satisfies pgx.Tx for services that open row-locking
// transactions. It records commit/rollback calls.
type stubTx struct {
	committed  bool
	rolledBack bool
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *stubTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}
func (t *stubTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *stubTx) Conn() *pgx.Conn                                               { return nil }

// stubDatabase hands out stub transactions without a real pool.
type stubDatabase struct {
	tx *stubTx
}

func newStubDatabase() *stubDatabase {
	return &stubDatabase{tx: &stubTx{}}
}

func (d *stubDatabase) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (d *stubDatabase) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (d *stubDatabase) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (d *stubDatabase) Begin(ctx context.Context) (pgx.Tx, error)                     { return d.tx, nil }
