package services

import (
	"context"
	"testing"
	"time"

	"stockplan/internal/common"
	"stockplan/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ValuationServiceTestSuite struct {
	suite.Suite
	mockValuationRepo *MockValuationRepository
	mockMaterialRepo  *MockMaterialRepository
	mockLotRepo       *MockLotRepository
	mockCache         *MockCacheService
	service           ValuationService
	tenantID          uuid.UUID
	material          *models.Material
}

func (suite *ValuationServiceTestSuite) SetupTest() {
	suite.mockValuationRepo = &MockValuationRepository{}
	suite.mockMaterialRepo = &MockMaterialRepository{}
	suite.mockLotRepo = &MockLotRepository{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewValuationService(suite.mockValuationRepo, suite.mockMaterialRepo, suite.mockLotRepo, suite.mockCache)
	suite.tenantID = uuid.New()
	suite.material = &models.Material{
		ID:               uuid.New(),
		TenantID:         suite.tenantID,
		Name:             "Copper Wire",
		Code:             "CU-01",
		MaterialType:     models.MaterialRaw,
		UnitOfMeasure:    "m",
		StandardPrice:    decimal.RequireFromString("9.50"),
		DefaultValuation: models.ValuationFIFO,
	}
}

func (suite *ValuationServiceTestSuite) TearDownTest() {
	suite.mockValuationRepo.AssertExpectations(suite.T())
	suite.mockMaterialRepo.AssertExpectations(suite.T())
	suite.mockLotRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestValuationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ValuationServiceTestSuite))
}

func (suite *ValuationServiceTestSuite) receiptLot(remaining, cost string, receivedDaysAgo int) *models.BatchLot {
	qty := decimal.RequireFromString(remaining)
	return &models.BatchLot{
		ID:                uuid.New(),
		TenantID:          suite.tenantID,
		MaterialID:        suite.material.ID,
		Quantity:          qty,
		RemainingQuantity: qty,
		UnitCost:          decimal.RequireFromString(cost),
		Status:            models.LotAvailable,
		ReceivedDate:      time.Now().AddDate(0, 0, -receivedDaysAgo),
	}
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_FIFOWeightsLayers() {
	older := suite.receiptLot("30", "10", 10)
	newer := suite.receiptLot("50", "12", 2)

	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()
	suite.mockLotRepo.On("ListWithRemaining", mock.Anything, suite.tenantID, suite.material.ID).
		Return([]*models.BatchLot{older, newer}, nil).Once()
	suite.mockValuationRepo.On("DeactivateActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationFIFO).Return(nil).Once()
	suite.mockValuationRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.MaterialValuation")).Return(nil).Once()
	suite.mockCache.On("DeleteValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationFIFO).Return(nil).Once()

	valuation, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationFIFO, time.Now(), nil)

	assert.NoError(suite.T(), err)
	// (30*10 + 50*12) / 80 = 11.25
	assert.True(suite.T(), valuation.UnitValue.Equal(decimal.RequireFromString("11.25")))
	assert.True(suite.T(), valuation.QuantityBasis.Equal(decimal.RequireFromString("80")))
	assert.True(suite.T(), valuation.TotalValue.Equal(decimal.RequireFromString("900")))
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_NoLotsInsufficientData() {
	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()
	suite.mockLotRepo.On("ListWithRemaining", mock.Anything, suite.tenantID, suite.material.ID).
		Return([]*models.BatchLot{}, nil).Once()

	_, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationLIFO, time.Now(), nil)

	var dataErr *common.InsufficientDataError
	assert.ErrorAs(suite.T(), err, &dataErr)
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_UnknownMethod() {
	_, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationMethod("guesswork"), time.Now(), nil)

	var validationErr *common.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_StandardCostUsesCatalogPrice() {
	lot := suite.receiptLot("40", "11", 1)

	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()
	suite.mockLotRepo.On("ListWithRemaining", mock.Anything, suite.tenantID, suite.material.ID).
		Return([]*models.BatchLot{lot}, nil).Once()
	suite.mockValuationRepo.On("DeactivateActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationStandardCost).Return(nil).Once()
	suite.mockValuationRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.MaterialValuation")).Return(nil).Once()
	suite.mockCache.On("DeleteValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationStandardCost).Return(nil).Once()

	valuation, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationStandardCost, time.Now(), nil)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), valuation.UnitValue.Equal(suite.material.StandardPrice))
	assert.True(suite.T(), valuation.QuantityBasis.Equal(decimal.RequireFromString("40")))
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_BatchSpecificRequiresLotID() {
	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()

	_, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationBatchSpecific, time.Now(), nil)

	var validationErr *common.ValidationError
	assert.ErrorAs(suite.T(), err, &validationErr)
	assert.Equal(suite.T(), "batch_lot_id", validationErr.Field)
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_BatchSpecificMissingLot() {
	lotID := uuid.New()
	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()
	suite.mockLotRepo.On("GetByID", mock.Anything, suite.tenantID, lotID).
		Return(nil, &common.NotFoundError{Resource: "batch lot", ID: lotID.String()}).Once()

	_, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationBatchSpecific, time.Now(), &lotID)

	var dataErr *common.InsufficientDataError
	assert.ErrorAs(suite.T(), err, &dataErr)
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_MovingAverageFullRecompute() {
	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()
	// Aggregated in SQL over the whole receipt history, not a page of lots.
	suite.mockLotRepo.On("ReceiptTotals", mock.Anything, suite.tenantID, suite.material.ID).
		Return(decimal.RequireFromString("1650"), decimal.RequireFromString("150"), nil).Once()
	suite.mockValuationRepo.On("DeactivateActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()
	suite.mockValuationRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.MaterialValuation")).Return(nil).Once()
	suite.mockCache.On("DeleteValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()

	valuation, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationMovingAverage, time.Now(), nil)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), valuation.UnitValue.Equal(decimal.RequireFromString("11")))
	assert.True(suite.T(), valuation.QuantityBasis.Equal(decimal.RequireFromString("150")))
}

func (suite *ValuationServiceTestSuite) TestRecordValuation_MovingAverageNoReceipts() {
	suite.mockMaterialRepo.On("GetByID", mock.Anything, suite.tenantID, suite.material.ID).Return(suite.material, nil).Once()
	suite.mockLotRepo.On("ReceiptTotals", mock.Anything, suite.tenantID, suite.material.ID).
		Return(decimal.Zero, decimal.Zero, nil).Once()
	suite.mockValuationRepo.On("DeactivateActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()
	suite.mockValuationRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.MaterialValuation")).Return(nil).Once()
	suite.mockCache.On("DeleteValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()

	valuation, err := suite.service.RecordValuation(context.Background(), suite.tenantID, suite.material.ID, models.ValuationMovingAverage, time.Now(), nil)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), valuation.UnitValue.Equal(suite.material.StandardPrice))
	assert.True(suite.T(), valuation.QuantityBasis.IsZero())
}

func (suite *ValuationServiceTestSuite) TestApplyReceipt_MovingAverage() {
	prior := &models.MaterialValuation{
		ID:            uuid.New(),
		TenantID:      suite.tenantID,
		MaterialID:    suite.material.ID,
		Method:        models.ValuationMovingAverage,
		UnitValue:     decimal.RequireFromString("10"),
		QuantityBasis: decimal.RequireFromString("100"),
		IsActive:      true,
	}
	receipt := suite.receiptLot("50", "13", 0)

	suite.mockValuationRepo.On("GetActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(prior, nil).Once()
	suite.mockValuationRepo.On("DeactivateActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()
	suite.mockValuationRepo.On("Create", mock.Anything, mock.MatchedBy(func(v *models.MaterialValuation) bool {
		// (10*100 + 13*50) / 150 = 11.00
		return v.UnitValue.Equal(decimal.RequireFromString("11")) &&
			v.QuantityBasis.Equal(decimal.RequireFromString("150"))
	})).Return(nil).Once()
	suite.mockCache.On("DeleteValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()

	err := suite.service.ApplyReceipt(context.Background(), suite.tenantID, suite.material, receipt)

	assert.NoError(suite.T(), err)
}

func (suite *ValuationServiceTestSuite) TestApplyReceipt_FirstReceiptSetsAverageToCost() {
	receipt := suite.receiptLot("50", "14", 0)

	suite.mockValuationRepo.On("GetActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).
		Return(nil, &common.NotFoundError{Resource: "valuation", ID: suite.material.ID.String()}).Once()
	suite.mockValuationRepo.On("DeactivateActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()
	suite.mockValuationRepo.On("Create", mock.Anything, mock.MatchedBy(func(v *models.MaterialValuation) bool {
		return v.UnitValue.Equal(decimal.RequireFromString("14")) &&
			v.QuantityBasis.Equal(decimal.RequireFromString("50"))
	})).Return(nil).Once()
	suite.mockCache.On("DeleteValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationMovingAverage).Return(nil).Once()

	err := suite.service.ApplyReceipt(context.Background(), suite.tenantID, suite.material, receipt)

	assert.NoError(suite.T(), err)
}

func (suite *ValuationServiceTestSuite) TestGetCurrentValue_CacheHitSkipsRepo() {
	cached := &models.MaterialValuation{
		ID:         uuid.New(),
		TenantID:   suite.tenantID,
		MaterialID: suite.material.ID,
		Method:     models.ValuationFIFO,
		UnitValue:  decimal.RequireFromString("11.25"),
	}
	suite.mockCache.On("GetValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationFIFO).Return(cached, nil).Once()

	valuation, err := suite.service.GetCurrentValue(context.Background(), suite.tenantID, suite.material.ID, models.ValuationFIFO)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached.ID, valuation.ID)
}

func (suite *ValuationServiceTestSuite) TestGetCurrentValue_CacheMissReadsRepo() {
	stored := &models.MaterialValuation{
		ID:         uuid.New(),
		TenantID:   suite.tenantID,
		MaterialID: suite.material.ID,
		Method:     models.ValuationLIFO,
	}
	suite.mockCache.On("GetValuation", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationLIFO).Return(nil, nil).Once()
	suite.mockValuationRepo.On("GetActive", mock.Anything, suite.tenantID, suite.material.ID, models.ValuationLIFO).Return(stored, nil).Once()
	suite.mockCache.On("SetValuation", mock.Anything, suite.tenantID, stored, 5*time.Minute).Return(nil).Once()

	valuation, err := suite.service.GetCurrentValue(context.Background(), suite.tenantID, suite.material.ID, models.ValuationLIFO)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored.ID, valuation.ID)
}
