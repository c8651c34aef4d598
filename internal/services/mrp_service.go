package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"stockplan/internal/caching"
	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// runLockTTL bounds how long a per-material planning lock can outlive a
// crashed run before Redis reclaims it.
const runLockTTL = 5 * time.Minute

// demandBucket aggregates all demand for one material due on one day.
type demandBucket struct {
	date    time.Time
	gross   decimal.Decimal
	demands []*models.DemandRecord
}

// MRPService runs time-phased net-requirements planning over the
// demand book and the lot ledger.
type MRPService interface {
	RunPlanning(ctx context.Context, tenantID uuid.UUID, horizonDays int) (*models.MRPRun, error)
	GetRun(ctx context.Context, tenantID, runID uuid.UUID) (*models.MRPRun, error)
	ListRuns(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MRPRun, error)
	ListRequirementsByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*models.MaterialRequirement, error)
	ListRequirementsByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialRequirement, error)
	ConvertRequirement(ctx context.Context, tenantID, requirementID uuid.UUID, orderID *uuid.UUID) (*models.MaterialRequirement, error)
}

type mrpService struct {
	db              repositories.Database
	demandRepo      repositories.DemandRepository
	requirementRepo repositories.RequirementRepository
	runRepo         repositories.MRPRunRepository
	materialRepo    repositories.MaterialRepository
	lotRepo         repositories.LotRepository
	cache           caching.CacheService
}

func NewMRPService(db repositories.Database, demandRepo repositories.DemandRepository,
	requirementRepo repositories.RequirementRepository, runRepo repositories.MRPRunRepository,
	materialRepo repositories.MaterialRepository, lotRepo repositories.LotRepository,
	cache caching.CacheService) MRPService {
	return &mrpService{
		db:              db,
		demandRepo:      demandRepo,
		requirementRepo: requirementRepo,
		runRepo:         runRepo,
		materialRepo:    materialRepo,
		lotRepo:         lotRepo,
		cache:           cache,
	}
}

// RunPlanning nets demand against available stock per material and day
// bucket, producing planned requirements inside the horizon. Earlier
// planned requirements for the same material and window are cancelled
// in the same transaction, so re-running a horizon is idempotent.
func (s *mrpService) RunPlanning(ctx context.Context, tenantID uuid.UUID, horizonDays int) (*models.MRPRun, error) {
	if horizonDays <= 0 {
		return nil, common.NewValidationError("horizon_days", "horizon must be > 0 days")
	}

	now := time.Now().UTC()
	runStart := dayOf(now)
	horizonEnd := runStart.AddDate(0, 0, horizonDays)

	run := &models.MRPRun{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RunCode:     fmt.Sprintf("MRP-%s", now.Format("20060102-150405")),
		Status:      models.RunStatusRunning,
		HorizonDays: horizonDays,
		StartedAt:   now,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	demands, err := s.demandRepo.ListWithinHorizon(ctx, tenantID, runStart, horizonEnd)
	if err != nil {
		return s.failRun(ctx, run, err)
	}

	byMaterial := make(map[uuid.UUID][]*models.DemandRecord)
	for _, d := range demands {
		byMaterial[d.MaterialID] = append(byMaterial[d.MaterialID], d)
	}
	materialIDs := make([]uuid.UUID, 0, len(byMaterial))
	for id := range byMaterial {
		materialIDs = append(materialIDs, id)
	}
	sort.Slice(materialIDs, func(i, j int) bool {
		return materialIDs[i].String() < materialIDs[j].String()
	})

	for _, materialID := range materialIDs {
		created, err := s.planMaterial(ctx, tenantID, run, materialID, byMaterial[materialID], runStart, horizonEnd)
		if err != nil {
			log.Printf("mrp run %s: skipping material %s: %v", run.RunCode, materialID.String(), err)
			run.MaterialsSkipped++
			continue
		}
		run.MaterialsPlanned++
		run.RequirementsCreated += created
	}

	completed := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &completed
	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// planMaterial plans one material under its per-(material, horizon)
// lock. All of its requirement rows commit or none do.
func (s *mrpService) planMaterial(ctx context.Context, tenantID uuid.UUID, run *models.MRPRun,
	materialID uuid.UUID, demands []*models.DemandRecord, runStart, horizonEnd time.Time) (int, error) {

	material, err := s.materialRepo.GetByID(ctx, tenantID, materialID)
	if err != nil {
		return 0, err
	}
	if material.LeadTimeDays < 0 {
		return 0, &common.InsufficientDataError{Message: "material has no usable lead time"}
	}

	acquired, err := s.cache.AcquireRunLock(ctx, tenantID, materialID, run.HorizonDays, runLockTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, fmt.Errorf("planning already in progress for material %s", materialID.String())
	}
	defer func() {
		if err := s.cache.ReleaseRunLock(context.WithoutCancel(ctx), tenantID, materialID, run.HorizonDays); err != nil {
			log.Printf("mrp run %s: releasing lock for material %s: %v", run.RunCode, materialID.String(), err)
		}
	}()

	onHand, err := s.lotRepo.AvailableQuantity(ctx, tenantID, materialID, runStart)
	if err != nil {
		return 0, err
	}

	buckets := bucketDemands(demands)
	requirements := s.netBuckets(material, run, buckets, onHand, runStart)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := s.requirementRepo.SupersedeForMaterial(ctx, tx, tenantID, materialID, horizonEnd); err != nil {
		return 0, err
	}
	for _, req := range requirements {
		if err := s.requirementRepo.CreateTx(ctx, tx, req); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(requirements), nil
}

// netBuckets walks the date buckets in order, consuming projected
// on-hand stock and emitting one requirement per bucket. Stock below
// the safety floor is not available for netting.
func (s *mrpService) netBuckets(material *models.Material, run *models.MRPRun,
	buckets []demandBucket, onHand decimal.Decimal, runStart time.Time) []*models.MaterialRequirement {

	requirements := make([]*models.MaterialRequirement, 0, len(buckets))
	running := onHand
	for _, bucket := range buckets {
		usable := decimal.Max(decimal.Zero, running.Sub(material.SafetyStock))
		net := decimal.Max(decimal.Zero, bucket.gross.Sub(usable))
		available := running
		running = decimal.Max(decimal.Zero, running.Sub(bucket.gross))

		orderQty := plannedOrderQuantity(material, net)
		release := bucket.date.AddDate(0, 0, -material.LeadTimeDays)
		priority := models.PriorityNormal
		if orderQty.IsPositive() && release.Before(runStart) {
			priority = models.PriorityElevated
		}

		sourceType, sourceID := bucketSource(bucket)
		requirements = append(requirements, &models.MaterialRequirement{
			ID:                 uuid.New(),
			TenantID:           material.TenantID,
			RunID:              run.ID,
			MaterialID:         material.ID,
			RequirementDate:    bucket.date,
			RequiredQuantity:   bucket.gross,
			AvailableQuantity:  available,
			NetRequirement:     net,
			PlannedOrderQty:    orderQty,
			PlannedReleaseDate: release,
			SourceType:         sourceType,
			SourceID:           sourceID,
			Priority:           priority,
			Status:             models.RequirementPlanned,
			LeadTimeDays:       material.LeadTimeDays,
			SafetyStock:        material.SafetyStock,
			EconomicOrderQty:   material.EconomicOrderQty,
		})
	}
	return requirements
}

// plannedOrderQuantity applies the lot-sizing policy: order the EOQ
// when it covers the net requirement, otherwise lot-for-lot, then round
// up to the order multiple.
func plannedOrderQuantity(material *models.Material, net decimal.Decimal) decimal.Decimal {
	if !net.IsPositive() {
		return decimal.Zero
	}
	qty := net
	if material.EconomicOrderQty != nil && material.EconomicOrderQty.GreaterThanOrEqual(net) {
		qty = *material.EconomicOrderQty
	}
	if material.OrderMultiple != nil && material.OrderMultiple.IsPositive() {
		qty = qty.Div(*material.OrderMultiple).Ceil().Mul(*material.OrderMultiple)
	}
	return qty
}

func bucketDemands(demands []*models.DemandRecord) []demandBucket {
	byDate := make(map[time.Time]*demandBucket)
	for _, d := range demands {
		day := dayOf(d.NeedDate)
		b, ok := byDate[day]
		if !ok {
			b = &demandBucket{date: day, gross: decimal.Zero}
			byDate[day] = b
		}
		b.gross = b.gross.Add(d.Quantity)
		b.demands = append(b.demands, d)
	}

	buckets := make([]demandBucket, 0, len(byDate))
	for _, b := range byDate {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].date.Before(buckets[j].date) })
	return buckets
}

// bucketSource attributes a bucket to a single demand where possible;
// mixed buckets keep the highest-priority source type without an ID.
func bucketSource(bucket demandBucket) (models.DemandSourceType, *uuid.UUID) {
	if len(bucket.demands) == 1 {
		return bucket.demands[0].SourceType, bucket.demands[0].SourceID
	}
	top := bucket.demands[0]
	for _, d := range bucket.demands[1:] {
		if d.Priority > top.Priority {
			top = d
		}
	}
	return top.SourceType, nil
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *mrpService) failRun(ctx context.Context, run *models.MRPRun, cause error) (*models.MRPRun, error) {
	msg := cause.Error()
	completed := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = &msg
	run.CompletedAt = &completed
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("mrp run %s: recording failure: %v", run.RunCode, err)
	}
	return nil, cause
}

func (s *mrpService) GetRun(ctx context.Context, tenantID, runID uuid.UUID) (*models.MRPRun, error) {
	return s.runRepo.GetByID(ctx, tenantID, runID)
}

func (s *mrpService) ListRuns(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MRPRun, error) {
	return s.runRepo.List(ctx, tenantID, limit, offset)
}

func (s *mrpService) ListRequirementsByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*models.MaterialRequirement, error) {
	if _, err := s.runRepo.GetByID(ctx, tenantID, runID); err != nil {
		return nil, err
	}
	return s.requirementRepo.ListByRun(ctx, tenantID, runID)
}

func (s *mrpService) ListRequirementsByMaterial(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialRequirement, error) {
	return s.requirementRepo.ListByMaterial(ctx, tenantID, materialID, limit, offset)
}

// ConvertRequirement marks a planned requirement as converted into a
// firm order.
func (s *mrpService) ConvertRequirement(ctx context.Context, tenantID, requirementID uuid.UUID, orderID *uuid.UUID) (*models.MaterialRequirement, error) {
	req, err := s.requirementRepo.GetByID(ctx, tenantID, requirementID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequirementPlanned && req.Status != models.RequirementReleased {
		return nil, &common.InvalidStateTransitionError{
			From: string(req.Status),
			To:   string(models.RequirementConverted),
		}
	}
	if err := s.requirementRepo.UpdateStatus(ctx, tenantID, requirementID, models.RequirementConverted, orderID); err != nil {
		return nil, err
	}
	req.Status = models.RequirementConverted
	if orderID != nil {
		req.SourceID = orderID
	}
	return req, nil
}
