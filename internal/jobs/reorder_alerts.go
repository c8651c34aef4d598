package jobs

import (
	"context"
	"log"

	"stockplan/internal/models"
	"stockplan/internal/repositories"
)

// ReorderAlertService surfaces materials whose available stock has
// dropped below the reorder point.
type ReorderAlertService struct {
	materialRepo repositories.MaterialRepository
}

func NewReorderAlertService(materialRepo repositories.MaterialRepository) *ReorderAlertService {
	return &ReorderAlertService{materialRepo: materialRepo}
}

// CheckReorderPoints scans the whole catalog for shortfalls.
func (s *ReorderAlertService) CheckReorderPoints(ctx context.Context) ([]*models.ReorderAlert, error) {
	return s.materialRepo.ListBelowReorderPoint(ctx)
}

// LogAlerts writes one line per shortfall.
func (s *ReorderAlertService) LogAlerts(alerts []*models.ReorderAlert) {
	for _, alert := range alerts {
		log.Printf("Reorder alert: material '%s' (%s) for tenant %s has %s available (reorder point: %s)",
			alert.Name,
			alert.Code,
			alert.TenantID.String(),
			alert.Available.String(),
			alert.ReorderPoint.String())
	}
}

// ScheduledReorderCheck is the gocron entry point.
func (s *ReorderAlertService) ScheduledReorderCheck(ctx context.Context) error {
	alerts, err := s.CheckReorderPoints(ctx)
	if err != nil {
		log.Printf("Reorder point check failed: %v", err)
		return err
	}
	s.LogAlerts(alerts)
	return nil
}
