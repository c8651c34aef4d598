package jobs

import (
	"context"
	"log"
	"time"

	"stockplan/internal/repositories"
)

// ExpirySweepService flips lots past their expiration date to the
// expired status. Read paths already treat such lots as expired; the
// sweep makes the stored status catch up.
type ExpirySweepService struct {
	lotRepo repositories.LotRepository
}

func NewExpirySweepService(lotRepo repositories.LotRepository) *ExpirySweepService {
	return &ExpirySweepService{lotRepo: lotRepo}
}

// Sweep marks all overdue lots across tenants and returns the count.
func (s *ExpirySweepService) Sweep(ctx context.Context, asOf time.Time) (int64, error) {
	return s.lotRepo.MarkExpired(ctx, asOf)
}

// ScheduledSweep is the gocron entry point.
func (s *ExpirySweepService) ScheduledSweep(ctx context.Context) error {
	marked, err := s.Sweep(ctx, time.Now())
	if err != nil {
		log.Printf("Expiry sweep failed: %v", err)
		return err
	}
	if marked > 0 {
		log.Printf("Expiry sweep marked %d lots as expired", marked)
	}
	return nil
}
