package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"stockplan/internal/repositories"

	"github.com/google/uuid"
)

const (
	reportBucket    = "mrp-reports"
	reportURLExpiry = 24 * time.Hour
)

// ReportService exports a planning run's requirements as a CSV object
// and hands back a presigned download URL.
type ReportService interface {
	ExportRunReport(ctx context.Context, tenantID, runID uuid.UUID) (string, error)
}

type reportService struct {
	runRepo         repositories.MRPRunRepository
	requirementRepo repositories.RequirementRepository
	store           ObjectStore
}

func NewReportService(runRepo repositories.MRPRunRepository, requirementRepo repositories.RequirementRepository, store ObjectStore) ReportService {
	return &reportService{runRepo: runRepo, requirementRepo: requirementRepo, store: store}
}

func (s *reportService) ExportRunReport(ctx context.Context, tenantID, runID uuid.UUID) (string, error) {
	run, err := s.runRepo.GetByID(ctx, tenantID, runID)
	if err != nil {
		return "", err
	}
	requirements, err := s.requirementRepo.ListByRun(ctx, tenantID, runID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"material_id", "requirement_date", "required_qty", "available_qty",
		"net_requirement", "planned_order_qty", "planned_release_date",
		"priority", "status", "source_type",
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range requirements {
		row := []string{
			r.MaterialID.String(),
			r.RequirementDate.Format("2006-01-02"),
			r.RequiredQuantity.String(),
			r.AvailableQuantity.String(),
			r.NetRequirement.String(),
			r.PlannedOrderQty.String(),
			r.PlannedReleaseDate.Format("2006-01-02"),
			string(r.Priority),
			string(r.Status),
			string(r.SourceType),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	if err := s.store.EnsureBucketExists(ctx, reportBucket); err != nil {
		return "", err
	}
	objectName := fmt.Sprintf("%s/%s.csv", tenantID.String(), run.RunCode)
	if err := s.store.Upload(ctx, reportBucket, objectName, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "text/csv"); err != nil {
		return "", err
	}
	return s.store.GetPresignedURL(reportBucket, objectName, reportURLExpiry)
}
