package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"heronnest/internal/apperrors"
	"heronnest/internal/models"
	"heronnest/internal/repository"
)

type FileReportRequest struct {
	ReporterID     string `json:"-" validate:"required"`
	ReportedUserID string `json:"reportedUserId" validate:"required"`
	Reason         string `json:"reason" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=5000"`
}

type ReportService interface {
	FileReport(ctx context.Context, req FileReportRequest) (*models.Report, error)
	ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error)
	UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error
}

type reportService struct {
	reports  repository.ReportRepository
	validate *validator.Validate
}

func NewReportService(reports repository.ReportRepository, validate *validator.Validate) ReportService {
	return &reportService{reports: reports, validate: validate}
}

func validStatus(status models.ReportStatus) bool {
	switch status {
	case models.ReportPending, models.ReportReviewed, models.ReportResolved:
		return true
	}
	return false
}

func (s *reportService) FileReport(ctx context.Context, req FileReportRequest) (*models.Report, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	req.Description = strings.TrimSpace(req.Description)
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if req.ReportedUserID == req.ReporterID {
		return nil, apperrors.InvalidArg("cannot report yourself")
	}

	report := &models.Report{
		ReporterID:     req.ReporterID,
		ReportedUserID: req.ReportedUserID,
		Reason:         req.Reason,
		Description:    req.Description,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperrors.Internal("failed to file report", err)
	}
	return report, nil
}

// ListReports lists every report when status is empty.
func (s *reportService) ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error) {
	if status != "" && !validStatus(status) {
		return nil, apperrors.InvalidArg("unknown report status")
	}

	reports, err := s.reports.List(ctx, status)
	if err != nil {
		return nil, apperrors.Internal("failed to list reports", err)
	}
	return reports, nil
}

func (s *reportService) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error {
	if !validStatus(status) {
		return apperrors.InvalidArg("unknown report status")
	}

	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return storeError(err, "report")
	}

	if err := s.reports.UpdateStatus(ctx, reportID, status); err != nil {
		return apperrors.Internal("failed to update report", err)
	}
	return nil
}
