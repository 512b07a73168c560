package repository

import (
	"context"
	"fmt"

	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

type reportRepository struct {
	store docstore.Store
}

func NewReportRepository(store docstore.Store) ReportRepository {
	return &reportRepository{store: store}
}

func reportPath(reportID string) string {
	return docstore.Doc(models.CollectionReports, reportID)
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	id, err := r.store.Create(ctx, models.CollectionReports, map[string]any{
		models.FieldReportedUserID: report.ReportedUserID,
		models.FieldReporterID:     report.ReporterID,
		models.FieldReason:         report.Reason,
		models.FieldDescription:    report.Description,
		models.FieldCreatedAt:      docstore.ServerTimestamp,
		models.FieldStatus:         string(models.ReportPending),
	})
	if err != nil {
		return fmt.Errorf("failed to file report: %w", err)
	}

	stored, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	*report = *stored
	return nil
}

func (r *reportRepository) Get(ctx context.Context, reportID string) (*models.Report, error) {
	doc, err := r.store.Get(ctx, reportPath(reportID))
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", reportID, err)
	}
	return reportFromDoc(doc), nil
}

// List returns reports newest first, all of them when status is empty.
func (r *reportRepository) List(ctx context.Context, status models.ReportStatus) ([]*models.Report, error) {
	q := docstore.From(models.CollectionReports)
	if status != "" {
		q = q.Where(models.FieldStatus, docstore.OpEqual, string(status))
	}

	docs, err := r.store.Find(ctx, q.OrderBy(models.FieldCreatedAt, docstore.Desc))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return decodeAll(docs, reportFromDoc), nil
}

func (r *reportRepository) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error {
	err := r.store.Update(ctx, reportPath(reportID), []docstore.Update{
		{Path: models.FieldStatus, Value: string(status)},
	})
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", reportID, err)
	}
	return nil
}

func reportFromDoc(doc docstore.Document) *models.Report {
	d := doc.Data
	return &models.Report{
		ReportID:       doc.ID,
		ReportedUserID: docstore.String(d, models.FieldReportedUserID),
		ReporterID:     docstore.String(d, models.FieldReporterID),
		Reason:         docstore.String(d, models.FieldReason),
		Description:    docstore.String(d, models.FieldDescription),
		CreatedAt:      docstore.Time(d, models.FieldCreatedAt),
		Status:         models.ReportStatus(docstore.String(d, models.FieldStatus)),
	}
}
