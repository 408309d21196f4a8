package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/isdelr/mediinsight-be/internal/database"
	"github.com/isdelr/mediinsight-be/internal/models"
)

// ReportServiceProvider defines the interface for the report store.
type ReportServiceProvider interface {
	Append(ctx context.Context, report models.Report) (models.Report, error)
	ListByOwner(ctx context.Context, username string) ([]models.Report, error)
	ListAll(ctx context.Context) ([]models.Report, error)
	Get(ctx context.Context, id int64) (models.Report, error)
	Delete(ctx context.Context, id int64) (models.Report, error)
	Count(ctx context.Context) (int, error)
}

// ReportListener is notified after a report has been committed or removed.
type ReportListener interface {
	ReportCreated(report models.Report)
	ReportDeleted(report models.Report)
}

// ReportService persists predictions. It does not check who is asking;
// callers gate access through the access package.
type ReportService struct {
	db       *sql.DB
	now      func() time.Time
	listener ReportListener
}

// NewReportService creates a new ReportService.
func NewReportService(db *sql.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

// SetListener registers l to be told about appends and deletions.
func (s *ReportService) SetListener(l ReportListener) {
	s.listener = l
}

// newest first; the id breaks timestamp ties so the order is total
const reportOrder = " ORDER BY timestamp DESC, id DESC"

const reportColumns = "id, user, model_type, input_data, result, timestamp"

// Append stores report and returns it with its assigned id. A zero
// Timestamp is set to the current time. The insert is a single transaction.
func (s *ReportService) Append(ctx context.Context, report models.Report) (models.Report, error) {
	if report.Timestamp.IsZero() {
		report.Timestamp = s.now()
	}
	report.Timestamp = report.Timestamp.UTC()

	err := database.WithTx(ctx, s.db, func(tx database.DBTX) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO reports (user, model_type, input_data, result, timestamp) VALUES (?, ?, ?, ?, ?)",
			report.User, string(report.ModelType), report.InputData, report.Result, database.FormatTime(report.Timestamp))
		if err != nil {
			return err
		}
		report.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return models.Report{}, storageErr("append report", err)
	}

	if s.listener != nil {
		s.listener.ReportCreated(report)
	}
	return report, nil
}

// ListByOwner returns the reports owned by username, newest first.
func (s *ReportService) ListByOwner(ctx context.Context, username string) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE user = ?"+reportOrder, username)
	if err != nil {
		return nil, storageErr("list reports", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// ListAll returns every report, newest first.
func (s *ReportService) ListAll(ctx context.Context) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+reportColumns+" FROM reports"+reportOrder)
	if err != nil {
		return nil, storageErr("list reports", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

// Get retrieves a single report by id.
func (s *ReportService) Get(ctx context.Context, id int64) (models.Report, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	return scanReport(row)
}

// Delete removes a report and returns what was removed.
func (s *ReportService) Delete(ctx context.Context, id int64) (models.Report, error) {
	var removed models.Report
	err := database.WithTx(ctx, s.db, func(tx database.DBTX) error {
		var err error
		removed, err = scanReport(tx.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id); err != nil {
			return storageErr("delete report", err)
		}
		return nil
	})
	if err != nil {
		return models.Report{}, err
	}

	if s.listener != nil {
		s.listener.ReportDeleted(removed)
	}
	return removed, nil
}

// Count returns the total number of stored reports.
func (s *ReportService) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&n); err != nil {
		return 0, storageErr("count reports", err)
	}
	return n, nil
}

func scanReports(rows *sql.Rows) ([]models.Report, error) {
	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list reports", err)
	}
	return reports, nil
}

func scanReport(scanner interface{ Scan(...any) error }) (models.Report, error) {
	var (
		report    models.Report
		modelType string
		timestamp string
	)
	err := scanner.Scan(&report.ID, &report.User, &modelType, &report.InputData, &report.Result, &timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Report{}, ErrNotFound
		}
		return models.Report{}, storageErr("scan report", err)
	}
	report.ModelType = models.ModelKind(modelType)
	if report.Timestamp, err = database.ParseTime(timestamp); err != nil {
		return models.Report{}, storageErr("parse report time", err)
	}
	return report, nil
}
