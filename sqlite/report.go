package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
)

// Compile-time interface verification.
var _ rangegrab.ReportService = (*ReportService)(nil)

// ReportService implements rangegrab.ReportService using SQLite.
type ReportService struct {
	db *DB
}

// NewReportService creates a new ReportService.
func NewReportService(db *DB) *ReportService {
	return &ReportService{db: db}
}

// CreateReport stores a report and its items. An ID and creation time are
// assigned unless the report already carries them.
func (s *ReportService) CreateReport(ctx context.Context, report *rangegrab.Report) error {
	if err := report.Validate(); err != nil {
		return err
	}
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, batch, downloader, version, status, bytes, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Batch, report.Downloader, report.Version, string(report.Status),
		report.Bytes, report.Error, report.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY) {
			return rangegrab.Errorf(rangegrab.ECONFLICT, "report %s already exists", report.ID)
		}
		return err
	}

	for i, item := range report.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_items (report_id, position, name, status, attempts, bytes, checksum)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, report.ID, i, item.Name, item.Status.String(), item.Attempts, item.Bytes, item.Checksum); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindReportByID retrieves a report and its items by ID.
func (s *ReportService) FindReportByID(ctx context.Context, id string) (*rangegrab.Report, error) {
	reports, err := s.FindReports(ctx, rangegrab.ReportFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, rangegrab.Errorf(rangegrab.ENOTFOUND, "report not found")
	}
	return reports[0], nil
}

// FindReports retrieves reports matching the filter, newest first.
func (s *ReportService) FindReports(ctx context.Context, filter rangegrab.ReportFilter) ([]*rangegrab.Report, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, batch, downloader, version, status, bytes, error, created_at FROM reports WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Batch != nil {
		query.WriteString(" AND batch = ?")
		args = append(args, *filter.Batch)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*rangegrab.Report
	for rows.Next() {
		var report rangegrab.Report
		var status, createdAt string

		if err := rows.Scan(&report.ID, &report.Batch, &report.Downloader, &report.Version, &status,
			&report.Bytes, &report.Error, &createdAt); err != nil {
			return nil, err
		}
		report.Status = rangegrab.ReportStatus(status)

		if report.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, report := range reports {
		if report.Items, err = s.findItems(ctx, report.ID); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

func (s *ReportService) findItems(ctx context.Context, reportID string) ([]rangegrab.ItemReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, attempts, bytes, checksum
		FROM report_items
		WHERE report_id = ?
		ORDER BY position
	`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []rangegrab.ItemReport{}
	for rows.Next() {
		var item rangegrab.ItemReport
		var status string
		if err := rows.Scan(&item.Name, &status, &item.Attempts, &item.Bytes, &item.Checksum); err != nil {
			return nil, err
		}
		if err := item.Status.UnmarshalText([]byte(status)); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteReport permanently removes a report and its items.
func (s *ReportService) DeleteReport(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return rangegrab.Errorf(rangegrab.ENOTFOUND, "report not found")
	}
	return nil
}
