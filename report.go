package rangegrab

import (
	"context"
	"time"
)

// ReportStatus is the batch-level outcome.
type ReportStatus string

// ReportStatus values.
const (
	ReportDone     ReportStatus = "done"
	ReportFailed   ReportStatus = "failed"
	ReportCanceled ReportStatus = "canceled"
)

// Report is the completion report of one batch.
type Report struct {
	ID         string       `json:"id"`
	Batch      string       `json:"item"`
	Downloader string       `json:"downloader"`
	Version    string       `json:"version"`
	Status     ReportStatus `json:"status"`
	Items      []ItemReport `json:"items"`
	Bytes      int64        `json:"bytes"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// ItemReport is the reported outcome of one sub-item.
type ItemReport struct {
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`
	Bytes    int64  `json:"bytes"`
	Checksum string `json:"checksum,omitempty"`
}

// NewReport builds a report from the current sub-item outcomes of b.
// Byte counts and checksums are left for the caller to fill in.
func NewReport(b *Batch, status ReportStatus) *Report {
	r := &Report{
		Batch:  b.Name,
		Status: status,
		Items:  make([]ItemReport, len(b.Items)),
	}
	for i, item := range b.Items {
		r.Items[i] = ItemReport{
			Name:     item.Name,
			Status:   item.Status,
			Attempts: item.Attempts,
		}
	}
	return r
}

// Validate returns an error if the report contains invalid fields.
func (r *Report) Validate() error {
	if r.Batch == "" {
		return Errorf(EINVALID, "report batch required")
	}
	switch r.Status {
	case ReportDone, ReportFailed, ReportCanceled:
	default:
		return Errorf(EINVALID, "unknown report status %q", r.Status)
	}
	return nil
}

// ReportService represents a service for journaling batch reports.
type ReportService interface {
	// CreateReport stores a report, assigning its ID and creation time.
	CreateReport(ctx context.Context, report *Report) error

	// FindReportByID retrieves a report by ID.
	// Returns ENOTFOUND if the report does not exist.
	FindReportByID(ctx context.Context, id string) (*Report, error)

	// FindReports retrieves reports matching the filter, newest first.
	FindReports(ctx context.Context, filter ReportFilter) ([]*Report, error)
}

// ReportFilter represents a filter for FindReports.
type ReportFilter struct {
	ID     *string       `json:"id"`
	Batch  *string       `json:"batch"`
	Status *ReportStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
