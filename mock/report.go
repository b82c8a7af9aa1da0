package mock

import (
	"context"

	"github.com/fwojciec/rangegrab"
)

var _ rangegrab.ReportService = (*ReportService)(nil)

// ReportService is a mock implementation of rangegrab.ReportService.
type ReportService struct {
	CreateReportFn   func(ctx context.Context, report *rangegrab.Report) error
	FindReportByIDFn func(ctx context.Context, id string) (*rangegrab.Report, error)
	FindReportsFn    func(ctx context.Context, filter rangegrab.ReportFilter) ([]*rangegrab.Report, error)
}

func (s *ReportService) CreateReport(ctx context.Context, report *rangegrab.Report) error {
	return s.CreateReportFn(ctx, report)
}

func (s *ReportService) FindReportByID(ctx context.Context, id string) (*rangegrab.Report, error) {
	return s.FindReportByIDFn(ctx, id)
}

func (s *ReportService) FindReports(ctx context.Context, filter rangegrab.ReportFilter) ([]*rangegrab.Report, error) {
	return s.FindReportsFn(ctx, filter)
}
