package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/crawl"
)

// Run executes the reports command.
func (c *ReportsCmd) Run(deps *Dependencies) error {
	filter := rangegrab.ReportFilter{Limit: c.Limit}
	if c.Batch != "" {
		filter.Batch = &c.Batch
	}
	if c.Status != "" {
		status := rangegrab.ReportStatus(c.Status)
		filter.Status = &status
	}

	reports, err := deps.Reports.FindReports(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rangegrab.ErrorMessage(err))
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(deps.Stdout, "No reports found.")
		return nil
	}

	for _, r := range reports {
		fmt.Fprintf(deps.Stdout, "%s  %s  %-8s  %8s  %s\n",
			r.CreatedAt.Format(time.RFC3339), r.Batch, r.Status, crawl.FormatBytes(r.Bytes), r.ID)
		if r.Error != "" {
			fmt.Fprintf(deps.Stdout, "    error: %s\n", r.Error)
		}
		if c.Items {
			for _, item := range r.Items {
				fmt.Fprintf(deps.Stdout, "    %-6s  %-9s  %2d attempts  %s\n",
					item.Name, item.Status, item.Attempts, crawl.FormatBytes(item.Bytes))
			}
		}
	}
	return nil
}
