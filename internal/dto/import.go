package dto

import (
	"time"

	"github.com/campuslab/research-adm-api/internal/importer"
	"github.com/campuslab/research-adm-api/internal/service"
)

// ImportReportResponse is the API shape of an import report. The error
// list is capped for display; the counts always reflect the full run.
type ImportReportResponse struct {
	Domain       string                `json:"domain"`
	TotalRows    int                   `json:"total_rows"`
	SuccessCount int                   `json:"success_count"`
	SkipCount    int                   `json:"skip_count"`
	ErrorCount   int                   `json:"error_count"`
	Successes    []importer.RowSuccess `json:"successes,omitempty"`
	Skips        []importer.RowSkip    `json:"skips,omitempty"`
	Errors       []importer.RowError   `json:"errors,omitempty"`
	ErrorsShown  int                   `json:"errors_shown"`
}

// NewImportReportResponse flattens a report, keeping at most limit
// errors. A non-positive limit keeps them all.
func NewImportReportResponse(domain string, report *importer.Report, limit int) ImportReportResponse {
	errs := report.Errors
	if limit > 0 && len(errs) > limit {
		errs = errs[:limit]
	}
	return ImportReportResponse{
		Domain:       domain,
		TotalRows:    report.TotalRows,
		SuccessCount: report.SuccessCount,
		SkipCount:    report.SkipCount,
		ErrorCount:   report.ErrorCount,
		Successes:    report.Successes,
		Skips:        report.Skips,
		Errors:       errs,
		ErrorsShown:  len(errs),
	}
}

// ImportRunResponse is the API shape of an asynchronous run.
type ImportRunResponse struct {
	ID         string                `json:"id"`
	Domain     string                `json:"domain"`
	Status     string                `json:"status"`
	StartedAt  string                `json:"started_at"`
	FinishedAt string                `json:"finished_at,omitempty"`
	Report     *ImportReportResponse `json:"report,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// NewImportRunResponse converts a service run snapshot.
func NewImportRunResponse(run *service.ImportRun, errorLimit int) ImportRunResponse {
	out := ImportRunResponse{
		ID:        run.ID,
		Domain:    run.Domain,
		Status:    run.Status,
		StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
		Error:     run.Error,
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	if run.Report != nil {
		report := NewImportReportResponse(run.Domain, run.Report, errorLimit)
		out.Report = &report
	}
	return out
}
