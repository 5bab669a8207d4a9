package importer

import (
	"fmt"
	"strings"
)

// RowSuccess records an aggregate created from a row.
type RowSuccess struct {
	Row  int    `json:"row"`
	Name string `json:"name"`
}

// RowSkip records a row that matched an existing aggregate.
type RowSkip struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RowError records a row that failed validation or persistence.
type RowError struct {
	Row     int               `json:"row"`
	Message string            `json:"message"`
	Raw     map[string]string `json:"raw,omitempty"`
}

// Report is the append-only accumulator for one import run. It is never
// persisted and never shared across runs. The report itself does not
// truncate anything; limiting error display is the caller's concern.
type Report struct {
	TotalRows    int          `json:"total_rows"`
	SuccessCount int          `json:"success_count"`
	SkipCount    int          `json:"skip_count"`
	ErrorCount   int          `json:"error_count"`
	Successes    []RowSuccess `json:"successes,omitempty"`
	Skips        []RowSkip    `json:"skips,omitempty"`
	Errors       []RowError   `json:"errors,omitempty"`
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{}
}

// SetTotal records the number of data rows in the source.
func (r *Report) SetTotal(n int) {
	r.TotalRows = n
}

// AddSuccess records a created aggregate.
func (r *Report) AddSuccess(row int, name string) {
	r.SuccessCount++
	r.Successes = append(r.Successes, RowSuccess{Row: row, Name: name})
}

// AddSkip records a duplicate aggregate that was intentionally not
// re-created.
func (r *Report) AddSkip(row int, name, reason string) {
	r.SkipCount++
	r.Skips = append(r.Skips, RowSkip{Row: row, Name: name, Reason: reason})
}

// AddError records a failed row together with its raw values.
func (r *Report) AddError(row int, message string, raw map[string]string) {
	r.ErrorCount++
	r.Errors = append(r.Errors, RowError{Row: row, Message: message, Raw: raw})
}

// Summary renders a human-readable account of the run: the four counts,
// every skip and every error.
func (r *Report) Summary() string {
	return r.SummaryLimited(0)
}

// SummaryLimited renders the summary showing at most limit errors,
// noting how many were omitted. A non-positive limit shows them all.
func (r *Report) SummaryLimited(limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d rows: %d created, %d skipped, %d failed\n",
		r.TotalRows, r.SuccessCount, r.SkipCount, r.ErrorCount)
	for _, skip := range r.Skips {
		fmt.Fprintf(&b, "row %d skipped: %s (%s)\n", skip.Row, skip.Name, skip.Reason)
	}
	shown := r.Errors
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, rowErr := range shown {
		fmt.Fprintf(&b, "row %d error: %s\n", rowErr.Row, rowErr.Message)
	}
	if omitted := len(r.Errors) - len(shown); omitted > 0 {
		fmt.Fprintf(&b, "... and %d more errors\n", omitted)
	}
	return b.String()
}
