package importer

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationResult aggregates every failing check for one row. Rows are
// never short-circuited: the report should name all bad fields at once.
type ValidationResult struct {
	Errors []string
}

// IsValid reports whether the row passed every check.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// RowValidator runs the domain's business-rule checks against a row.
type RowValidator interface {
	Validate(row Row) ValidationResult
}

// Source dates are day-month-year with two- or four-digit years.
var dateLayouts = []string{"02-01-06", "02/01/06", "02-01-2006", "02/01/2006"}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected dd-mm-yy", raw)
}

var fieldValidator = validator.New()

func validEmail(raw string) bool {
	return fieldValidator.Var(raw, "required,email") == nil
}

func parseValue(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric value %q", raw)
	}
	return value, nil
}

// checkRequired appends an error for every required column that is blank.
func checkRequired(row Row, result *ValidationResult, columns ...string) {
	for _, column := range columns {
		if row.Value(column) == "" {
			result.addf("%s is required", column)
		}
	}
}

// checkDate validates an optional date column, returning the parsed time
// when present and well-formed.
func checkDate(row Row, result *ValidationResult, column string) (time.Time, bool) {
	raw := row.Value(column)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := parseDate(raw)
	if err != nil {
		result.addf("%s: %v", column, err)
		return time.Time{}, false
	}
	return t, true
}

// checkEmail validates an optional email column.
func checkEmail(row Row, result *ValidationResult, column string) {
	raw := row.Value(column)
	if raw == "" {
		return
	}
	if !validEmail(raw) {
		result.addf("%s: invalid email %q", column, raw)
	}
}

// checkDateOrder enforces end >= start when both dates parsed.
func checkDateOrder(result *ValidationResult, start, end time.Time, startOK, endOK bool, startCol, endCol string) {
	if startOK && endOK && end.Before(start) {
		result.addf("%s must not be before %s", endCol, startCol)
	}
}
