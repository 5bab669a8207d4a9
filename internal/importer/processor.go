package importer

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/campuslab/research-adm-api/pkg/metrics"
)

// Outcome is a handler's verdict for one row.
type Outcome struct {
	Name    string
	Created bool
	Reason  string
}

// AggregateHandler composes resolved entities into the target aggregate
// and persists it, or reports a duplicate.
type AggregateHandler interface {
	Domain() string
	Apply(ctx context.Context, stores Stores, row Row) (Outcome, error)
}

// Processor drives the import: parse, then per row validate, resolve and
// handle inside one transaction. Rows are processed strictly in file
// order; a failing row never stops the run.
type Processor struct {
	tx        TxRunner
	validator RowValidator
	handler   AggregateHandler
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewProcessor wires a domain's validator and handler to a transaction
// runner. Logger and metrics may be nil.
func NewProcessor(tx TxRunner, validator RowValidator, handler AggregateHandler, logger *zap.Logger, m *metrics.Metrics) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		tx:        tx,
		validator: validator,
		handler:   handler,
		logger:    logger,
		metrics:   m,
	}
}

// Run imports every row of the CSV source and returns the accumulated
// report. Only a file-level parse failure returns an error; every row
// failure is converted into a report entry and processing continues.
func (p *Processor) Run(ctx context.Context, source io.Reader) (*Report, error) {
	rows, err := ParseCSV(source)
	if err != nil {
		return nil, err
	}

	report := NewReport()
	report.SetTotal(len(rows))

	for _, row := range rows {
		p.processRow(ctx, row, report)
	}

	p.logger.Sugar().Infow("import finished",
		"domain", p.handler.Domain(),
		"total", report.TotalRows,
		"success", report.SuccessCount,
		"skip", report.SkipCount,
		"error", report.ErrorCount,
	)
	return report, nil
}

func (p *Processor) processRow(ctx context.Context, row Row, report *Report) {
	result := p.validator.Validate(row)
	if !result.IsValid() {
		report.AddError(row.Number, strings.Join(result.Errors, "; "), row.Values)
		p.observe("error")
		return
	}

	var outcome Outcome
	err := p.tx.InTransaction(ctx, func(stores Stores) error {
		var applyErr error
		outcome, applyErr = p.handler.Apply(ctx, stores, row)
		return applyErr
	})
	if err != nil {
		report.AddError(row.Number, err.Error(), row.Values)
		p.observe("error")
		p.logger.Sugar().Warnw("row failed", "domain", p.handler.Domain(), "row", row.Number, "error", err)
		return
	}

	if outcome.Created {
		report.AddSuccess(row.Number, outcome.Name)
		p.observe("success")
		return
	}
	report.AddSkip(row.Number, outcome.Name, outcome.Reason)
	p.observe("skip")
}

func (p *Processor) observe(result string) {
	p.metrics.ObserveRow(p.handler.Domain(), result)
}
