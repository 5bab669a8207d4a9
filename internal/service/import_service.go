package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuslab/research-adm-api/internal/importer"
	"github.com/campuslab/research-adm-api/pkg/cache"
	"github.com/campuslab/research-adm-api/pkg/config"
	"github.com/campuslab/research-adm-api/pkg/errors"
	"github.com/campuslab/research-adm-api/pkg/export"
	"github.com/campuslab/research-adm-api/pkg/jobs"
	"github.com/campuslab/research-adm-api/pkg/metrics"
)

// Import domains accepted by the pipeline.
const (
	DomainInitiatives  = "initiatives"
	DomainScholarships = "scholarships"
	DomainUnits        = "units"
)

// Run statuses for asynchronous imports.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// ImportRun tracks one asynchronous import from acceptance to completion.
type ImportRun struct {
	ID         string           `json:"id"`
	Domain     string           `json:"domain"`
	Status     string           `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Report     *importer.Report `json:"report,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ImportService builds the per-domain pipelines and executes import runs,
// synchronously or through the background queue.
type ImportService struct {
	tx          importer.TxRunner
	lookupCache *cache.LookupCache
	cfg         config.ImportConfig
	logger      *zap.Logger
	metrics     *metrics.Metrics

	queue *jobs.Queue

	mu   sync.RWMutex
	runs map[string]*ImportRun
}

// NewImportService constructs an ImportService. The cache and metrics may
// be nil.
func NewImportService(tx importer.TxRunner, lookupCache *cache.LookupCache, cfg config.ImportConfig, logger *zap.Logger, m *metrics.Metrics) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultInitiativeType == "" {
		cfg.DefaultInitiativeType = "Research Project"
	}
	if cfg.PlaceholderDomain == "" {
		cfg.PlaceholderDomain = "noemail.local"
	}
	if cfg.ExternalOrganization == "" {
		cfg.ExternalOrganization = "Organizacao Externa"
	}
	if cfg.ExternalCampus == "" {
		cfg.ExternalCampus = "Externo"
	}

	s := &ImportService{
		tx:          tx,
		lookupCache: lookupCache,
		cfg:         cfg,
		logger:      logger,
		metrics:     m,
		runs:        make(map[string]*ImportRun),
	}
	s.queue = jobs.NewQueue("imports", s.handleTask, jobs.QueueConfig{
		Workers:    cfg.AsyncWorkers,
		BufferSize: cfg.AsyncBufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers for asynchronous runs.
func (s *ImportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *ImportService) Stop() {
	s.queue.Stop()
}

// Domains lists the import domains the service accepts.
func (s *ImportService) Domains() []string {
	return []string{DomainInitiatives, DomainScholarships, DomainUnits}
}

// Run executes a full import synchronously and returns its report. Each
// call builds a fresh pipeline so placeholder-email bookkeeping never
// leaks between runs.
func (s *ImportService) Run(ctx context.Context, domain string, source io.Reader) (*importer.Report, error) {
	processor, err := s.buildProcessor(domain)
	if err != nil {
		return nil, err
	}

	report, err := processor.Run(ctx, source)
	if err != nil {
		s.metrics.ObserveRun(domain, RunStatusFailed)
		var parseErr *importer.ParseError
		if stderrors.As(err, &parseErr) {
			return nil, errors.Wrap(err, errors.ErrParse.Code, errors.ErrParse.Status, parseErr.Error())
		}
		return nil, err
	}

	s.metrics.ObserveRun(domain, RunStatusSuccess)
	return report, nil
}

// RunAsync accepts the file content, registers a run and hands it to the
// queue. The returned run is a snapshot in the running state.
func (s *ImportService) RunAsync(domain string, content []byte) (*ImportRun, error) {
	if !s.knownDomain(domain) {
		return nil, errors.Clone(errors.ErrUnknownDomain, fmt.Sprintf("unknown import domain %q", domain))
	}

	run := &ImportRun{
		ID:        uuid.NewString(),
		Domain:    domain,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	task := jobs.Task{ID: run.ID, Domain: domain, Payload: content}
	if err := s.queue.Enqueue(task); err != nil {
		s.finishRun(run.ID, nil, err)
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "enqueue import run")
	}
	snapshot := *run
	return &snapshot, nil
}

// GetRun returns a snapshot of a registered run.
func (s *ImportService) GetRun(id string) (*ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, errors.Clone(errors.ErrNotFound, fmt.Sprintf("import run %s not found", id))
	}
	snapshot := *run
	return &snapshot, nil
}

// ListRuns returns snapshots of every registered run, newest first.
func (s *ImportService) ListRuns() []*ImportRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ImportRun, 0, len(s.runs))
	for _, run := range s.runs {
		snapshot := *run
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

func (s *ImportService) handleTask(ctx context.Context, task jobs.Task) error {
	content, ok := task.Payload.([]byte)
	if !ok {
		err := fmt.Errorf("unexpected payload type %T", task.Payload)
		s.finishRun(task.ID, nil, err)
		return err
	}

	report, err := s.Run(ctx, task.Domain, bytes.NewReader(content))
	s.finishRun(task.ID, report, err)
	return err
}

func (s *ImportService) finishRun(id string, report *importer.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Report = report
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		return
	}
	run.Status = RunStatusSuccess
}

func (s *ImportService) knownDomain(domain string) bool {
	switch domain {
	case DomainInitiatives, DomainScholarships, DomainUnits:
		return true
	}
	return false
}

func (s *ImportService) buildProcessor(domain string) (*importer.Processor, error) {
	people := importer.NewPersonResolver(s.cfg.PlaceholderDomain)
	lookups := importer.NewLookupResolver(s.lookupCache)

	var validator importer.RowValidator
	var handler importer.AggregateHandler
	switch domain {
	case DomainInitiatives:
		units := importer.NewUnitResolver(lookups, s.cfg.ExternalOrganization, s.cfg.ExternalCampus)
		validator = importer.InitiativeValidator{}
		handler = importer.NewInitiativeHandler(people, lookups, units, s.cfg.DefaultInitiativeType, s.logger)
	case DomainScholarships:
		validator = importer.ScholarshipValidator{}
		handler = importer.NewScholarshipHandler(people, lookups)
	case DomainUnits:
		validator = importer.UnitValidator{}
		handler = importer.NewUnitHandler(people, lookups)
	default:
		return nil, errors.Clone(errors.ErrUnknownDomain, fmt.Sprintf("unknown import domain %q", domain))
	}

	return importer.NewProcessor(s.tx, validator, handler, s.logger, s.metrics), nil
}

// ReportDataset flattens a report into an exportable dataset: summary
// counts on top, then one row per outcome in file order.
func ReportDataset(domain string, report *importer.Report) export.Dataset {
	dataset := export.Dataset{
		Summary: []string{
			fmt.Sprintf("import domain: %s", domain),
			fmt.Sprintf("total rows: %d", report.TotalRows),
			fmt.Sprintf("created: %d", report.SuccessCount),
			fmt.Sprintf("skipped: %d", report.SkipCount),
			fmt.Sprintf("failed: %d", report.ErrorCount),
		},
		Headers: []string{"row", "outcome", "name", "detail"},
	}

	type line struct {
		row     int
		outcome string
		name    string
		detail  string
	}
	lines := make([]line, 0, len(report.Successes)+len(report.Skips)+len(report.Errors))
	for _, s := range report.Successes {
		lines = append(lines, line{row: s.Row, outcome: "created", name: s.Name})
	}
	for _, s := range report.Skips {
		lines = append(lines, line{row: s.Row, outcome: "skipped", name: s.Name, detail: s.Reason})
	}
	for _, e := range report.Errors {
		lines = append(lines, line{row: e.Row, outcome: "error", detail: e.Message})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].row < lines[j].row })

	for _, l := range lines {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"row":     strconv.Itoa(l.row),
			"outcome": l.outcome,
			"name":    l.name,
			"detail":  l.detail,
		})
	}
	return dataset
}
