package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vsinha/poimport/pkg/application/dto"
	"github.com/vsinha/poimport/pkg/application/services/aggregation"
	"github.com/vsinha/poimport/pkg/application/services/allocation"
	"github.com/vsinha/poimport/pkg/application/services/expansion"
	"github.com/vsinha/poimport/pkg/application/services/extraction"
	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
	"github.com/vsinha/poimport/pkg/domain/services"
	"github.com/vsinha/poimport/pkg/infrastructure/events"
	"github.com/vsinha/poimport/pkg/infrastructure/metrics"
)

const (
	openStage      = "open"
	aggregateStage = "aggregate"
	historyStage   = "history"
)

// Dependencies are the collaborators a pipeline run talks to. Only Catalog
// is required; a nil History merges zeros and a nil Sequences always starts
// numbering at Config.Start.
type Dependencies struct {
	Documents repositories.DocumentSource
	Catalog   repositories.CatalogProvider
	History   repositories.HistoryProvider
	Sequences repositories.SequenceStore
	Metrics   *metrics.Registry
	Events    events.EventStore
}

// Config holds configuration for the pipeline
type Config struct {
	Scanner     extraction.Config
	DateLayouts []string
	Limits      services.Limits
	Expansion   expansion.Config
	Aggregation aggregation.Config

	// Start is the first order-reference number when the sequence store has
	// none. ForceStart uses it even when the store has a value.
	Start      int
	ForceStart bool

	Logger *slog.Logger
}

// DefaultConfig returns the pipeline configuration numbering from OATS00391
func DefaultConfig() Config {
	return Config{
		Scanner:     extraction.DefaultConfig(),
		Limits:      services.DefaultLimits,
		Aggregation: aggregation.DefaultConfig(),
		Start:       391,
	}
}

// PipelineOrchestrator runs scanner, validator, expander, aggregator and
// allocator in order over one batch of purchase orders
type PipelineOrchestrator struct {
	deps       Dependencies
	scanner    *extraction.Scanner
	validator  *services.LineValidator
	expander   *expansion.Expander
	aggregator *aggregation.Aggregator
	allocator  *allocation.Allocator
	prefix     string
	start      int
	forceStart bool
	logger     *slog.Logger
}

// NewPipelineOrchestrator creates a new pipeline orchestrator
func NewPipelineOrchestrator(deps Dependencies, config Config) (*PipelineOrchestrator, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog provider is required")
	}
	if config.Start < 0 {
		return nil, fmt.Errorf("starting sequence cannot be negative, got %d", config.Start)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	config.Scanner.Logger = logger.With("stage", "scan")
	config.Expansion.Logger = logger.With("stage", "expand")
	config.Aggregation.Logger = logger.With("stage", aggregateStage)

	return &PipelineOrchestrator{
		deps:       deps,
		scanner:    extraction.NewScanner(config.Scanner),
		validator:  services.NewLineValidator(config.DateLayouts...).WithLimits(config.Limits),
		expander:   expansion.NewExpander(deps.Catalog, config.Expansion),
		aggregator: aggregation.NewAggregator(config.Aggregation),
		allocator:  allocation.NewAllocator(logger.With("stage", "allocate")),
		prefix:     config.Aggregation.Prefix,
		start:      config.Start,
		forceStart: config.ForceStart,
		logger:     logger,
	}, nil
}

// Run opens and scans each document, then processes every extracted line as
// one batch. A document that cannot be opened is reported and skipped.
// On a fatal error the partial result is returned alongside it.
func (po *PipelineOrchestrator) Run(ctx context.Context, paths []string) (*dto.PipelineResult, error) {
	if po.deps.Documents == nil {
		return nil, fmt.Errorf("no document source configured")
	}
	run := dto.NewPipelineRun()
	result := &dto.PipelineResult{Run: run}

	began := time.Now()
	var openDiags entities.Diagnostics
	var docs []*entities.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		doc, err := po.deps.Documents.Open(ctx, path)
		if err != nil {
			po.logger.Warn("skipping document", "path", path, "error", err)
			openDiags = append(openDiags, entities.Diagnostic{
				Kind:     entities.ExtractionError,
				Stage:    openStage,
				Document: path,
				Message:  err.Error(),
			})
			continue
		}
		docs = append(docs, doc)
	}
	po.record(run, openStage, len(paths), len(docs), time.Since(began), openDiags)

	began = time.Now()
	var raw []*entities.RawLine
	var scanDiags entities.Diagnostics
	pages := 0
	for _, doc := range docs {
		lines, diags := po.scanner.Scan(doc)
		raw = append(raw, lines...)
		scanDiags = append(scanDiags, diags...)
		pages += len(doc.Pages)
	}
	po.record(run, "scan", pages, len(raw), time.Since(began), scanDiags)

	return po.process(ctx, result, raw)
}

// ProcessLines runs the pipeline over lines that were already tabulated,
// such as a purchase-order spreadsheet
func (po *PipelineOrchestrator) ProcessLines(ctx context.Context, lines []*entities.RawLine) (*dto.PipelineResult, error) {
	return po.process(ctx, &dto.PipelineResult{Run: dto.NewPipelineRun()}, lines)
}

func (po *PipelineOrchestrator) process(ctx context.Context, result *dto.PipelineResult, raw []*entities.RawLine) (*dto.PipelineResult, error) {
	run := result.Run
	result.RawLines = raw
	if m := po.deps.Metrics; m != nil {
		m.RawLines.Add(float64(len(raw)))
	}

	// Step 1: drop lines that cannot be imported
	began := time.Now()
	validation := po.validator.Validate(raw)
	result.Dropped = validation.Dropped
	po.record(run, "validate", len(raw), len(validation.Valid), time.Since(began), validation.Diagnostics)
	if m := po.deps.Metrics; m != nil {
		m.LinesDropped.Add(float64(validation.Dropped))
	}
	if len(validation.Valid) == 0 {
		return result, fmt.Errorf("%d lines extracted: %w", len(raw), entities.ErrNoValidLines)
	}

	// Step 2: pair lines with catalog variants
	began = time.Now()
	expanded, err := po.expander.Expand(ctx, validation.Valid)
	if err != nil {
		return result, fmt.Errorf("failed to expand references: %w", err)
	}
	result.Unmatched = expanded.Unmatched
	po.record(run, "expand", len(validation.Valid), len(expanded.Lines), time.Since(began), expanded.Diagnostics)
	for _, ref := range expanded.Unmatched {
		po.publish(events.NewReferenceUnmatchedEvent(run.ID.String(), ref))
	}
	if m := po.deps.Metrics; m != nil {
		m.ReferenceMismatches.Add(float64(expanded.Diagnostics.Count(entities.ReferenceMismatch)))
		m.ExpandedLines.Add(float64(len(expanded.Lines)))
	}

	// Step 3: one order per destination
	start, err := po.resolveStart(ctx)
	if err != nil {
		return result, err
	}
	run.Start = start
	began = time.Now()
	aggregated := po.aggregator.Aggregate(expanded.Lines, start)
	result.Next = aggregated.Next
	result.Headers = aggregated.Headers
	po.record(run, aggregateStage, len(expanded.Lines), len(aggregated.Headers), time.Since(began), nil)
	for _, h := range aggregated.Headers {
		po.publish(events.NewOrderAssignedEvent(run.ID.String(), h))
	}

	// Step 4: one batched history lookup, then allocation
	began = time.Now()
	history, historyDiags := po.fetchHistory(ctx, aggregated.Lines)
	po.record(run, historyStage, len(aggregated.Lines), len(history.AvgDemand)+len(history.StoreOnHand), time.Since(began), historyDiags)

	began = time.Now()
	allocated := po.allocator.Allocate(aggregated.Lines, history)
	result.Lines = allocated.Lines
	result.Flagged = allocated.Flagged
	result.Shortages = allocated.Shortages
	po.record(run, "allocate", len(aggregated.Lines), len(allocated.Lines), time.Since(began), allocated.Diagnostics)
	for _, line := range allocated.Lines {
		if line.Flagged || line.FlagReason != "" {
			po.publish(events.NewLineFlaggedEvent(run.ID.String(), line))
		}
	}
	if m := po.deps.Metrics; m != nil {
		m.FlaggedLines.Add(float64(allocated.Flagged))
		m.ShortageLines.Add(float64(allocated.Shortages))
		m.Orders.Add(float64(len(aggregated.Headers)))
	}

	if po.deps.Sequences != nil && len(aggregated.Headers) > 0 {
		if err := po.deps.Sequences.Commit(ctx, po.prefix, aggregated.Next); err != nil {
			return result, fmt.Errorf("failed to commit sequence %s: %w", po.prefix, err)
		}
	}

	po.logger.Info("pipeline complete",
		"run", run.ID.String(),
		"lines", len(result.Lines),
		"orders", len(result.Headers),
		"diagnostics", len(run.Diagnostics))
	return result, nil
}

// resolveStart picks the first order-reference number for this run
func (po *PipelineOrchestrator) resolveStart(ctx context.Context) (int, error) {
	if po.forceStart || po.deps.Sequences == nil {
		return po.start, nil
	}
	next, ok, err := po.deps.Sequences.Next(ctx, po.prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", po.prefix, err)
	}
	if !ok {
		return po.start, nil
	}
	return next, nil
}

// fetchHistory never fails the run: an unreachable history source is
// reported and every line merges zeros
func (po *PipelineOrchestrator) fetchHistory(ctx context.Context, lines []*entities.ExpandedLine) (*repositories.HistorySnapshot, entities.Diagnostics) {
	if po.deps.History == nil {
		return repositories.NewHistorySnapshot(), nil
	}

	seen := make(map[entities.DemandKey]bool)
	var keys []entities.DemandKey
	for _, line := range lines {
		key := line.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	snapshot, err := po.deps.History.GetHistory(ctx, keys)
	if err != nil {
		po.logger.Warn("history lookup failed", "keys", len(keys), "error", err)
		return repositories.NewHistorySnapshot(), entities.Diagnostics{{
			Kind:    entities.AllocationWarning,
			Stage:   historyStage,
			Message: fmt.Sprintf("history unavailable, merging zeros: %v", err),
		}}
	}
	return snapshot, nil
}

func (po *PipelineOrchestrator) record(run *dto.PipelineRun, stage string, input, output int, elapsed time.Duration, diags entities.Diagnostics) {
	timing := run.Record(stage, input, output, elapsed, diags)
	po.logger.Info("stage completed", "stage", stage, "input", input, "output", output, "diagnostics", len(diags))
	for _, d := range diags {
		po.logger.Debug("diagnostic", "stage", stage, "detail", d.String())
	}
	if m := po.deps.Metrics; m != nil {
		m.ObserveStage(stage, elapsed)
	}
	po.publish(events.NewStageCompletedEvent(run.ID.String(), events.StageCompleted{
		Stage:       timing.Stage,
		Input:       timing.Input,
		Output:      timing.Output,
		Diagnostics: timing.Diagnostics,
		Duration:    timing.Duration,
	}))
}

func (po *PipelineOrchestrator) publish(event events.Event) {
	if po.deps.Events == nil {
		return
	}
	if _, err := po.deps.Events.Append(event); err != nil {
		po.logger.Warn("failed to append event", "type", event.Type, "error", err)
	}
}

// Submit creates one order per header through creator. Every header is
// attempted; failures are collected and returned together.
func (po *PipelineOrchestrator) Submit(ctx context.Context, result *dto.PipelineResult, creator repositories.OrderCreator) ([]dto.Submission, error) {
	submissions := make([]dto.Submission, 0, len(result.Headers))
	var errs []error
	for _, header := range result.Headers {
		if err := ctx.Err(); err != nil {
			return submissions, err
		}
		lines := result.LinesFor(header.OrderReference)
		if len(lines) == 0 {
			continue
		}

		sub := dto.Submission{OrderReference: header.OrderReference}
		id, err := creator.CreateOrder(ctx, *header, lines)
		if err != nil {
			sub.Error = err.Error()
			errs = append(errs, fmt.Errorf("order %s: %w", header.OrderReference, err))
			po.logger.Warn("order creation failed", "order", header.OrderReference, "error", err)
		} else {
			sub.OrderID = id
			po.logger.Info("order created", "order", header.OrderReference, "id", id)
		}
		submissions = append(submissions, sub)
	}
	return submissions, errors.Join(errs...)
}
