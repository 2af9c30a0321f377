package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/application/dto"
	"github.com/vsinha/poimport/pkg/application/services/aggregation"
	"github.com/vsinha/poimport/pkg/application/services/expansion"
	"github.com/vsinha/poimport/pkg/application/services/extraction"
	"github.com/vsinha/poimport/pkg/application/services/orchestration"
	"github.com/vsinha/poimport/pkg/application/services/review"
	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
	"github.com/vsinha/poimport/pkg/domain/services"
	"github.com/vsinha/poimport/pkg/infrastructure/config"
	"github.com/vsinha/poimport/pkg/infrastructure/documents"
	"github.com/vsinha/poimport/pkg/infrastructure/events"
	"github.com/vsinha/poimport/pkg/infrastructure/metrics"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/pebblestore"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/poimport/pkg/infrastructure/repositories/spreadsheet"
	"github.com/vsinha/poimport/pkg/interfaces/cli/output"
)

// Config holds configuration for the import command
type Config struct {
	ConfigFile    string
	CatalogFile   string
	HistoryFile   string
	SnapshotsFile string
	HistoryDSN    string
	OrdersFile    string
	StoresFile    string
	Documents     []string

	// Start overrides the stored sequence when non-negative
	Start    int
	StateDir string

	OutputPath    string
	Format        string
	OverridesFile string
	KeepFlagged   bool
	Audit         bool
	MetricsFile   string
	Verbose       bool
	Help          bool

	// Out receives progress and text output; defaults to stdout
	Out io.Writer
}

// tableLoader reads the tabular inputs; CSV and workbook loaders both satisfy it
type tableLoader interface {
	LoadCatalog(filename string) ([]*entities.ProductVariant, error)
	LoadPurchaseOrders(filename string) ([]*entities.RawLine, error)
	LoadHistory(filename string, snapshot *repositories.HistorySnapshot) error
	LoadSnapshots(filename string, snapshot *repositories.HistorySnapshot) error
	LoadStores(filename string) (map[entities.DestinationID]string, error)
}

var (
	_ tableLoader = (*csv.Loader)(nil)
	_ tableLoader = (*spreadsheet.Loader)(nil)
)

func loaderFor(path string) tableLoader {
	if spreadsheet.IsSpreadsheet(path) {
		return spreadsheet.NewLoader()
	}
	return csv.NewLoader()
}

// ImportCommand handles the purchase-order import
type ImportCommand struct {
	config Config
	out    io.Writer
}

// NewImportCommand creates a new import command with the given configuration
func NewImportCommand(config Config) *ImportCommand {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	return &ImportCommand{
		config: config,
		out:    out,
	}
}

// Execute runs the import command
func (c *ImportCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	// Validate inputs
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	settings, err := c.loadSettings()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		c.printHeader(settings)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.config.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// Load catalog and history tables
	if c.config.Verbose {
		fmt.Fprintln(c.out, "📂 Loading catalog and history...")
	}

	variants, err := loaderFor(c.config.CatalogFile).LoadCatalog(c.config.CatalogFile)
	if err != nil {
		return fmt.Errorf("error loading catalog: %w", err)
	}
	catalog := memory.NewCatalogRepository(len(variants))
	if err := catalog.LoadVariants(variants); err != nil {
		return fmt.Errorf("failed to load catalog into repository: %w", err)
	}

	history, closeHistory, err := c.openHistory(ctx, settings)
	if err != nil {
		return err
	}
	defer closeHistory()

	names := settings.OfficialNames()
	if c.config.StoresFile != "" {
		stores, err := loaderFor(c.config.StoresFile).LoadStores(c.config.StoresFile)
		if err != nil {
			return fmt.Errorf("error loading stores: %w", err)
		}
		for id, name := range stores {
			names[id] = name
		}
	}

	var sequences repositories.SequenceStore
	if settings.StateDir != "" {
		store, err := pebblestore.NewSequenceStore(settings.StateDir)
		if err != nil {
			return fmt.Errorf("failed to open state directory: %w", err)
		}
		defer store.Close()
		sequences = store
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Data loaded successfully:\n")
		fmt.Fprintf(c.out, "  Variants: %d\n", catalog.Size())
		fmt.Fprintf(c.out, "  Official names: %d\n", len(names))
		fmt.Fprintln(c.out)
	}

	registry := metrics.NewRegistry()
	eventStore := events.NewInMemoryEventStore(logger)
	if c.config.Verbose {
		if err := eventStore.Subscribe(events.HandlerFunc(c.printEvent)); err != nil {
			return fmt.Errorf("failed to subscribe to events: %w", err)
		}
	}

	pipelineConfig, err := c.pipelineConfig(settings, names, logger)
	if err != nil {
		return err
	}
	orchestrator, err := orchestration.NewPipelineOrchestrator(orchestration.Dependencies{
		Documents: documents.Router{},
		Catalog:   catalog,
		History:   history,
		Sequences: sequences,
		Metrics:   registry,
		Events:    eventStore,
	}, pipelineConfig)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	// Run the pipeline
	if c.config.Verbose {
		fmt.Fprintln(c.out, "🔄 Running import pipeline...")
	}

	startTime := time.Now()
	result, err := c.run(ctx, orchestrator)
	elapsed := time.Since(startTime)
	if err != nil {
		if result != nil && errors.Is(err, entities.ErrNoValidLines) {
			for _, msg := range result.Diagnostics().Messages() {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
		}
		return fmt.Errorf("error running import: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Import completed in %v\n\n", elapsed)
	}

	if c.config.OverridesFile != "" {
		if err := c.applyOverrides(result); err != nil {
			return err
		}
	}

	if c.config.MetricsFile != "" {
		if err := registry.WriteTextfile(c.config.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	// Generate output
	outputConfig := output.Config{
		Format:      c.config.Format,
		OutputPath:  c.config.OutputPath,
		Verbose:     c.config.Verbose,
		Audit:       c.config.Audit,
		KeepFlagged: c.config.KeepFlagged,
		Elapsed:     elapsed,
		Out:         c.out,
	}
	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🏁 Import complete!")
	}
	return nil
}

// validateInputs validates the command configuration
func (c *ImportCommand) validateInputs() error {
	if c.config.CatalogFile == "" {
		return fmt.Errorf("must specify -catalog")
	}
	if c.config.OrdersFile == "" && len(c.config.Documents) == 0 {
		return fmt.Errorf("must specify purchase-order documents or -orders")
	}
	if c.config.OrdersFile != "" && len(c.config.Documents) > 0 {
		return fmt.Errorf("specify either purchase-order documents or -orders, not both")
	}
	if c.config.HistoryDSN != "" && (c.config.HistoryFile != "" || c.config.SnapshotsFile != "") {
		return fmt.Errorf("-history-dsn cannot be combined with -history or -snapshots")
	}
	switch c.config.Format {
	case "text", "json", "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}

	for _, path := range []string{c.config.CatalogFile, c.config.HistoryFile, c.config.SnapshotsFile, c.config.OrdersFile, c.config.StoresFile, c.config.OverridesFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}
	return nil
}

// loadSettings reads the settings file, then lets the environment and flags override it
func (c *ImportCommand) loadSettings() (*config.Settings, error) {
	settings := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}
	settings.ApplyEnv(os.Getenv)

	if c.config.HistoryDSN != "" {
		settings.History.DSN = c.config.HistoryDSN
	}
	if c.config.StateDir != "" {
		settings.StateDir = c.config.StateDir
	}
	if c.config.Start >= 0 {
		settings.Processing.StartingSequence = c.config.Start
	}
	return settings, nil
}

// openHistory picks the history provider: Postgres when a DSN is set, else
// the history and snapshot tables, else none
func (c *ImportCommand) openHistory(ctx context.Context, settings *config.Settings) (repositories.HistoryProvider, func(), error) {
	noop := func() {}

	if settings.History.DSN != "" && c.config.HistoryFile == "" && c.config.SnapshotsFile == "" {
		pool, err := postgres.Connect(ctx, settings.History.DSN)
		if err != nil {
			return nil, noop, err
		}
		return postgres.NewHistoryRepository(pool), pool.Close, nil
	}

	if c.config.HistoryFile == "" && c.config.SnapshotsFile == "" {
		return nil, noop, nil
	}

	snapshot := repositories.NewHistorySnapshot()
	if c.config.HistoryFile != "" {
		if err := loaderFor(c.config.HistoryFile).LoadHistory(c.config.HistoryFile, snapshot); err != nil {
			return nil, noop, fmt.Errorf("error loading history: %w", err)
		}
	}
	if c.config.SnapshotsFile != "" {
		if err := loaderFor(c.config.SnapshotsFile).LoadSnapshots(c.config.SnapshotsFile, snapshot); err != nil {
			return nil, noop, fmt.Errorf("error loading snapshots: %w", err)
		}
	}

	repo := memory.NewHistoryRepository()
	if err := repo.LoadSnapshot(snapshot); err != nil {
		return nil, noop, fmt.Errorf("failed to load history into repository: %w", err)
	}
	return repo, noop, nil
}

func (c *ImportCommand) pipelineConfig(settings *config.Settings, names map[entities.DestinationID]string, logger *slog.Logger) (orchestration.Config, error) {
	p := settings.Processing
	basis, err := expansion.ParsePriceBasis(p.PriceBasis)
	if err != nil {
		return orchestration.Config{}, fmt.Errorf("invalid settings: %w", err)
	}

	return orchestration.Config{
		Scanner:     extraction.Config{ReferenceLength: p.ReferenceLength},
		DateLayouts: p.DateLayouts,
		Limits: services.Limits{
			MaxQuantity: decimal.NewFromFloat(p.MaxQuantity),
			MaxPrice:    decimal.NewFromFloat(p.MaxPrice),
		},
		Expansion: expansion.Config{
			PriceBasis: basis,
			Warehouses: expansion.StaticWarehouses(entities.WarehouseCode(settings.Warehouses.Default), settings.WarehouseMap()),
		},
		Aggregation: aggregation.Config{
			Prefix: p.ReferencePrefix,
			Width:  p.ReferenceWidth,
			Names:  aggregation.StaticNames(names),
		},
		Start:      p.StartingSequence,
		ForceStart: c.config.Start >= 0,
		Logger:     logger,
	}, nil
}

func (c *ImportCommand) run(ctx context.Context, orchestrator *orchestration.PipelineOrchestrator) (*dto.PipelineResult, error) {
	if c.config.OrdersFile == "" {
		return orchestrator.Run(ctx, c.config.Documents)
	}
	lines, err := loaderFor(c.config.OrdersFile).LoadPurchaseOrders(c.config.OrdersFile)
	if err != nil {
		return nil, fmt.Errorf("error loading purchase orders: %w", err)
	}
	return orchestrator.ProcessLines(ctx, lines)
}

// applyOverrides replaces the result's lines with the reviewed ones and
// rebuilds the headers to match
func (c *ImportCommand) applyOverrides(result *dto.PipelineResult) error {
	overrides, err := LoadOverrides(c.config.OverridesFile)
	if err != nil {
		return err
	}
	lines, err := review.ApplyOverrides(result.Lines, overrides)
	if err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	result.Lines = lines
	result.Headers = review.RebuildHeaders(result.Headers, lines)

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✏️  Applied %d overrides\n\n", len(overrides))
	}
	return nil
}

func (c *ImportCommand) printEvent(event events.Event) error {
	switch data := event.Payload.(type) {
	case events.StageCompleted:
		fmt.Fprintf(c.out, "  ▸ %-10s %d → %d (%d diagnostics, %v)\n",
			data.Stage, data.Input, data.Output, data.Diagnostics, data.Duration)
	case events.ReferenceUnmatched:
		fmt.Fprintf(c.out, "  ❓ reference %s not in catalog\n", data.Reference)
	case events.LineFlagged:
		fmt.Fprintf(c.out, "  ⚠️  line %d %s store %s: %s\n", data.LineNo, data.Reference, data.DestinationID, data.Reason)
	case events.OrderAssigned:
		fmt.Fprintf(c.out, "  📋 %s → store %s (%d lines)\n", data.OrderReference, data.DestinationID, data.TotalLines)
	}
	return nil
}

// printHeader prints the command header information
func (c *ImportCommand) printHeader(settings *config.Settings) {
	fmt.Fprintf(c.out, "🚀 Purchase Order Import\n")
	fmt.Fprintf(c.out, "Inputs:\n")
	fmt.Fprintf(c.out, "  Catalog: %s\n", c.config.CatalogFile)
	if c.config.OrdersFile != "" {
		fmt.Fprintf(c.out, "  Orders: %s\n", c.config.OrdersFile)
	}
	for _, doc := range c.config.Documents {
		fmt.Fprintf(c.out, "  Document: %s\n", doc)
	}
	if c.config.HistoryFile != "" {
		fmt.Fprintf(c.out, "  History: %s\n", c.config.HistoryFile)
	}
	if c.config.SnapshotsFile != "" {
		fmt.Fprintf(c.out, "  Snapshots: %s\n", c.config.SnapshotsFile)
	}
	if settings.History.DSN != "" {
		fmt.Fprintf(c.out, "  History: postgres\n")
	}
	fmt.Fprintf(c.out, "Reference prefix: %s\n", settings.Processing.ReferencePrefix)
	if settings.StateDir != "" {
		fmt.Fprintf(c.out, "State directory: %s\n", settings.StateDir)
	}
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputPath != "" {
		fmt.Fprintf(c.out, "Output: %s\n", c.config.OutputPath)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *ImportCommand) showHelp() {
	fmt.Fprintf(c.out, `poimport - turn retailer purchase orders into sales-order import sheets

USAGE:
    poimport -catalog <file> [options] <po.pdf|po.txt>...   # Scan purchase-order documents
    poimport -catalog <file> -orders <file> [options]       # Use a tabulated purchase-order sheet

OPTIONS:
    -config <file>        YAML settings file (default: $POIMPORT_CONFIG)
    -catalog <file>       Product catalog (.csv, .xlsx, .xls)
    -history <file>       Average monthly demand per reference and store
    -snapshots <file>     Store on-hand snapshots; the latest per key is used
    -history-dsn <dsn>    Read history from Postgres instead (default: $POIMPORT_HISTORY_DSN)
    -orders <file>        Tabulated purchase-order lines
    -stores <file>        Store official names
    -start <n>            First order-reference number, overriding the stored sequence
    -state-dir <dir>      Directory holding the reference sequence between runs
    -output <path>        Output file, or directory for csv and xlsx
    -format <fmt>         Output format: text, json, csv, xlsx (default: text)
    -overrides <file>     Reviewer corrections applied before output
    -keep-flagged         Keep flagged lines in the import sheets
    -audit                Add the original purchase-order lines sheet
    -metrics-file <file>  Write run counters in Prometheus text format
    -verbose              Enable verbose output
    -help                 Show this help message

CATALOG COLUMNS:
    internal_reference,name,units_per_order,barcode,id,CE_on_hand,CE_available,...

OVERRIDES FILE:
    overrides:
      - line: 3
        quantity: 10
        unit_price: "1.25"
      - line: 7
        remove: true

EXAMPLES:
    # Scan two purchase orders into an import workbook
    poimport -catalog catalog.xlsx -history history.csv -format xlsx -output out/ po1.pdf po2.pdf

    # Continue numbering from the previous run
    poimport -catalog catalog.csv -state-dir ~/.poimport -orders orders.csv -format csv -output out/

    # Inspect a run with its events
    poimport -catalog catalog.csv -orders orders.csv -verbose
`)
}
