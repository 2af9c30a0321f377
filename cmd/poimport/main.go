package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/vsinha/poimport/pkg/interfaces/cli/commands"
)

func main() {
	// A .env file is optional
	_ = godotenv.Load()

	// Command line flags
	var (
		configFile = flag.String(
			"config",
			os.Getenv("POIMPORT_CONFIG"),
			"Path to YAML settings file",
		)
		catalogFile   = flag.String("catalog", "", "Path to product catalog (.csv, .xlsx, .xls)")
		historyFile   = flag.String("history", "", "Path to average demand table")
		snapshotsFile = flag.String("snapshots", "", "Path to store on-hand snapshots table")
		historyDSN    = flag.String("history-dsn", "", "Postgres DSN for history lookups")
		ordersFile    = flag.String("orders", "", "Path to tabulated purchase-order lines")
		storesFile    = flag.String("stores", "", "Path to store official names table")
		start         = flag.Int("start", -1, "First order-reference number, overriding the stored sequence")
		stateDir      = flag.String("state-dir", "", "Directory holding the reference sequence between runs")
		outputPath    = flag.String("output", "", "Output file, or directory for csv and xlsx")
		format        = flag.String("format", "text", "Output format: text, json, csv, xlsx")
		overridesFile = flag.String("overrides", "", "Path to reviewer overrides YAML")
		keepFlagged   = flag.Bool("keep-flagged", false, "Keep flagged lines in the import sheets")
		audit         = flag.Bool("audit", false, "Add the original purchase-order lines sheet")
		metricsFile   = flag.String("metrics-file", "", "Write run counters in Prometheus text format")
		verbose       = flag.Bool("verbose", false, "Enable verbose output")
		help          = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Create command configuration
	config := commands.Config{
		ConfigFile:    *configFile,
		CatalogFile:   *catalogFile,
		HistoryFile:   *historyFile,
		SnapshotsFile: *snapshotsFile,
		HistoryDSN:    *historyDSN,
		OrdersFile:    *ordersFile,
		StoresFile:    *storesFile,
		Documents:     flag.Args(),
		Start:         *start,
		StateDir:      *stateDir,
		OutputPath:    *outputPath,
		Format:        *format,
		OverridesFile: *overridesFile,
		KeepFlagged:   *keepFlagged,
		Audit:         *audit,
		MetricsFile:   *metricsFile,
		Verbose:       *verbose,
		Help:          *help,
	}

	// Create and execute command
	cmd := commands.NewImportCommand(config)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
