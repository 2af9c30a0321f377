package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vsinha/poimport/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format string

	// OutputPath is a file for text, json and xlsx, a directory for csv.
	// An xlsx path without extension is treated as a directory.
	OutputPath  string
	Verbose     bool
	Audit       bool
	KeepFlagged bool
	Elapsed     time.Duration

	// Out receives text and json output when OutputPath is empty
	Out io.Writer
}

// Generate creates output in the specified format
func Generate(result *dto.PipelineResult, config Config) error {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "xlsx":
		return generateWorkbookOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.PipelineResult, config Config) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "📊 Purchase Order Import Results\n")
	fmt.Fprintf(&buf, "================================\n\n")
	fmt.Fprintf(&buf, "%s\n", result.GetSummary())
	fmt.Fprintf(&buf, "Processing Time: %v\n\n", config.Elapsed)

	if len(result.Headers) > 0 {
		fmt.Fprintf(&buf, "📋 Orders:\n")
		fmt.Fprintf(&buf, "%-12s %-10s %-30s %-6s %-8s %-12s\n",
			"Reference", "Store", "Customer", "WH", "Lines", "Value")
		fmt.Fprintf(&buf, "%-12s %-10s %-30s %-6s %-8s %-12s\n",
			"------------", "----------", "------------------------------", "------", "--------", "------------")
		for _, row := range HeaderTable(result).Rows {
			fmt.Fprintf(&buf, "%-12s %-10s %-30s %-6s %-8d %-12.2f\n",
				row[0], row[2], truncate(row[1].(string), 30), row[4], row[9], row[10])
		}
		fmt.Fprintln(&buf)
	}

	var flagged []string
	for _, l := range result.Lines {
		if l.Flagged {
			flagged = append(flagged, fmt.Sprintf("  %s %s (store %s): %s %s",
				l.OrderReference, l.ProductID, l.DestinationID, l.FlagReason, l.ShortageDetail))
		}
	}
	if len(flagged) > 0 {
		fmt.Fprintf(&buf, "⚠️  Flagged Lines:\n%s\n\n", strings.Join(flagged, "\n"))
	}

	if len(result.Unmatched) > 0 {
		refs := make([]string, len(result.Unmatched))
		for i, ref := range result.Unmatched {
			refs[i] = string(ref)
		}
		fmt.Fprintf(&buf, "❓ Unmatched References: %s\n\n", strings.Join(refs, ", "))
	}

	if diags := result.Diagnostics(); len(diags) > 0 {
		fmt.Fprintf(&buf, "🩺 Diagnostics: %d\n", len(diags))
		if config.Verbose {
			for _, msg := range diags.Messages() {
				fmt.Fprintf(&buf, "  %s\n", msg)
			}
		}
		fmt.Fprintln(&buf)
	}

	if config.OutputPath == "" {
		_, err := config.Out.Write(buf.Bytes())
		return err
	}
	if err := writeFile(config.OutputPath, buf.Bytes()); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 Results saved to: %s\n", config.OutputPath)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PipelineResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputPath == "" {
		_, err := fmt.Fprintln(config.Out, string(jsonData))
		return err
	}
	if err := writeFile(config.OutputPath, jsonData); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 JSON results saved to: %s\n", config.OutputPath)
	}
	return nil
}

// generateCSVOutput writes one CSV file per sheet
func generateCSVOutput(result *dto.PipelineResult, config Config) error {
	if config.OutputPath == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, t := range Tables(result, config) {
		filename := filepath.Join(config.OutputPath, CSVFilename(t.Name))
		if err := writeCSV(filename, t); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", t.Name, err)
		}
		written = append(written, filename)
	}

	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 CSV results saved to:\n")
		for _, f := range written {
			fmt.Fprintf(config.Out, "  %s\n", f)
		}
	}
	return nil
}

// generateWorkbookOutput writes the import workbook
func generateWorkbookOutput(result *dto.PipelineResult, config Config) error {
	if config.OutputPath == "" {
		return fmt.Errorf("output path required for xlsx format")
	}

	path := config.OutputPath
	if filepath.Ext(path) == "" {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path = filepath.Join(path, WorkbookFilename(result))
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := SaveWorkbook(path, Tables(result, config)); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "💾 Workbook saved to: %s\n", path)
	}
	return nil
}

// CSVFilename maps a sheet name to its file, "Order Headers" to order_headers.csv
func CSVFilename(sheet string) string {
	return strings.ReplaceAll(strings.ToLower(sheet), " ", "_") + ".csv"
}

// WorkbookFilename names a workbook after the run's start time
func WorkbookFilename(result *dto.PipelineResult) string {
	started := time.Now()
	if result.Run != nil {
		started = result.Run.StartedAt
	}
	return fmt.Sprintf("import_%s.xlsx", started.Format("20060102_150405"))
}

func writeCSV(filename string, t Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(t.Records()); err != nil {
		return err
	}
	return file.Close()
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
