package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/application/dto"
	"github.com/vsinha/poimport/pkg/application/services/review"
)

// Sheet names used by the workbook and as CSV file stems
const (
	SheetHeaders     = "Order Headers"
	SheetLines       = "Order Line Details"
	SheetAudit       = "Original Purchase Orders"
	SheetDiagnostics = "Diagnostics"
)

const dateLayout = "2006-01-02"

// Table is one output sheet. Cells keep their Go types so the workbook can
// store numbers as numbers; CSV renders them through cellString.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
}

// HeaderTable builds the order header sheet
func HeaderTable(result *dto.PipelineResult) Table {
	t := Table{
		Name: SheetHeaders,
		Columns: []string{
			"Order Reference", "Customer", "Destination ID", "Destination Name", "Warehouse",
			"Order Date", "Delivery Date", "Client Order Ref", "Order Count", "Total Lines", "Total Value",
		},
	}
	for _, h := range result.Headers {
		customer := h.OfficialName
		if customer == "" {
			customer = h.DestinationName
		}
		t.Rows = append(t.Rows, []interface{}{
			h.OrderReference,
			customer,
			string(h.DestinationID),
			h.DestinationName,
			string(h.Warehouse),
			formatDate(h.OrderDate),
			formatDate(h.DeliveryDate),
			h.OrderNumbers,
			h.OrderCount,
			h.TotalLines,
			money(h.TotalValue),
		})
	}
	return t
}

// LineTable builds the import line sheet. The lock marker is always set so
// the target system keeps the computed unit price.
func LineTable(result *dto.PipelineResult) Table {
	t := Table{
		Name: SheetLines,
		Columns: []string{
			"Order Reference", "Product", "Description", "Quantity", "Unit Price", "Lock Unit Price",
			"Total Price", "Reference", "Warehouse", "Client Order Ref", "Order Date",
			"Flagged", "Flag Reason", "Shortage", "Needs Review",
		},
	}
	for _, l := range result.Lines {
		description := l.ProductName
		if description == "" {
			description = l.Description
		}
		t.Rows = append(t.Rows, []interface{}{
			l.OrderReference,
			l.ProductID,
			description,
			int64(l.UnitCount),
			l.UnitPrice.Round(4).InexactFloat64(),
			true,
			money(l.TotalPrice),
			string(l.Reference),
			string(l.Warehouse),
			string(l.OrderNumber),
			formatDate(l.OrderDate),
			l.Flagged,
			l.FlagReason,
			l.ShortageDetail,
			l.NeedsReview,
		})
	}
	return t
}

// AuditTable lists every extracted line with whether its reference matched
func AuditTable(result *dto.PipelineResult) Table {
	t := Table{
		Name: SheetAudit,
		Columns: []string{
			"Document", "Page", "Line", "Store ID", "Store Name", "PO No.", "Order Date", "Delivery Date",
			"Reference", "Description", "Size", "Pack", "Quantity", "Price", "Amount", "Status",
		},
	}
	for _, r := range result.RawLines {
		status := "NOT FOUND"
		if result.Found(r.Reference) {
			status = "Found"
		}
		t.Rows = append(t.Rows, []interface{}{
			r.Document,
			r.Page,
			r.LineNumber,
			string(r.DestinationID),
			r.DestinationName,
			string(r.OrderNumber),
			r.OrderDate,
			r.DeliveryDate,
			string(r.Reference),
			r.Description,
			r.Size,
			r.Pack,
			r.OrderedQty,
			r.Price,
			r.Amount,
			status,
		})
	}
	return t
}

// DiagnosticTable lists the run's recoverable failures
func DiagnosticTable(result *dto.PipelineResult) Table {
	t := Table{
		Name:    SheetDiagnostics,
		Columns: []string{"Kind", "Stage", "Document", "Page", "Line", "Reference", "Message"},
	}
	for _, d := range result.Diagnostics() {
		t.Rows = append(t.Rows, []interface{}{
			d.Kind.String(), d.Stage, d.Document, d.Page, d.Line, string(d.Reference), d.Message,
		})
	}
	return t
}

// ImportView returns a copy of result without flagged lines, headers rebuilt
// to match. References keep the numbers they were assigned.
func ImportView(result *dto.PipelineResult) *dto.PipelineResult {
	view := *result
	view.Lines = review.DeleteFlagged(result.Lines)
	view.Headers = review.RebuildHeaders(result.Headers, view.Lines)
	return &view
}

// Tables returns the sheets to emit. The import sheets leave out flagged
// lines unless KeepFlagged is set; the audit sheet always covers every
// extracted line.
func Tables(result *dto.PipelineResult, config Config) []Table {
	importable := result
	if !config.KeepFlagged {
		importable = ImportView(result)
	}

	tables := []Table{HeaderTable(importable), LineTable(importable)}
	if config.Audit {
		tables = append(tables, AuditTable(result))
	}
	if len(result.Diagnostics()) > 0 {
		tables = append(tables, DiagnosticTable(result))
	}
	return tables
}

// Records renders the table as string records, header first
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Columns)
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cellString(cell)
		}
		records = append(records, record)
	}
	return records
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	case nil:
		return ""
	default:
		return fmt.Sprint(c)
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
