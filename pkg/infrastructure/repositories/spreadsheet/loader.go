package spreadsheet

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
	csvrepo "github.com/vsinha/poimport/pkg/infrastructure/repositories/csv"
)

// Loader reads the first sheet of .xlsx and legacy .xls workbooks and feeds
// the rows through the same header-driven parsing as CSV tables
type Loader struct{}

// NewLoader creates a new spreadsheet loader
func NewLoader() *Loader {
	return &Loader{}
}

// IsSpreadsheet reports whether path has a workbook extension
func IsSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// LoadCatalog loads product variants from a workbook
func (l *Loader) LoadCatalog(filename string) ([]*entities.ProductVariant, error) {
	rows, err := ReadRows(filename)
	if err != nil {
		return nil, err
	}
	return csvrepo.ParseCatalogRecords(rows)
}

// LoadPurchaseOrders loads pre-tabulated purchase-order lines from a workbook
func (l *Loader) LoadPurchaseOrders(filename string) ([]*entities.RawLine, error) {
	rows, err := ReadRows(filename)
	if err != nil {
		return nil, err
	}
	return csvrepo.ParseOrderRecords(filepath.Base(filename), rows)
}

// LoadHistory loads average demand into snapshot
func (l *Loader) LoadHistory(filename string, snapshot *repositories.HistorySnapshot) error {
	rows, err := ReadRows(filename)
	if err != nil {
		return err
	}
	return csvrepo.ParseHistoryRecords(rows, snapshot)
}

// LoadSnapshots loads store on-hand snapshots into snapshot
func (l *Loader) LoadSnapshots(filename string, snapshot *repositories.HistorySnapshot) error {
	rows, err := ReadRows(filename)
	if err != nil {
		return err
	}
	return csvrepo.ParseSnapshotRecords(rows, snapshot)
}

// LoadStores loads destination official names from a workbook
func (l *Loader) LoadStores(filename string) (map[entities.DestinationID]string, error) {
	rows, err := ReadRows(filename)
	if err != nil {
		return nil, err
	}
	return csvrepo.ParseStoreRecords(rows)
}

// ReadRows returns the cell text of the first sheet
func ReadRows(filename string) ([][]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filename, err)
	}
	if strings.ToLower(filepath.Ext(filename)) == ".xls" {
		return readXLS(data)
	}
	return readXLSX(data)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to read xls: %w", err)
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no sheets found")
	}

	rows := [][]string{}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
