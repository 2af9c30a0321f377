package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

// Loader handles loading catalog, history and purchase-order tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadCatalog loads product variants from a CSV file
func (l *Loader) LoadCatalog(filename string) ([]*entities.ProductVariant, error) {
	records, err := readRecords(filename, "catalog")
	if err != nil {
		return nil, err
	}
	return ParseCatalogRecords(records)
}

// LoadPurchaseOrders loads pre-tabulated purchase-order lines from a CSV file
func (l *Loader) LoadPurchaseOrders(filename string) ([]*entities.RawLine, error) {
	records, err := readRecords(filename, "purchase orders")
	if err != nil {
		return nil, err
	}
	return ParseOrderRecords(filepath.Base(filename), records)
}

// LoadHistory loads average demand into snapshot
func (l *Loader) LoadHistory(filename string, snapshot *repositories.HistorySnapshot) error {
	records, err := readRecords(filename, "history")
	if err != nil {
		return err
	}
	return ParseHistoryRecords(records, snapshot)
}

// LoadSnapshots loads store on-hand snapshots into snapshot
func (l *Loader) LoadSnapshots(filename string, snapshot *repositories.HistorySnapshot) error {
	records, err := readRecords(filename, "snapshots")
	if err != nil {
		return err
	}
	return ParseSnapshotRecords(records, snapshot)
}

// LoadStores loads destination official names from a CSV file
func (l *Loader) LoadStores(filename string) (map[entities.DestinationID]string, error) {
	records, err := readRecords(filename, "stores")
	if err != nil {
		return nil, err
	}
	return ParseStoreRecords(records)
}

func readRecords(filename, kind string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	return records, nil
}
