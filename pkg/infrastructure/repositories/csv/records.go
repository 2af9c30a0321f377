package csv

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

const (
	onHandSuffix    = "_on_hand"
	availableSuffix = "_available"
)

// Column aliases accepted in each kind of table, normalised by normalizeColumn
var (
	catalogColumns = map[string][]string{
		"id":              {"id", "product_id", "variant_id"},
		"reference":       {"internal_reference", "default_code", "reference"},
		"barcode":         {"barcode"},
		"name":            {"name", "product_name", "display_name"},
		"units_per_order": {"units_per_order", "units_per_case"},
	}
	orderColumns = map[string][]string{
		"destination_id":   {"store_id", "destination_id"},
		"destination_name": {"store_name", "destination_name"},
		"order_number":     {"po_no", "po_number", "order_number"},
		"order_date":       {"order_date"},
		"delivery_date":    {"delivery_date"},
		"reference":        {"internal_reference", "reference"},
		"description":      {"description"},
		"ordered_qty":      {"of_order", "ordered_qty", "quantity", "qty"},
		"price":            {"price", "case_price"},
		"amount":           {"amount", "line_total", "extension"},
	}
	historyColumns = map[string][]string{
		"reference":   {"internal_reference", "product_id", "reference"},
		"destination": {"store_id", "destination_id"},
		"avg_demand":  {"avg_monthly_sales", "avg_demand", "hist_avg_sales"},
	}
	snapshotColumns = map[string][]string{
		"reference":     {"internal_reference", "product_id", "reference"},
		"destination":   {"store_id", "destination_id"},
		"quantity":      {"quantity", "store_on_hand", "on_hand"},
		"snapshot_date": {"snapshot_date", "date"},
	}
	storeColumns = map[string][]string{
		"destination_id": {"store_id", "destination_id"},
		"official_name":  {"store_official_name", "official_name"},
	}
)

// header maps canonical column names to positions in a record
type header struct {
	index map[string]int
	raw   []string
}

// normalizeColumn lowercases a column title and collapses everything that is
// not a letter or digit to single underscores, so "PO No." becomes "po_no"
func normalizeColumn(s string) string {
	var sb strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pending = false
			sb.WriteRune(r)
			continue
		}
		pending = true
	}
	return sb.String()
}

// parseHeader resolves aliases; every name in required must be present
func parseHeader(table string, row []string, aliases map[string][]string, required ...string) (*header, error) {
	positions := make(map[string]int, len(row))
	for i, col := range row {
		if n := normalizeColumn(col); n != "" {
			if _, dup := positions[n]; !dup {
				positions[n] = i
			}
		}
	}

	h := &header{index: make(map[string]int), raw: make([]string, len(row))}
	for i, col := range row {
		h.raw[i] = normalizeColumn(col)
	}
	for canonical, names := range aliases {
		for _, name := range names {
			if pos, ok := positions[name]; ok {
				h.index[canonical] = pos
				break
			}
		}
	}

	var missing []string
	for _, name := range required {
		if _, ok := h.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s header missing columns %v, got %v", table, missing, row)
	}
	return h, nil
}

// get returns the trimmed cell for a canonical column, or "" when absent
func (h *header) get(record []string, name string) string {
	pos, ok := h.index[name]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseCatalogRecords builds variants from a header row plus data rows.
// Columns named <warehouse>_on_hand and <warehouse>_available carry stock.
func ParseCatalogRecords(records [][]string) ([]*entities.ProductVariant, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("catalog must have header and at least one data row")
	}
	h, err := parseHeader("catalog", records[0], catalogColumns, "reference", "name")
	if err != nil {
		return nil, err
	}

	type stockCols struct{ onHand, available int }
	stock := make(map[entities.WarehouseCode]*stockCols)
	var warehouses []entities.WarehouseCode
	for i, col := range h.raw {
		var wh string
		var isOnHand bool
		switch {
		case strings.HasSuffix(col, onHandSuffix) && col != "on_hand" && col != "store_on_hand":
			wh, isOnHand = strings.TrimSuffix(col, onHandSuffix), true
		case strings.HasSuffix(col, availableSuffix):
			wh = strings.TrimSuffix(col, availableSuffix)
		default:
			continue
		}
		code := entities.WarehouseCode(strings.ToUpper(wh))
		sc, ok := stock[code]
		if !ok {
			sc = &stockCols{onHand: -1, available: -1}
			stock[code] = sc
			warehouses = append(warehouses, code)
		}
		if isOnHand {
			sc.onHand = i
		} else {
			sc.available = i
		}
	}

	var variants []*entities.ProductVariant
	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		row := i + 2

		upo := entities.Quantity(1)
		if s := h.get(record, "units_per_order"); s != "" {
			q, err := parseQuantity(s)
			if err != nil {
				return nil, fmt.Errorf("catalog row %d: invalid units_per_order %q", row, s)
			}
			upo = q
		}

		id := h.get(record, "id")
		if id == "" {
			id = fmt.Sprintf("row-%d", row)
		}
		v, err := entities.NewProductVariant(
			id,
			entities.ReferenceCode(cleanCode(h.get(record, "reference"))),
			cleanCode(h.get(record, "barcode")),
			h.get(record, "name"),
			upo,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", row, err)
		}

		for _, wh := range warehouses {
			sc := stock[wh]
			onHand, err := optionalQuantity(record, sc.onHand)
			if err != nil {
				return nil, fmt.Errorf("catalog row %d: %s on hand: %w", row, wh, err)
			}
			available, err := optionalQuantity(record, sc.available)
			if err != nil {
				return nil, fmt.Errorf("catalog row %d: %s available: %w", row, wh, err)
			}
			v.SetStock(wh, onHand, available)
		}
		variants = append(variants, v)
	}
	return variants, nil
}

// ParseOrderRecords reads pre-tabulated purchase-order lines. Values stay as
// text; the line validator coerces them.
func ParseOrderRecords(source string, records [][]string) ([]*entities.RawLine, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("purchase orders must have header and at least one data row")
	}
	h, err := parseHeader("purchase orders", records[0], orderColumns, "destination_id", "order_number", "reference", "ordered_qty", "price")
	if err != nil {
		return nil, err
	}

	var lines []*entities.RawLine
	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		lines = append(lines, &entities.RawLine{
			DestinationID:   entities.DestinationID(cleanCode(h.get(record, "destination_id"))),
			DestinationName: h.get(record, "destination_name"),
			OrderNumber:     entities.OrderNumber(cleanCode(h.get(record, "order_number"))),
			OrderDate:       h.get(record, "order_date"),
			DeliveryDate:    h.get(record, "delivery_date"),
			Reference:       entities.ReferenceCode(cleanCode(h.get(record, "reference"))),
			Description:     h.get(record, "description"),
			OrderedQty:      h.get(record, "ordered_qty"),
			Price:           h.get(record, "price"),
			Amount:          h.get(record, "amount"),
			Document:        source,
			LineNumber:      i + 2,
		})
	}
	return lines, nil
}

// ParseHistoryRecords reads average demand rows into snapshot.AvgDemand
func ParseHistoryRecords(records [][]string, snapshot *repositories.HistorySnapshot) error {
	if len(records) < 2 {
		return fmt.Errorf("history must have header and at least one data row")
	}
	h, err := parseHeader("history", records[0], historyColumns, "reference", "destination", "avg_demand")
	if err != nil {
		return err
	}

	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		key := entities.DemandKey{
			Reference:   entities.ReferenceCode(cleanCode(h.get(record, "reference"))),
			Destination: entities.DestinationID(cleanCode(h.get(record, "destination"))),
		}
		qty, err := parseQuantity(h.get(record, "avg_demand"))
		if err != nil {
			return fmt.Errorf("history row %d: %w", i+2, err)
		}
		snapshot.AvgDemand[key] = qty
	}
	return nil
}

// ParseSnapshotRecords reads store on-hand rows into snapshot.StoreOnHand,
// keeping the latest snapshot_date per key. Without dates the last row wins.
func ParseSnapshotRecords(records [][]string, snapshot *repositories.HistorySnapshot) error {
	if len(records) < 2 {
		return fmt.Errorf("snapshots must have header and at least one data row")
	}
	h, err := parseHeader("snapshots", records[0], snapshotColumns, "reference", "destination", "quantity")
	if err != nil {
		return err
	}

	latest := make(map[entities.DemandKey]time.Time)
	for i, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		row := i + 2
		key := entities.DemandKey{
			Reference:   entities.ReferenceCode(cleanCode(h.get(record, "reference"))),
			Destination: entities.DestinationID(cleanCode(h.get(record, "destination"))),
		}
		qty, err := parseQuantity(h.get(record, "quantity"))
		if err != nil {
			return fmt.Errorf("snapshots row %d: %w", row, err)
		}

		var at time.Time
		if s := h.get(record, "snapshot_date"); s != "" {
			at, err = time.Parse("2006-01-02", s)
			if err != nil {
				return fmt.Errorf("invalid snapshot_date format in row %d: %s (expected YYYY-MM-DD)", row, s)
			}
		}
		if prev, seen := latest[key]; seen && at.Before(prev) {
			continue
		}
		latest[key] = at
		snapshot.StoreOnHand[key] = qty
	}
	return nil
}

// ParseStoreRecords reads destination official names
func ParseStoreRecords(records [][]string) (map[entities.DestinationID]string, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("stores must have header and at least one data row")
	}
	h, err := parseHeader("stores", records[0], storeColumns, "destination_id", "official_name")
	if err != nil {
		return nil, err
	}

	names := make(map[entities.DestinationID]string)
	for _, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		names[entities.DestinationID(cleanCode(h.get(record, "destination_id")))] = h.get(record, "official_name")
	}
	return names, nil
}

// cleanCode undoes spreadsheet float formatting of numeric codes ("100234.0")
func cleanCode(s string) string {
	if strings.HasSuffix(s, ".0") && strings.Trim(strings.TrimSuffix(s, ".0"), "0123456789") == "" {
		return strings.TrimSuffix(s, ".0")
	}
	return s
}

// parseQuantity parses a possibly fractional number and rounds it to whole units
func parseQuantity(s string) (entities.Quantity, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	return entities.Quantity(d.Round(0).IntPart()), nil
}

func optionalQuantity(record []string, pos int) (entities.Quantity, error) {
	if pos < 0 || pos >= len(record) {
		return 0, nil
	}
	return parseQuantity(record[pos])
}
