package extraction

import (
	"strings"
	"unicode"
)

// ColumnKind names a numeric column that follows the size/pack column
type ColumnKind int

const (
	ColumnQuantity ColumnKind = iota
	ColumnPrice
	ColumnAmount
)

// String method for ColumnKind enum
func (k ColumnKind) String() string {
	switch k {
	case ColumnQuantity:
		return "Quantity"
	case ColumnPrice:
		return "Price"
	case ColumnAmount:
		return "Amount"
	default:
		return "Unknown"
	}
}

var columnLabels = map[string]ColumnKind{
	"qty":       ColumnQuantity,
	"quantity":  ColumnQuantity,
	"order":     ColumnQuantity,
	"ordered":   ColumnQuantity,
	"cases":     ColumnQuantity,
	"price":     ColumnPrice,
	"cost":      ColumnPrice,
	"amount":    ColumnAmount,
	"total":     ColumnAmount,
	"extension": ColumnAmount,
	"ext":       ColumnAmount,
	"value":     ColumnAmount,
}

var sizeLabels = map[string]bool{
	"size":      true,
	"pack":      true,
	"size/pack": true,
}

// headerWords are the other words found in item table headers
var headerWords = map[string]bool{
	"item":        true,
	"code":        true,
	"barcode":     true,
	"description": true,
	"name":        true,
	"no":          true,
	"of":          true,
	"unit":        true,
	"uom":         true,
}

// ColumnLayout is the ordered list of numeric columns announced by a table header row
type ColumnLayout struct {
	Columns   []ColumnKind
	qtyIdx    int
	priceIdx  int
	amountIdx int
}

// Width returns the number of numeric columns in the layout
func (l *ColumnLayout) Width() int {
	return len(l.Columns)
}

// Resolve picks quantity, price and (when the layout has one) the line amount
// out of the trailing numeric tokens of an item line. It only succeeds when
// the token count matches the layout.
func (l *ColumnLayout) Resolve(numbers []string) (qty, price, amount string, ok bool) {
	if l == nil || len(numbers) != len(l.Columns) {
		return "", "", "", false
	}
	if l.amountIdx >= 0 {
		amount = numbers[l.amountIdx]
	}
	return numbers[l.qtyIdx], numbers[l.priceIdx], amount, true
}

// ParseColumnLayout recognises a table header row such as
// "Item Description Size/Pack # of Order Price Amount". A size/pack label
// must come before the numeric labels, and header labels must make up most
// of the row so that prose mentioning "price" or "order" is not taken for a
// header. Both a quantity and a price label are required.
func ParseColumnLayout(line string) (*ColumnLayout, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || unicode.IsDigit([]rune(trimmed)[0]) {
		return nil, false
	}

	var kinds []ColumnKind
	sized := false
	words, labels := 0, 0
	for _, word := range strings.Fields(strings.ToLower(trimmed)) {
		word = strings.Trim(word, ".:#()")
		if word == "" {
			continue
		}
		words++
		if sizeLabels[word] {
			labels++
			sized = true
			kinds = kinds[:0]
			continue
		}
		if headerWords[word] {
			labels++
			continue
		}
		kind, ok := columnLabels[word]
		if !ok {
			continue
		}
		labels++
		// "Total Amount" is one column, not two
		if len(kinds) > 0 && kinds[len(kinds)-1] == kind {
			continue
		}
		kinds = append(kinds, kind)
	}
	if !sized || labels*2 <= words {
		return nil, false
	}

	layout := &ColumnLayout{Columns: kinds, qtyIdx: -1, priceIdx: -1, amountIdx: -1}
	for i, kind := range kinds {
		if kind == ColumnQuantity && layout.qtyIdx < 0 {
			layout.qtyIdx = i
		}
		if kind == ColumnPrice && layout.priceIdx < 0 {
			layout.priceIdx = i
		}
		if kind == ColumnAmount && layout.amountIdx < 0 {
			layout.amountIdx = i
		}
	}
	if layout.qtyIdx < 0 || layout.priceIdx < 0 {
		return nil, false
	}
	return layout, true
}
