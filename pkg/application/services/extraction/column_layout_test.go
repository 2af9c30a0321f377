package extraction

import "testing"

func TestParseColumnLayout(t *testing.T) {
	testCases := []struct {
		name          string
		line          string
		expectOK      bool
		expectColumns []ColumnKind
	}{
		{"qty price amount", "Item Description Size/Pack Qty Price Amount", true, []ColumnKind{ColumnQuantity, ColumnPrice, ColumnAmount}},
		{"labels before size are ignored", "Total Order Size Pack Cases Cost", true, []ColumnKind{ColumnQuantity, ColumnPrice}},
		{"price first", "Code Name Pack Price Qty", true, []ColumnKind{ColumnPrice, ColumnQuantity}},
		{"no size label", "Code Name Price Qty", false, nil},
		{"prose", "Note: price per order is fixed", false, nil},
		{"prose with size", "Note: size and price per order may change", false, nil},
		{"merged amount labels", "Size/Pack # of Order Unit Price Total Amount", true, []ColumnKind{ColumnQuantity, ColumnPrice, ColumnAmount}},
		{"no price label", "Order Date: 5/14/2024", false, nil},
		{"item line", "100234 Qty Price", false, nil},
		{"blank", "   ", false, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			layout, ok := ParseColumnLayout(tc.line)
			if ok != tc.expectOK {
				t.Fatalf("Expected ok=%v, got %v", tc.expectOK, ok)
			}
			if !ok {
				return
			}
			if layout.Width() != len(tc.expectColumns) {
				t.Fatalf("Expected width %d, got %d", len(tc.expectColumns), layout.Width())
			}
			for i, kind := range tc.expectColumns {
				if layout.Columns[i] != kind {
					t.Errorf("Expected column %d to be %s, got %s", i, kind, layout.Columns[i])
				}
			}
		})
	}
}

func TestColumnLayout_Resolve(t *testing.T) {
	layout, ok := ParseColumnLayout("Size/Pack Price Qty Amount")
	if !ok {
		t.Fatalf("Expected layout to parse")
	}

	qty, price, amount, ok := layout.Resolve([]string{"9.50", "4", "38.00"})
	if !ok {
		t.Fatalf("Expected resolve to succeed")
	}
	if qty != "4" || price != "9.50" || amount != "38.00" {
		t.Errorf("Expected qty 4 price 9.50 amount 38.00, got %s %s %s", qty, price, amount)
	}

	noAmount, _ := ParseColumnLayout("Size/Pack Qty Price")
	if _, _, amount, _ := noAmount.Resolve([]string{"4", "9.50"}); amount != "" {
		t.Errorf("Expected no amount without an amount column, got %s", amount)
	}

	if _, _, _, ok := layout.Resolve([]string{"4", "9.50"}); ok {
		t.Errorf("Expected resolve to fail on width mismatch")
	}

	var none *ColumnLayout
	if _, _, _, ok := none.Resolve([]string{"1", "2"}); ok {
		t.Errorf("Expected nil layout to never resolve")
	}
}
