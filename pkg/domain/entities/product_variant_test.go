package entities

import "testing"

func TestProductVariant_Validation(t *testing.T) {
	valid, err := NewProductVariant("17", "100234", "0628915001", "Jasmine Rice 8kg", 12)
	if err != nil {
		t.Fatalf("Expected valid variant creation to succeed: %v", err)
	}
	if valid.UnitsPerOrder != 12 {
		t.Errorf("Expected units per order 12, got %d", valid.UnitsPerOrder)
	}

	testCases := []struct {
		name        string
		reference   ReferenceCode
		productName string
		expectError string
	}{
		{"empty reference", "", "Jasmine Rice", "reference code cannot be empty"},
		{"empty name", "100234", "", "product name cannot be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProductVariant("1", tc.reference, "", tc.productName, 1)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestProductVariant_MissingFactorDefaultsToOne(t *testing.T) {
	for _, factor := range []Quantity{0, -3} {
		v, err := NewProductVariant("1", "100234", "", "Soy Sauce", factor)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if v.Factor() != 1 {
			t.Errorf("Expected factor 1 for input %d, got %d", factor, v.Factor())
		}
	}

	bare := &ProductVariant{Reference: "100234", Name: "Soy Sauce"}
	if bare.Factor() != 1 {
		t.Errorf("Expected factor 1 for zero-value variant, got %d", bare.Factor())
	}
}

func TestProductVariant_StockAt(t *testing.T) {
	v, _ := NewProductVariant("1", "100234", "", "Soy Sauce", 6)
	v.SetStock("CE", 40, 25)

	ce := v.StockAt("CE")
	if ce.OnHand != 40 || ce.Available != 25 {
		t.Errorf("Expected CE stock 40/25, got %d/%d", ce.OnHand, ce.Available)
	}

	cw := v.StockAt("CW")
	if cw.OnHand != 0 || cw.Available != 0 {
		t.Errorf("Expected zero stock for unknown warehouse, got %d/%d", cw.OnHand, cw.Available)
	}
}
