package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

func rawLine(order, dest, ref, qty, price string) *entities.RawLine {
	return &entities.RawLine{
		OrderNumber:   entities.OrderNumber(order),
		DestinationID: entities.DestinationID(dest),
		Reference:     entities.ReferenceCode(ref),
		OrderedQty:    qty,
		Price:         price,
		OrderDate:     "5/14/2024",
		DeliveryDate:  "5/21/2024",
	}
}

func TestLineValidator_DropsInvalidRecords(t *testing.T) {
	validator := NewLineValidator()

	testCases := []struct {
		name        string
		line        *entities.RawLine
		expectError string
	}{
		{"missing order number", rawLine("", "101", "100234", "2", "24.00"), "order number cannot be empty"},
		{"missing destination", rawLine("4500123", " ", "100234", "2", "24.00"), "destination id cannot be empty"},
		{"missing reference", rawLine("4500123", "101", "", "2", "24.00"), "reference code cannot be empty"},
		{"bad quantity", rawLine("4500123", "101", "100234", "two", "24.00"), `invalid ordered quantity "two"`},
		{"bad price", rawLine("4500123", "101", "100234", "2", ""), `invalid price ""`},
		{"zero quantity", rawLine("4500123", "101", "100234", "0", "24.00"), "quantity and price must be positive"},
		{"negative price", rawLine("4500123", "101", "100234", "2", "-1"), "quantity and price must be positive"},
		{"quantity over limit", rawLine("4500123", "101", "100234", "5000000", "24.00"), "quantity 5000000 exceeds limit 10000"},
		{"price over limit", rawLine("4500123", "101", "100234", "2", "9999999"), "price 9999999 exceeds limit 100000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.Validate([]*entities.RawLine{tc.line})
			if len(result.Valid) != 0 {
				t.Fatalf("Expected line to be dropped, got %d valid", len(result.Valid))
			}
			if result.Dropped != 1 {
				t.Errorf("Expected dropped count 1, got %d", result.Dropped)
			}
			if len(result.Diagnostics) != 1 {
				t.Fatalf("Expected 1 diagnostic, got %d", len(result.Diagnostics))
			}
			if result.Diagnostics[0].Kind != entities.ValidationError {
				t.Errorf("Expected ValidationError, got %s", result.Diagnostics[0].Kind)
			}
			if !strings.Contains(result.Diagnostics[0].Message, tc.expectError) {
				t.Errorf("Expected message containing '%s', got '%s'", tc.expectError, result.Diagnostics[0].Message)
			}
		})
	}
}

func TestLineValidator_CoercesValidRecords(t *testing.T) {
	validator := NewLineValidator()

	lines := []*entities.RawLine{
		rawLine("4500123", "101", "100234", "2", "24.00"),
		rawLine("4500123", "101", "100235", "1,200", "$1,024.50"),
		rawLine("", "101", "100236", "1", "1"),
	}

	result := validator.Validate(lines)
	if len(result.Valid) != 2 {
		t.Fatalf("Expected 2 valid lines, got %d", len(result.Valid))
	}
	if result.Dropped != 1 {
		t.Errorf("Expected dropped count 1, got %d", result.Dropped)
	}

	second := result.Valid[1]
	if !second.Quantity.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("Expected quantity 1200, got %s", second.Quantity)
	}
	if !second.CasePrice.Equal(decimal.RequireFromString("1024.5")) {
		t.Errorf("Expected price 1024.5, got %s", second.CasePrice)
	}

	expectedOrder := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	if !result.Valid[0].OrderDate.Equal(expectedOrder) {
		t.Errorf("Expected order date %v, got %v", expectedOrder, result.Valid[0].OrderDate)
	}
}

func TestLineValidator_UnparseableDateKeepsLine(t *testing.T) {
	validator := NewLineValidator("2006-01-02")

	line := rawLine("4500123", "101", "100234", "2", "24.00")
	line.OrderDate = "2024-05-14"
	line.DeliveryDate = "next tuesday"

	result := validator.Validate([]*entities.RawLine{line})
	if len(result.Valid) != 1 {
		t.Fatalf("Expected line to survive, got %d valid", len(result.Valid))
	}
	if result.Dropped != 0 {
		t.Errorf("Expected nothing dropped, got %d", result.Dropped)
	}
	if !result.Valid[0].DeliveryDate.IsZero() {
		t.Errorf("Expected blank delivery date, got %v", result.Valid[0].DeliveryDate)
	}
	if len(result.Diagnostics) != 1 {
		t.Errorf("Expected 1 diagnostic for the date, got %d", len(result.Diagnostics))
	}
}

func TestLineValidator_LinePrice(t *testing.T) {
	testCases := []struct {
		name     string
		amount   string
		expected string
	}{
		{"derived from quantity and price", "", "48"},
		{"printed amount wins", "47.95", "47.95"},
		{"amount with separators", "1,047.95", "1047.95"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line := rawLine("4500123", "101", "100234", "2", "24.00")
			line.Amount = tc.amount

			result := NewLineValidator().Validate([]*entities.RawLine{line})
			if len(result.Valid) != 1 {
				t.Fatalf("Expected 1 valid line, got %d", len(result.Valid))
			}
			if !result.Valid[0].LinePrice.Equal(decimal.RequireFromString(tc.expected)) {
				t.Errorf("Expected line price %s, got %s", tc.expected, result.Valid[0].LinePrice)
			}
		})
	}
}

func TestLineValidator_BadAmountDropsLine(t *testing.T) {
	line := rawLine("4500123", "101", "100234", "2", "24.00")
	line.Amount = "n/a"

	result := NewLineValidator().Validate([]*entities.RawLine{line})
	if result.Dropped != 1 {
		t.Fatalf("Expected line to be dropped, got %d dropped", result.Dropped)
	}
	if !strings.Contains(result.Diagnostics[0].Message, `invalid line amount "n/a"`) {
		t.Errorf("Expected invalid amount diagnostic, got %q", result.Diagnostics[0].Message)
	}
}

func TestLineValidator_WithLimits(t *testing.T) {
	validator := NewLineValidator().WithLimits(Limits{MaxQuantity: decimal.NewFromInt(50)})

	lines := []*entities.RawLine{
		rawLine("4500123", "101", "100234", "50", "24.00"),
		rawLine("4500123", "101", "100235", "51", "24.00"),
		rawLine("4500123", "101", "100236", "1", "100000"),
	}
	result := validator.Validate(lines)

	if len(result.Valid) != 2 || result.Dropped != 1 {
		t.Fatalf("Expected 2 valid and 1 dropped, got %d and %d", len(result.Valid), result.Dropped)
	}
	if result.Diagnostics[0].Reference != "100235" {
		t.Errorf("Expected 100235 to be dropped, got %s", result.Diagnostics[0].Reference)
	}
	if result.Valid[1].Reference != "100236" {
		t.Errorf("Expected default price limit to keep 100236, got %s", result.Valid[1].Reference)
	}
}
