package review

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	testhelpers "github.com/vsinha/poimport/pkg/application/services/testing"
	"github.com/vsinha/poimport/pkg/domain/entities"
)

func reviewLines() []*entities.ExpandedLine {
	a := testhelpers.ExpandedLine("5", "R1", "CE", 24, "1.00")
	a.LineNo, a.OrderReference = 1, "OATS00391"
	b := testhelpers.ExpandedLine("5", "R3", "CE", 6, "2.00")
	b.LineNo, b.OrderReference = 2, "OATS00391"
	b.Flagged, b.FlagReason = true, "zero/negative on-hand"
	c := testhelpers.ExpandedLine("9", "R3", "CE", 1, "2.00")
	c.LineNo, c.OrderReference = 3, "OATS00392"
	c.Flagged = true
	return []*entities.ExpandedLine{a, b, c}
}

func TestDeleteFlagged(t *testing.T) {
	lines := reviewLines()
	kept := DeleteFlagged(lines)

	if len(kept) != 1 || kept[0].LineNo != 1 {
		t.Fatalf("Expected only line 1 to remain, got %d lines", len(kept))
	}
	kept[0].UnitCount = 1
	if lines[0].UnitCount != 24 {
		t.Errorf("Expected input to be unaffected, got %d", lines[0].UnitCount)
	}
}

func TestApplyOverrides(t *testing.T) {
	qty := entities.Quantity(10)
	price := decimal.RequireFromString("1.25")

	out, err := ApplyOverrides(reviewLines(), []Override{
		{LineNo: 1, UnitCount: &qty, UnitPrice: &price},
		{LineNo: 3, Remove: true},
	})
	if err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(out))
	}
	if out[0].UnitCount != 10 || !out[0].TotalPrice.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("Expected 10 units totalling 12.50, got %d totalling %s", out[0].UnitCount, out[0].TotalPrice)
	}
}

func TestApplyOverrides_Errors(t *testing.T) {
	negative := entities.Quantity(-1)

	testCases := []struct {
		name        string
		overrides   []Override
		expectError string
	}{
		{"unknown line", []Override{{LineNo: 99, Remove: true}}, "unknown line 99"},
		{"duplicate", []Override{{LineNo: 1, Remove: true}, {LineNo: 1, Remove: true}}, "duplicate override"},
		{"negative quantity", []Override{{LineNo: 1, UnitCount: &negative}}, "quantity cannot be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ApplyOverrides(reviewLines(), tc.overrides)
			if err == nil || !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error containing '%s', got %v", tc.expectError, err)
			}
		})
	}
}

func TestRebuildHeaders(t *testing.T) {
	headers := []*entities.OrderHeader{
		{DestinationID: "5", OrderReference: "OATS00391", TotalLines: 2, TotalValue: decimal.NewFromInt(36)},
		{DestinationID: "9", OrderReference: "OATS00392", TotalLines: 1, TotalValue: decimal.NewFromInt(2)},
	}

	rebuilt := RebuildHeaders(headers, DeleteFlagged(reviewLines()))

	if len(rebuilt) != 1 {
		t.Fatalf("Expected 1 header, got %d", len(rebuilt))
	}
	if rebuilt[0].OrderReference != "OATS00391" {
		t.Errorf("Expected OATS00391 to keep its reference, got %s", rebuilt[0].OrderReference)
	}
	if rebuilt[0].TotalLines != 1 || !rebuilt[0].TotalValue.Equal(decimal.NewFromInt(24)) {
		t.Errorf("Expected 1 line worth 24, got %d worth %s", rebuilt[0].TotalLines, rebuilt[0].TotalValue)
	}
	if headers[0].TotalLines != 2 {
		t.Errorf("Expected original header untouched, got %d lines", headers[0].TotalLines)
	}
}
