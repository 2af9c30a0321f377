package entities

import (
	"sort"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDestinationID_Less(t *testing.T) {
	ids := []DestinationID{"101", "9", "B2", "5", "A1", "20"}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	expected := []DestinationID{"5", "9", "20", "101", "A1", "B2"}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Fatalf("Expected order %v, got %v", expected, ids)
		}
	}
}

func TestExpandedLine_CloneIsIndependent(t *testing.T) {
	line := &ExpandedLine{Reference: "R1", UnitCount: 24, UnitPrice: decimal.NewFromInt(1)}
	clone := line.Clone()
	clone.UnitCount = 10
	clone.Flagged = true

	if line.UnitCount != 24 || line.Flagged {
		t.Errorf("Expected original to be unchanged, got %+v", line)
	}
}

func TestExpandedLine_Recompute(t *testing.T) {
	line := &ExpandedLine{UnitCount: 3, UnitPrice: decimal.RequireFromString("1.3333")}
	line.Recompute()

	if !line.TotalPrice.Equal(decimal.RequireFromString("4.00")) {
		t.Errorf("Expected total 4.00, got %s", line.TotalPrice)
	}
}

func TestDiagnostics_CountAndMessages(t *testing.T) {
	ds := Diagnostics{
		{Kind: ExtractionError, Stage: "scan", Document: "po.pdf", Page: 2, Line: 14, Message: "too few numeric tokens"},
		{Kind: ReferenceMismatch, Stage: "expand", Reference: "999999", Message: "no catalog variant"},
		{Kind: ReferenceMismatch, Stage: "expand", Reference: "888888", Message: "no catalog variant"},
	}

	if ds.Count(ReferenceMismatch) != 2 {
		t.Errorf("Expected 2 reference mismatches, got %d", ds.Count(ReferenceMismatch))
	}
	if ds.Count(ValidationError) != 0 {
		t.Errorf("Expected 0 validation errors, got %d", ds.Count(ValidationError))
	}

	msgs := ds.Messages()
	if !strings.Contains(msgs[0], "po.pdf, page 2, line 14") {
		t.Errorf("Expected location in message, got %q", msgs[0])
	}
	if !strings.HasPrefix(msgs[1], "[ReferenceMismatch]") {
		t.Errorf("Expected kind prefix, got %q", msgs[1])
	}
}
