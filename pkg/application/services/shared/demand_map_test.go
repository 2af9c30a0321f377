package shared

import (
	"strings"
	"testing"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

func TestDemandMap_BasicOperations(t *testing.T) {
	// Test creating empty demand map
	demandMap := NewDemandMap()
	if demandMap.Size() != 0 {
		t.Errorf("Expected empty map, got size %d", demandMap.Size())
	}

	// Test Set and Get
	context := &DemandContext{
		Demand:    50,
		OnHand:    80,
		Available: 30,
		Lines:     2,
	}

	demandMap.Set("R4", "CE", context)

	retrieved := demandMap.Get("R4", "CE")
	if retrieved == nil {
		t.Error("Expected to find demand context")
	} else {
		if retrieved.Demand != 50 {
			t.Errorf("Expected demand 50, got %d", retrieved.Demand)
		}
		if !retrieved.HasShortage() {
			t.Error("Expected HasShortage to be true")
		}
	}

	// Test Has method
	if !demandMap.Has("R4", "CE") {
		t.Error("Expected Has to return true")
	}

	if demandMap.Has("R4", "CW") {
		t.Error("Expected Has to return false for another warehouse")
	}
}

func TestDemandMap_FromLines(t *testing.T) {
	lines := []*entities.ExpandedLine{
		{Reference: "R1", Warehouse: "CE", UnitCount: 20, OnHand: 40, Available: 35},
		{Reference: "R1", Warehouse: "CE", UnitCount: 30, OnHand: 40, Available: 35},
		{Reference: "R1", Warehouse: "CW", UnitCount: 5, OnHand: 10, Available: 10},
		{Reference: "R2", Warehouse: "CE", UnitCount: 7},
	}

	demandMap := NewDemandMapFromLines(lines)

	if demandMap.Size() != 3 {
		t.Errorf("Expected map size 3, got %d", demandMap.Size())
	}

	ce := demandMap.Get("R1", "CE")
	if ce.Demand != 50 || ce.Lines != 2 {
		t.Errorf("Expected demand 50 over 2 lines, got %d over %d", ce.Demand, ce.Lines)
	}
	if ce.Available != 35 {
		t.Errorf("Expected available 35, got %d", ce.Available)
	}

	if demandMap.GetTotalDemand() != 62 {
		t.Errorf("Expected total demand 62, got %d", demandMap.GetTotalDemand())
	}

	keys := demandMap.Keys()
	if len(keys) != 3 || keys[0].Reference != "R1" || keys[0].Warehouse != "CE" || keys[2].Reference != "R2" {
		t.Errorf("Expected sorted keys, got %v", keys)
	}
}

func TestDemandMap_String(t *testing.T) {
	demandMap := NewDemandMap()
	if demandMap.String() != "DemandMap{empty}" {
		t.Errorf("Expected empty representation, got %s", demandMap.String())
	}

	demandMap.Set("R1", "CE", &DemandContext{Demand: 5, OnHand: 1, Available: 1, Lines: 1})
	if !strings.Contains(demandMap.String(), "R1@CE: demand=5") {
		t.Errorf("Expected entry in representation, got %s", demandMap.String())
	}
}
