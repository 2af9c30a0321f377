package allocation

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vsinha/poimport/pkg/application/services/shared"
	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

const allocateStage = "allocate"

// Flag reasons written onto lines
const (
	ReasonNoOnHand = "zero/negative on-hand"
	ReasonShortage = "Shortage"
)

// Allocator checks grouped demand against warehouse stock. It only annotates:
// unit counts are never changed.
type Allocator struct {
	logger *slog.Logger
}

// NewAllocator creates an inventory allocator
func NewAllocator(logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Allocator{logger: logger}
}

// AllocationResult contains the annotated lines and per-group demand
type AllocationResult struct {
	Lines       []*entities.ExpandedLine
	Groups      shared.DemandMap
	Flagged     int
	Shortages   int
	Diagnostics entities.Diagnostics
}

// Allocate merges the history snapshot onto copies of the lines, defaulting
// absent keys to zero, then checks each (reference, warehouse) group.
func (a *Allocator) Allocate(lines []*entities.ExpandedLine, history *repositories.HistorySnapshot) *AllocationResult {
	out := entities.CloneLines(lines)
	if history == nil {
		history = repositories.NewHistorySnapshot()
	}

	for _, line := range out {
		key := line.Key()
		line.HistAvgDemand = history.AvgDemand[key]
		line.StoreOnHand = history.StoreOnHand[key]
	}

	groups := shared.NewDemandMapFromLines(out)
	members := make(map[shared.GroupKey][]*entities.ExpandedLine, groups.Size())
	for _, line := range out {
		gk := shared.GroupKey{Reference: line.Reference, Warehouse: line.Warehouse}
		members[gk] = append(members[gk], line)
	}

	result := &AllocationResult{
		Lines:       out,
		Groups:      groups,
		Diagnostics: make(entities.Diagnostics, 0),
	}

	for _, gk := range groups.Keys() {
		group := members[gk]
		dc := groups.Get(gk.Reference, gk.Warehouse)

		if dc.OnHand <= 0 {
			for _, line := range group {
				line.Flagged = true
				line.FlagReason = ReasonNoOnHand
			}
			result.Flagged += len(group)
			result.Diagnostics = append(result.Diagnostics, a.warning(gk,
				fmt.Sprintf("on-hand %d in %s, %d lines flagged", dc.OnHand, gk.Warehouse, len(group))))
			continue
		}

		if !dc.HasShortage() {
			continue
		}

		if dc.Available <= 0 {
			reason := fmt.Sprintf("negative available: %d", dc.Available)
			if existing := group[0].FlagReason; existing != "" {
				reason = fmt.Sprintf("%s, available: %d", existing, dc.Available)
			}
			for _, line := range group {
				line.Flagged = true
				line.FlagReason = reason
			}
			result.Flagged += len(group)
			result.Diagnostics = append(result.Diagnostics, a.warning(gk,
				fmt.Sprintf("demand %d with available %d in %s, %d lines flagged", dc.Demand, dc.Available, gk.Warehouse, len(group))))
			continue
		}

		detail := fmt.Sprintf("demand=%d, available=%d", dc.Demand, dc.Available)
		for _, line := range group {
			line.FlagReason = ReasonShortage
			line.ShortageDetail = detail
		}
		result.Shortages += len(group)
		result.Diagnostics = append(result.Diagnostics, a.warning(gk,
			fmt.Sprintf("shortage in %s: %s", gk.Warehouse, detail)))
	}

	a.logger.Info("allocated lines",
		"lines", len(out),
		"groups", groups.Size(),
		"flagged", result.Flagged,
		"shortages", result.Shortages)
	return result
}

func (a *Allocator) warning(gk shared.GroupKey, msg string) entities.Diagnostic {
	return entities.Diagnostic{
		Kind:      entities.AllocationWarning,
		Stage:     allocateStage,
		Reference: gk.Reference,
		Message:   msg,
	}
}
