package events

import (
	"time"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

const (
	StageCompletedEvent     = "stage.completed"
	ReferenceUnmatchedEvent = "reference.unmatched"
	LineFlaggedEvent        = "line.flagged"
	OrderAssignedEvent      = "order.assigned"
)

type StageCompleted struct {
	Stage       string        `json:"stage"`
	Input       int           `json:"input"`
	Output      int           `json:"output"`
	Diagnostics int           `json:"diagnostics"`
	Duration    time.Duration `json:"duration"`
}

type ReferenceUnmatched struct {
	Reference entities.ReferenceCode `json:"reference"`
}

type LineFlagged struct {
	LineNo         int                    `json:"line_no"`
	Reference      entities.ReferenceCode `json:"reference"`
	DestinationID  entities.DestinationID `json:"destination_id"`
	Warehouse      entities.WarehouseCode `json:"warehouse"`
	Flagged        bool                   `json:"flagged"`
	Reason         string                 `json:"reason"`
	ShortageDetail string                 `json:"shortage_detail,omitempty"`
}

type OrderAssigned struct {
	DestinationID  entities.DestinationID `json:"destination_id"`
	OrderReference string                 `json:"order_reference"`
	TotalLines     int                    `json:"total_lines"`
}

func NewStageCompletedEvent(runID string, data StageCompleted) Event {
	return NewEvent(StageCompletedEvent, runID, data)
}

func NewReferenceUnmatchedEvent(runID string, ref entities.ReferenceCode) Event {
	return NewEvent(ReferenceUnmatchedEvent, runID, ReferenceUnmatched{Reference: ref})
}

// NewLineFlaggedEvent describes an allocation annotation on one line
func NewLineFlaggedEvent(runID string, line *entities.ExpandedLine) Event {
	return NewEvent(LineFlaggedEvent, runID, LineFlagged{
		LineNo:         line.LineNo,
		Reference:      line.Reference,
		DestinationID:  line.DestinationID,
		Warehouse:      line.Warehouse,
		Flagged:        line.Flagged,
		Reason:         line.FlagReason,
		ShortageDetail: line.ShortageDetail,
	})
}

func NewOrderAssignedEvent(runID string, header *entities.OrderHeader) Event {
	return NewEvent(OrderAssignedEvent, runID, OrderAssigned{
		DestinationID:  header.DestinationID,
		OrderReference: header.OrderReference,
		TotalLines:     header.TotalLines,
	})
}
