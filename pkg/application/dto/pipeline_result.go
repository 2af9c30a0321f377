package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// StageTiming records one stage's input/output counts and duration
type StageTiming struct {
	Stage       string        `json:"stage"`
	Input       int           `json:"input"`
	Output      int           `json:"output"`
	Diagnostics int           `json:"diagnostics"`
	Duration    time.Duration `json:"duration"`
}

// PipelineRun is the explicit context of one import run
type PipelineRun struct {
	ID          uuid.UUID            `json:"id"`
	StartedAt   time.Time            `json:"started_at"`
	Start       int                  `json:"start"`
	Stages      []StageTiming        `json:"stages"`
	Diagnostics entities.Diagnostics `json:"diagnostics"`
}

// NewPipelineRun creates a run with a fresh identifier
func NewPipelineRun() *PipelineRun {
	return &PipelineRun{
		ID:          uuid.New(),
		StartedAt:   time.Now(),
		Diagnostics: make(entities.Diagnostics, 0),
	}
}

// Record appends a stage's timing and diagnostics to the run
func (r *PipelineRun) Record(stage string, input, output int, elapsed time.Duration, diags entities.Diagnostics) StageTiming {
	timing := StageTiming{
		Stage:       stage,
		Input:       input,
		Output:      output,
		Diagnostics: len(diags),
		Duration:    elapsed,
	}
	r.Stages = append(r.Stages, timing)
	r.Diagnostics = append(r.Diagnostics, diags...)
	return timing
}

// Stage returns the timing recorded for a stage
func (r *PipelineRun) Stage(name string) (StageTiming, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageTiming{}, false
}

// PipelineResult contains the complete output of an import run
type PipelineResult struct {
	Run       *PipelineRun             `json:"run"`
	RawLines  []*entities.RawLine      `json:"-"`
	Lines     []*entities.ExpandedLine `json:"lines"`
	Headers   []*entities.OrderHeader  `json:"headers"`
	Unmatched []entities.ReferenceCode `json:"unmatched"`
	Dropped   int                      `json:"dropped"`
	Flagged   int                      `json:"flagged"`
	Shortages int                      `json:"shortages"`
	Next      int                      `json:"next"`
}

// Diagnostics returns everything the run accumulated
func (r *PipelineResult) Diagnostics() entities.Diagnostics {
	if r.Run == nil {
		return nil
	}
	return r.Run.Diagnostics
}

// Found reports whether a reference produced at least one expanded line
func (r *PipelineResult) Found(ref entities.ReferenceCode) bool {
	for _, line := range r.Lines {
		if line.Reference == ref {
			return true
		}
	}
	return false
}

// LinesFor returns the lines carrying an order reference
func (r *PipelineResult) LinesFor(orderReference string) []*entities.ExpandedLine {
	var out []*entities.ExpandedLine
	for _, line := range r.Lines {
		if line.OrderReference == orderReference {
			out = append(out, line)
		}
	}
	return out
}

// GetSummary returns a formatted summary of the run
func (r *PipelineResult) GetSummary() string {
	summary := fmt.Sprintf("Import Summary (run %s):\n", r.Run.ID)
	summary += fmt.Sprintf("  Extracted: %d lines, %d dropped by validation\n", len(r.RawLines), r.Dropped)
	summary += fmt.Sprintf("  Expanded: %d lines, %d unmatched references\n", len(r.Lines), len(r.Unmatched))
	summary += fmt.Sprintf("  Orders: %d (next reference number %d)\n", len(r.Headers), r.Next)
	summary += fmt.Sprintf("  Allocation: %d flagged, %d shortages", r.Flagged, r.Shortages)
	return summary
}

// Submission is the outcome of creating one order in the target system
type Submission struct {
	OrderReference string `json:"order_reference"`
	OrderID        string `json:"order_id,omitempty"`
	Error          string `json:"error,omitempty"`
}
