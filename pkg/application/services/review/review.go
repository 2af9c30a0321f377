package review

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// Override is a reviewer's manual correction to one expanded line
type Override struct {
	LineNo    int
	UnitCount *entities.Quantity
	UnitPrice *decimal.Decimal
	Remove    bool
}

// DeleteFlagged returns copies of the lines that are not flagged
func DeleteFlagged(lines []*entities.ExpandedLine) []*entities.ExpandedLine {
	out := make([]*entities.ExpandedLine, 0, len(lines))
	for _, line := range lines {
		if line.Flagged {
			continue
		}
		out = append(out, line.Clone())
	}
	return out
}

// ApplyOverrides returns copies of the lines with the overrides applied and
// totals recomputed. An override naming an unknown line is an error.
func ApplyOverrides(lines []*entities.ExpandedLine, overrides []Override) ([]*entities.ExpandedLine, error) {
	byLine := make(map[int]Override, len(overrides))
	for _, o := range overrides {
		if _, dup := byLine[o.LineNo]; dup {
			return nil, fmt.Errorf("duplicate override for line %d", o.LineNo)
		}
		if o.UnitCount != nil && *o.UnitCount < 0 {
			return nil, fmt.Errorf("line %d: quantity cannot be negative", o.LineNo)
		}
		if o.UnitPrice != nil && o.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("line %d: unit price cannot be negative", o.LineNo)
		}
		byLine[o.LineNo] = o
	}

	out := make([]*entities.ExpandedLine, 0, len(lines))
	for _, line := range lines {
		o, ok := byLine[line.LineNo]
		if !ok {
			out = append(out, line.Clone())
			continue
		}
		delete(byLine, line.LineNo)
		if o.Remove {
			continue
		}

		c := line.Clone()
		if o.UnitCount != nil {
			c.UnitCount = *o.UnitCount
		}
		if o.UnitPrice != nil {
			c.UnitPrice = *o.UnitPrice
		}
		c.Recompute()
		out = append(out, c)
	}

	if len(byLine) > 0 {
		unknown := make([]int, 0, len(byLine))
		for lineNo := range byLine {
			unknown = append(unknown, lineNo)
		}
		sort.Ints(unknown)
		return nil, fmt.Errorf("override for unknown line %d", unknown[0])
	}
	return out, nil
}

// RebuildHeaders recomputes line counts and totals from the current lines.
// Headers left with no lines are dropped; references are never renumbered.
func RebuildHeaders(headers []*entities.OrderHeader, lines []*entities.ExpandedLine) []*entities.OrderHeader {
	type totals struct {
		lines int
		value decimal.Decimal
	}
	byRef := make(map[string]*totals)
	for _, line := range lines {
		t, ok := byRef[line.OrderReference]
		if !ok {
			t = &totals{value: decimal.Zero}
			byRef[line.OrderReference] = t
		}
		t.lines++
		t.value = t.value.Add(line.TotalPrice)
	}

	out := make([]*entities.OrderHeader, 0, len(headers))
	for _, h := range headers {
		t, ok := byRef[h.OrderReference]
		if !ok {
			continue
		}
		c := *h
		c.TotalLines = t.lines
		c.TotalValue = t.value
		out = append(out, &c)
	}
	return out
}
