package aggregation

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// NameResolver returns the official name to print on a destination's order
type NameResolver func(id entities.DestinationID, printedName string) string

// StaticNames resolves from a fixed mapping, defaulting to "Store <id>"
func StaticNames(names map[entities.DestinationID]string) NameResolver {
	return func(id entities.DestinationID, _ string) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return fmt.Sprintf("Store %s", id)
	}
}

// Config holds configuration for the order aggregator
type Config struct {
	Prefix string
	Width  int
	Names  NameResolver
	Logger *slog.Logger
}

// DefaultConfig returns the aggregator configuration producing OATS00391-style references
func DefaultConfig() Config {
	return Config{Prefix: "OATS", Width: 5}
}

// Aggregator groups expanded lines into one order per destination
type Aggregator struct {
	prefix string
	width  int
	names  NameResolver
	logger *slog.Logger
}

// NewAggregator creates an order aggregator
func NewAggregator(config Config) *Aggregator {
	if config.Width <= 0 {
		config.Width = 5
	}
	names := config.Names
	if names == nil {
		names = StaticNames(nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{
		prefix: config.Prefix,
		width:  config.Width,
		names:  names,
		logger: logger,
	}
}

// AggregationResult contains the referenced lines, one header per destination
// and the first sequence number not used
type AggregationResult struct {
	Lines   []*entities.ExpandedLine
	Headers []*entities.OrderHeader
	Next    int
}

// Reference formats the order reference for sequence number n
func (a *Aggregator) Reference(n int) string {
	return fmt.Sprintf("%s%0*d", a.prefix, a.width, n)
}

// Aggregate assigns prefix+(start+i) to the i-th destination in ascending id
// order and builds its header. The input lines are not modified.
func (a *Aggregator) Aggregate(lines []*entities.ExpandedLine, start int) *AggregationResult {
	out := entities.CloneLines(lines)

	groups := make(map[entities.DestinationID][]*entities.ExpandedLine)
	for _, line := range out {
		groups[line.DestinationID] = append(groups[line.DestinationID], line)
	}

	ids := make([]entities.DestinationID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	headers := make([]*entities.OrderHeader, 0, len(ids))
	for i, id := range ids {
		ref := a.Reference(start + i)
		group := groups[id]
		for _, line := range group {
			line.OrderReference = ref
		}
		headers = append(headers, a.buildHeader(id, ref, group))
	}

	a.logger.Info("aggregated orders", "lines", len(out), "orders", len(headers), "start", start)
	return &AggregationResult{
		Lines:   out,
		Headers: headers,
		Next:    start + len(ids),
	}
}

func (a *Aggregator) buildHeader(id entities.DestinationID, ref string, group []*entities.ExpandedLine) *entities.OrderHeader {
	header := &entities.OrderHeader{
		DestinationID:  id,
		OrderReference: ref,
		Warehouse:      group[0].Warehouse,
		TotalValue:     decimal.Zero,
	}

	orderNumbers := make(map[entities.OrderNumber]bool)
	for _, line := range group {
		if header.DestinationName == "" {
			header.DestinationName = line.DestinationName
		}
		orderNumbers[line.OrderNumber] = true
		if !line.OrderDate.IsZero() && (header.OrderDate.IsZero() || line.OrderDate.Before(header.OrderDate)) {
			header.OrderDate = line.OrderDate
		}
		if !line.DeliveryDate.IsZero() && (header.DeliveryDate.IsZero() || line.DeliveryDate.Before(header.DeliveryDate)) {
			header.DeliveryDate = line.DeliveryDate
		}
		header.TotalValue = header.TotalValue.Add(line.TotalPrice)
		header.TotalLines++
	}

	numbers := make([]string, 0, len(orderNumbers))
	for n := range orderNumbers {
		numbers = append(numbers, string(n))
	}
	sort.Strings(numbers)
	header.OrderNumbers = strings.Join(numbers, ", ")
	header.OrderCount = len(numbers)
	header.OfficialName = a.names(id, header.DestinationName)

	return header
}
