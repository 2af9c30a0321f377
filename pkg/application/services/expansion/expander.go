package expansion

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
	"github.com/vsinha/poimport/pkg/domain/repositories"
)

const expandStage = "expand"

// PriceBasis selects the units-per-order factor that a variant's unit price is derived from
type PriceBasis int

const (
	// PerVariantFactor prices each variant by its own units-per-order factor
	PerVariantFactor PriceBasis = iota
	// BundleFactor prices every variant by the first variant's factor
	BundleFactor
)

// String method for PriceBasis enum
func (b PriceBasis) String() string {
	switch b {
	case PerVariantFactor:
		return "per-variant"
	case BundleFactor:
		return "bundle"
	default:
		return "unknown"
	}
}

// ParsePriceBasis converts a configuration value to a PriceBasis
func ParsePriceBasis(s string) (PriceBasis, error) {
	switch s {
	case "", "per-variant":
		return PerVariantFactor, nil
	case "bundle":
		return BundleFactor, nil
	default:
		return PerVariantFactor, fmt.Errorf("unknown price basis %q", s)
	}
}

// WarehouseResolver maps a destination to the warehouse that fulfils it
type WarehouseResolver func(entities.DestinationID) entities.WarehouseCode

// StaticWarehouses resolves from a fixed mapping, falling back to a default code
func StaticWarehouses(defaultCode entities.WarehouseCode, mapping map[entities.DestinationID]entities.WarehouseCode) WarehouseResolver {
	return func(id entities.DestinationID) entities.WarehouseCode {
		if wh, ok := mapping[id]; ok {
			return wh
		}
		return defaultCode
	}
}

// Config holds configuration for the reference expander
type Config struct {
	PriceBasis PriceBasis
	Warehouses WarehouseResolver
	Logger     *slog.Logger
}

// Expander pairs validated purchase-order lines with catalog variants
type Expander struct {
	catalog    repositories.CatalogProvider
	priceBasis PriceBasis
	warehouses WarehouseResolver
	logger     *slog.Logger
}

// NewExpander creates a reference expander backed by a catalog provider
func NewExpander(catalog repositories.CatalogProvider, config Config) *Expander {
	warehouses := config.Warehouses
	if warehouses == nil {
		warehouses = StaticWarehouses("CE", nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Expander{
		catalog:    catalog,
		priceBasis: config.PriceBasis,
		warehouses: warehouses,
		logger:     logger,
	}
}

// ExpansionResult contains the expanded lines and the references the catalog did not know
type ExpansionResult struct {
	Lines       []*entities.ExpandedLine
	Unmatched   []entities.ReferenceCode
	Diagnostics entities.Diagnostics
}

// Expand looks up every distinct reference in one catalog call and emits one
// ExpandedLine per (line, variant) pairing. A catalog that returns nothing for
// a non-empty request is fatal.
func (e *Expander) Expand(ctx context.Context, lines []*entities.ValidatedLine) (*ExpansionResult, error) {
	result := &ExpansionResult{
		Lines:       make([]*entities.ExpandedLine, 0, len(lines)),
		Diagnostics: make(entities.Diagnostics, 0),
	}
	if len(lines) == 0 {
		return result, nil
	}

	refs := distinctReferences(lines)
	variants, err := e.catalog.GetVariants(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog variants: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%d references requested: %w", len(refs), entities.ErrCatalogEmpty)
	}

	byRef := make(map[entities.ReferenceCode][]*entities.ProductVariant)
	for _, v := range variants {
		byRef[v.Reference] = append(byRef[v.Reference], v)
	}

	unmatched := make(map[entities.ReferenceCode]bool)
	for _, line := range lines {
		matches := byRef[line.Reference]
		if len(matches) == 0 {
			if !unmatched[line.Reference] {
				unmatched[line.Reference] = true
				result.Unmatched = append(result.Unmatched, line.Reference)
			}
			result.Diagnostics = append(result.Diagnostics, e.diagnostic(line, entities.ReferenceMismatch,
				fmt.Sprintf("no catalog variant for reference %s", line.Reference)))
			continue
		}

		expanded, diags := e.expandLine(line, matches)
		result.Diagnostics = append(result.Diagnostics, diags...)
		for _, el := range expanded {
			el.LineNo = len(result.Lines) + 1
			result.Lines = append(result.Lines, el)
		}
	}

	e.logger.Info("expanded lines",
		"input", len(lines),
		"output", len(result.Lines),
		"variants", len(variants),
		"unmatched", len(result.Unmatched))
	return result, nil
}

func (e *Expander) expandLine(line *entities.ValidatedLine, variants []*entities.ProductVariant) ([]*entities.ExpandedLine, entities.Diagnostics) {
	var diags entities.Diagnostics
	first := variants[0]
	n := int64(len(variants))
	multi := n > 1

	bundleExact := line.Quantity.Mul(decimal.NewFromInt(int64(first.Factor())))
	bundle := bundleExact.Floor()
	if !bundle.Equal(bundleExact) {
		diags = append(diags, e.diagnostic(line, entities.ExtractionError,
			fmt.Sprintf("fractional unit count %s floored to %s", bundleExact, bundle)))
	}
	total := bundle.IntPart()
	share := total / n
	remainder := total % n

	warehouse := e.warehouses(line.DestinationID)
	out := make([]*entities.ExpandedLine, 0, len(variants))
	for i, v := range variants {
		count := share
		if i == 0 {
			count += remainder
		}

		divisor := v.Factor()
		if e.priceBasis == BundleFactor {
			divisor = first.Factor()
		}
		unitPrice := line.LinePrice.DivRound(line.Quantity.Mul(decimal.NewFromInt(int64(divisor))), 4)

		productID := string(line.Reference)
		if multi {
			productID = v.Barcode
			if productID == "" {
				productID = string(line.Reference)
			}
		}

		stock := v.StockAt(warehouse)
		el := &entities.ExpandedLine{
			DestinationID:   line.DestinationID,
			DestinationName: line.DestinationName,
			OrderNumber:     line.OrderNumber,
			OrderDate:       line.OrderDate,
			DeliveryDate:    line.DeliveryDate,
			Reference:       line.Reference,
			ProductID:       productID,
			ProductName:     v.Name,
			Description:     line.Description,
			UnitsPerOrder:   v.Factor(),
			OrderedQty:      line.Quantity,
			CasePrice:       line.CasePrice,
			UnitCount:       entities.Quantity(count),
			UnitPrice:       unitPrice,
			Warehouse:       warehouse,
			IsMultiProduct:  multi,
			NeedsReview:     line.Heuristic,
			OnHand:          stock.OnHand,
			Available:       stock.Available,
		}
		el.Recompute()
		out = append(out, el)
	}

	return out, diags
}

func (e *Expander) diagnostic(line *entities.ValidatedLine, kind entities.DiagnosticKind, msg string) entities.Diagnostic {
	return entities.Diagnostic{
		Kind:      kind,
		Stage:     expandStage,
		Document:  line.Document,
		Page:      line.Page,
		Line:      line.LineNumber,
		Reference: line.Reference,
		Message:   msg,
	}
}

// distinctReferences returns each reference once, in first-seen order
func distinctReferences(lines []*entities.ValidatedLine) []entities.ReferenceCode {
	seen := make(map[entities.ReferenceCode]bool, len(lines))
	refs := make([]entities.ReferenceCode, 0, len(lines))
	for _, line := range lines {
		if seen[line.Reference] {
			continue
		}
		seen[line.Reference] = true
		refs = append(refs, line.Reference)
	}
	return refs
}
