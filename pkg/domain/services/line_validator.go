package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

const validateStage = "validate"

// DefaultDateLayouts are tried in order when parsing order and delivery dates
var DefaultDateLayouts = []string{"1/2/2006", "2006-01-02"}

// Limits are the largest ordered quantity and case price a line may carry.
// Anything above them is almost always a misread column.
type Limits struct {
	MaxQuantity decimal.Decimal
	MaxPrice    decimal.Decimal
}

// DefaultLimits caps quantity at 10000 and price at 100000
var DefaultLimits = Limits{
	MaxQuantity: decimal.NewFromInt(10000),
	MaxPrice:    decimal.NewFromInt(100000),
}

// LineValidator filters raw purchase-order lines down to importable records
type LineValidator struct {
	dateLayouts []string
	limits      Limits
}

// NewLineValidator creates a validator; with no layouts the defaults apply
func NewLineValidator(dateLayouts ...string) *LineValidator {
	if len(dateLayouts) == 0 {
		dateLayouts = DefaultDateLayouts
	}
	return &LineValidator{dateLayouts: dateLayouts, limits: DefaultLimits}
}

// WithLimits replaces the sanity caps. A zero field keeps its default.
func (v *LineValidator) WithLimits(limits Limits) *LineValidator {
	if limits.MaxQuantity.IsPositive() {
		v.limits.MaxQuantity = limits.MaxQuantity
	}
	if limits.MaxPrice.IsPositive() {
		v.limits.MaxPrice = limits.MaxPrice
	}
	return v
}

// ValidationResult contains the surviving lines and what was dropped
type ValidationResult struct {
	Valid       []*entities.ValidatedLine
	Dropped     int
	Diagnostics entities.Diagnostics
}

// Validate drops lines missing an order number, destination id or reference
// code, and lines whose quantity or price is unparseable, not positive or
// above the validator's limits.
func (v *LineValidator) Validate(lines []*entities.RawLine) *ValidationResult {
	result := &ValidationResult{
		Valid:       make([]*entities.ValidatedLine, 0, len(lines)),
		Diagnostics: make(entities.Diagnostics, 0),
	}

	for _, line := range lines {
		validated, err := v.validateLine(line)
		if err != nil {
			result.Dropped++
			result.Diagnostics = append(result.Diagnostics, v.diagnostic(line, err.Error()))
			continue
		}

		for _, field := range []struct {
			name string
			raw  string
			dst  *time.Time
		}{
			{"order date", line.OrderDate, &validated.OrderDate},
			{"delivery date", line.DeliveryDate, &validated.DeliveryDate},
		} {
			if strings.TrimSpace(field.raw) == "" {
				continue
			}
			parsed, err := v.parseDate(field.raw)
			if err != nil {
				result.Diagnostics = append(result.Diagnostics,
					v.diagnostic(line, fmt.Sprintf("unparseable %s %q kept as blank", field.name, field.raw)))
				continue
			}
			*field.dst = parsed
		}

		result.Valid = append(result.Valid, validated)
	}

	return result
}

func (v *LineValidator) validateLine(line *entities.RawLine) (*entities.ValidatedLine, error) {
	if strings.TrimSpace(string(line.OrderNumber)) == "" {
		return nil, fmt.Errorf("order number cannot be empty")
	}
	if strings.TrimSpace(string(line.DestinationID)) == "" {
		return nil, fmt.Errorf("destination id cannot be empty")
	}
	if strings.TrimSpace(string(line.Reference)) == "" {
		return nil, fmt.Errorf("reference code cannot be empty")
	}

	qty, err := ParseAmount(line.OrderedQty)
	if err != nil {
		return nil, fmt.Errorf("invalid ordered quantity %q", line.OrderedQty)
	}
	price, err := ParseAmount(line.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", line.Price)
	}
	if !qty.IsPositive() || !price.IsPositive() {
		return nil, fmt.Errorf("quantity and price must be positive, got qty=%s price=%s", qty, price)
	}
	if qty.GreaterThan(v.limits.MaxQuantity) {
		return nil, fmt.Errorf("quantity %s exceeds limit %s", qty, v.limits.MaxQuantity)
	}
	if price.GreaterThan(v.limits.MaxPrice) {
		return nil, fmt.Errorf("price %s exceeds limit %s", price, v.limits.MaxPrice)
	}

	linePrice := qty.Mul(price)
	if strings.TrimSpace(line.Amount) != "" {
		amount, err := ParseAmount(line.Amount)
		if err != nil || !amount.IsPositive() {
			return nil, fmt.Errorf("invalid line amount %q", line.Amount)
		}
		linePrice = amount
	}

	return &entities.ValidatedLine{
		RawLine:   *line,
		Quantity:  qty,
		CasePrice: price,
		LinePrice: linePrice,
	}, nil
}

func (v *LineValidator) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range v.dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", raw)
}

func (v *LineValidator) diagnostic(line *entities.RawLine, msg string) entities.Diagnostic {
	return entities.Diagnostic{
		Kind:      entities.ValidationError,
		Stage:     validateStage,
		Document:  line.Document,
		Page:      line.Page,
		Line:      line.LineNumber,
		Reference: line.Reference,
		Message:   msg,
	}
}

// ParseAmount parses a printed number, tolerating thousands separators and a currency sign
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}
