package commands

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/poimport/pkg/application/services/review"
	"github.com/vsinha/poimport/pkg/domain/entities"
)

// overridesFile is the reviewer's corrections file:
//
//	overrides:
//	  - line: 3
//	    quantity: 10
//	    unit_price: "1.25"
//	  - line: 7
//	    remove: true
type overridesFile struct {
	Overrides []overrideEntry `yaml:"overrides"`
}

type overrideEntry struct {
	Line      int    `yaml:"line"`
	Quantity  *int64 `yaml:"quantity"`
	UnitPrice string `yaml:"unit_price"`
	Remove    bool   `yaml:"remove"`
}

// LoadOverrides reads a reviewer's corrections file
func LoadOverrides(path string) ([]review.Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes reviewer corrections; value checks are left to
// review.ApplyOverrides
func ParseOverrides(data []byte) ([]review.Override, error) {
	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse overrides: %w", err)
	}

	overrides := make([]review.Override, 0, len(file.Overrides))
	for i, e := range file.Overrides {
		if e.Line <= 0 {
			return nil, fmt.Errorf("override %d: line number must be positive, got %d", i+1, e.Line)
		}
		o := review.Override{LineNo: e.Line, Remove: e.Remove}
		if e.Quantity != nil {
			qty := entities.Quantity(*e.Quantity)
			o.UnitCount = &qty
		}
		if e.UnitPrice != "" {
			price, err := decimal.NewFromString(e.UnitPrice)
			if err != nil {
				return nil, fmt.Errorf("override %d: invalid unit price %q", i+1, e.UnitPrice)
			}
			o.UnitPrice = &price
		}
		if !o.Remove && o.UnitCount == nil && o.UnitPrice == nil {
			return nil, fmt.Errorf("override %d: line %d changes nothing", i+1, e.Line)
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}
