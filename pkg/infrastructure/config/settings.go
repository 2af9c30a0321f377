package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

// Settings is the YAML settings file
type Settings struct {
	Processing   ProcessingSettings `yaml:"processing"`
	Warehouses   WarehouseSettings  `yaml:"warehouses"`
	Destinations map[string]string  `yaml:"destinations"`
	History      HistorySettings    `yaml:"history"`
	StateDir     string             `yaml:"state_dir"`
}

type ProcessingSettings struct {
	StartingSequence int      `yaml:"starting_sequence"`
	ReferencePrefix  string   `yaml:"reference_prefix"`
	ReferenceWidth   int      `yaml:"reference_width"`
	ReferenceLength  int      `yaml:"reference_length"`
	DateLayouts      []string `yaml:"date_layouts"`
	PriceBasis       string   `yaml:"price_basis"`
	MaxQuantity      float64  `yaml:"max_quantity"`
	MaxPrice         float64  `yaml:"max_price"`
}

// WarehouseSettings maps destinations to warehouses. Destinations not listed
// under any warehouse go to Default.
type WarehouseSettings struct {
	Default     string              `yaml:"default"`
	Assignments map[string][]string `yaml:"assignments"`
}

type HistorySettings struct {
	DSN string `yaml:"dsn"`
}

// Default returns the built-in settings
func Default() *Settings {
	return &Settings{
		Processing: ProcessingSettings{
			StartingSequence: 391,
			ReferencePrefix:  "OATS",
			ReferenceWidth:   5,
			ReferenceLength:  6,
			DateLayouts:      []string{"1/2/2006", "2006-01-02"},
			PriceBasis:       "per-variant",
			MaxQuantity:      10000,
			MaxPrice:         100000,
		},
		Warehouses: WarehouseSettings{
			Default:     "CE",
			Assignments: map[string][]string{},
		},
		Destinations: map[string]string{},
	}
}

// Load reads a settings file over the defaults
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML settings over the defaults and validates the result
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyEnv overrides settings from POIMPORT_* environment variables
func (s *Settings) ApplyEnv(getenv func(string) string) {
	if dsn := getenv("POIMPORT_HISTORY_DSN"); dsn != "" {
		s.History.DSN = dsn
	}
	if dir := getenv("POIMPORT_STATE_DIR"); dir != "" {
		s.StateDir = dir
	}
}

// Validate checks the settings for values the pipeline cannot use
func (s *Settings) Validate() error {
	p := s.Processing
	if p.StartingSequence < 0 {
		return fmt.Errorf("starting sequence cannot be negative, got %d", p.StartingSequence)
	}
	if strings.TrimSpace(p.ReferencePrefix) == "" {
		return fmt.Errorf("reference prefix cannot be empty")
	}
	if p.ReferenceWidth <= 0 {
		return fmt.Errorf("reference width must be positive, got %d", p.ReferenceWidth)
	}
	if p.ReferenceLength <= 0 {
		return fmt.Errorf("reference length must be positive, got %d", p.ReferenceLength)
	}
	if p.MaxQuantity <= 0 || p.MaxPrice <= 0 {
		return fmt.Errorf("quantity and price limits must be positive, got %v and %v", p.MaxQuantity, p.MaxPrice)
	}
	if strings.TrimSpace(s.Warehouses.Default) == "" {
		return fmt.Errorf("default warehouse cannot be empty")
	}

	seen := make(map[string]string)
	warehouses := make([]string, 0, len(s.Warehouses.Assignments))
	for wh := range s.Warehouses.Assignments {
		warehouses = append(warehouses, wh)
	}
	sort.Strings(warehouses)
	for _, wh := range warehouses {
		for _, id := range s.Warehouses.Assignments[wh] {
			if prev, dup := seen[id]; dup && prev != wh {
				return fmt.Errorf("destination %s assigned to both %s and %s", id, prev, wh)
			}
			seen[id] = wh
		}
	}
	return nil
}

// WarehouseMap returns the destination to warehouse assignments
func (s *Settings) WarehouseMap() map[entities.DestinationID]entities.WarehouseCode {
	out := make(map[entities.DestinationID]entities.WarehouseCode)
	for wh, ids := range s.Warehouses.Assignments {
		for _, id := range ids {
			out[entities.DestinationID(id)] = entities.WarehouseCode(wh)
		}
	}
	return out
}

// OfficialNames returns the configured destination names
func (s *Settings) OfficialNames() map[entities.DestinationID]string {
	out := make(map[entities.DestinationID]string, len(s.Destinations))
	for id, name := range s.Destinations {
		out[entities.DestinationID(id)] = name
	}
	return out
}
