package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderHeader summarises all expanded lines for one destination
type OrderHeader struct {
	DestinationID   DestinationID   `json:"destination_id"`
	DestinationName string          `json:"destination_name"`
	OfficialName    string          `json:"official_name"`
	Warehouse       WarehouseCode   `json:"warehouse"`
	OrderNumbers    string          `json:"order_numbers"`
	OrderCount      int             `json:"order_count"`
	OrderReference  string          `json:"order_reference"`
	OrderDate       time.Time       `json:"order_date"`
	DeliveryDate    time.Time       `json:"delivery_date"`
	TotalLines      int             `json:"total_lines"`
	TotalValue      decimal.Decimal `json:"total_value"`
}
