// README: Station aggregate and inventory definitions.
package station

import (
	"gasline/internal/types"
)

type Station struct {
	ID       types.ID    `json:"id"`
	Name     string      `json:"name"`
	Address  string      `json:"address"`
	Position types.Point `json:"position"`
	IsActive bool        `json:"is_active"`
}

// InventoryItem is one stocked gas line at a station. Low stock is derived,
// never stored.
type InventoryItem struct {
	StationID         types.ID `json:"station_id"`
	GasType           string   `json:"gas_type"`
	CylinderSize      string   `json:"cylinder_size"`
	Quantity          int      `json:"quantity"`
	Price             int64    `json:"price"`
	LowStockThreshold int      `json:"low_stock_threshold"`
}

func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

// EventInventoryUpdated is the generic push event emitted on stock changes.
const EventInventoryUpdated = "inventory_updated"
