// README: Rider aggregate; availability is derived, never stored directly.
package rider

import (
	"gasline/internal/types"
)

type Rider struct {
	ID              types.ID  `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	StationID       *types.ID `json:"station_id,omitempty"`
	IsOnline        bool      `json:"is_online"`
	OnDelivery      bool      `json:"-"`
	Rating          float64   `json:"rating"`
	TotalDeliveries int       `json:"total_deliveries"`
}

// IsAvailable reports whether the rider can take a new order: online and not
// mid-delivery.
func (r *Rider) IsAvailable() bool {
	return r.IsOnline && !r.OnDelivery
}
