// README: Pricing service quotes gas price and delivery fee for an order line.
package pricing

import (
	"context"
	"errors"
	"math"

	"gasline/internal/config"
	"gasline/internal/maps"
	"gasline/internal/modules/station"
	"gasline/internal/types"
)

var ErrNoPrice = errors.New("no price for gas type and size at station")

// Inventory is the slice of the station service the quote needs.
type Inventory interface {
	Get(ctx context.Context, id types.ID) (*station.Station, error)
	Inventory(ctx context.Context, stationID types.ID) ([]station.InventoryItem, error)
}

type Service struct {
	inventory Inventory
	distance  maps.DistanceEstimator
	cfg       config.PricingConfig
}

func NewService(inventory Inventory, distance maps.DistanceEstimator, cfg config.PricingConfig) *Service {
	return &Service{inventory: inventory, distance: distance, cfg: cfg}
}

type Quote struct {
	GasPrice    int64   `json:"gas_price"`
	DeliveryFee int64   `json:"delivery_fee"`
	TotalAmount int64   `json:"total_amount"`
	DistanceKm  float64 `json:"distance_km"`
}

// QuoteOrder prices one order line from the station's inventory and the
// station-to-destination distance: fee = base + perKm * distance.
func (s *Service) QuoteOrder(ctx context.Context, stationID types.ID, destination types.Point, gasType, cylinderSize string, quantity int) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, errors.New("quantity must be positive")
	}
	st, err := s.inventory.Get(ctx, stationID)
	if err != nil {
		return Quote{}, err
	}
	items, err := s.inventory.Inventory(ctx, stationID)
	if err != nil {
		return Quote{}, err
	}
	var gasPrice int64 = -1
	for _, it := range items {
		if it.GasType == gasType && it.CylinderSize == cylinderSize {
			gasPrice = it.Price
			break
		}
	}
	if gasPrice < 0 {
		return Quote{}, ErrNoPrice
	}

	km, err := s.distance.DistanceKm(ctx, st.Position, destination)
	if err != nil {
		return Quote{}, err
	}
	fee := s.cfg.BaseDeliveryFee + int64(math.Round(km))*s.cfg.FeePerKm

	return Quote{
		GasPrice:    gasPrice,
		DeliveryFee: fee,
		TotalAmount: gasPrice*int64(quantity) + fee,
		DistanceKm:  km,
	}, nil
}
