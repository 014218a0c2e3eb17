// README: Station service; read-side inventory queries and assignment checks.
package station

import (
	"context"
	"errors"

	"gasline/internal/modules/order"
	"gasline/internal/types"
)

var ErrNotFound = errors.New("station not found")

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Station, error)
	ListActive(ctx context.Context) ([]*Station, error)
	Inventory(ctx context.Context, stationID types.ID) ([]InventoryItem, error)
	StockLevel(ctx context.Context, stationID types.ID, gasType, cylinderSize string) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Station, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]*Station, error) {
	return s.repo.ListActive(ctx)
}

// Inventory returns the station's stock lines; callers derive low-stock via
// InventoryItem.LowStock.
func (s *Service) Inventory(ctx context.Context, stationID types.ID) ([]InventoryItem, error) {
	return s.repo.Inventory(ctx, stationID)
}

// StationCheck implements order.StationGate: inactive stations block
// assignment, missing stock only warns.
func (s *Service) StationCheck(ctx context.Context, stationID types.ID, gasType order.GasType, cylinderSize string, quantity int) (order.StationCheck, error) {
	st, err := s.repo.Get(ctx, stationID)
	if err != nil {
		return order.StationCheck{}, err
	}
	if !st.IsActive {
		return order.StationCheck{Active: false}, nil
	}
	level, err := s.repo.StockLevel(ctx, stationID, string(gasType), cylinderSize)
	if err != nil {
		return order.StationCheck{}, err
	}
	return order.StationCheck{Active: true, InStock: level >= quantity}, nil
}
