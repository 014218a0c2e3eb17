// README: Station store backed by PostgreSQL.
package station

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gasline/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

var _ Repository = (*Store)(nil)

func (s *Store) Get(ctx context.Context, id types.ID) (*Station, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, address, lat, lng, is_active
		FROM stations WHERE id = $1`, string(id),
	)
	var st Station
	err := row.Scan(&st.ID, &st.Name, &st.Address, &st.Position.Lat, &st.Position.Lng, &st.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListActive(ctx context.Context) ([]*Station, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, address, lat, lng, is_active
		FROM stations WHERE is_active ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Station
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.Position.Lat, &st.Position.Lng, &st.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

func (s *Store) Inventory(ctx context.Context, stationID types.ID) ([]InventoryItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT station_id, gas_type, cylinder_size, quantity, price, low_stock_threshold
		FROM station_inventory WHERE station_id = $1
		ORDER BY gas_type, cylinder_size`, string(stationID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.StationID, &it.GasType, &it.CylinderSize, &it.Quantity, &it.Price, &it.LowStockThreshold); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) StockLevel(ctx context.Context, stationID types.ID, gasType, cylinderSize string) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM station_inventory
		WHERE station_id = $1 AND gas_type = $2 AND cylinder_size = $3`,
		string(stationID), gasType, cylinderSize,
	)
	var qty int
	if err := row.Scan(&qty); err != nil {
		return 0, err
	}
	return qty, nil
}
