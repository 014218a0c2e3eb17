// README: Location store backed by Redis GEO with Postgres snapshots.
package location

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"gasline/internal/types"
)

const riderGeoKey = "locations:riders"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

func (s *Store) SetGeo(ctx context.Context, id types.ID, pos types.Point) error {
	return s.redis.GeoAdd(ctx, riderGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Store) Position(ctx context.Context, id types.ID) (types.Point, bool, error) {
	res, err := s.redis.GeoPos(ctx, riderGeoKey, string(id)).Result()
	if err != nil {
		return types.Point{}, false, err
	}
	if len(res) == 0 || res[0] == nil {
		return types.Point{}, false, nil
	}
	return types.Point{Lat: res[0].Latitude, Lng: res[0].Longitude}, true, nil
}

func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rider_location_snapshots (rider_id, lat, lng, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		string(snap.RiderID), snap.Position.Lat, snap.Position.Lng, snap.RecordedAt,
	)
	return err
}
