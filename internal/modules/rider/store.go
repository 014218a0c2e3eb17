// README: Rider store backed by PostgreSQL plus Redis availability pools.
package rider

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"gasline/internal/types"
)

const poolKeyPrefix = "riders:available:%s"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

var _ Repository = (*Store)(nil)

func (s *Store) Get(ctx context.Context, id types.ID) (*Rider, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, phone, station_id, is_online, on_delivery, rating, total_deliveries
		FROM riders WHERE id = $1`, string(id),
	)
	var r Rider
	var stationID *string
	err := row.Scan(&r.ID, &r.Name, &r.Phone, &stationID, &r.IsOnline, &r.OnDelivery, &r.Rating, &r.TotalDeliveries)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if stationID != nil {
		id := types.ID(*stationID)
		r.StationID = &id
	}
	return &r, nil
}

func (s *Store) SetOnline(ctx context.Context, id types.ID, online bool) error {
	_, err := s.db.Exec(ctx, `UPDATE riders SET is_online = $1 WHERE id = $2`, online, string(id))
	return err
}

func (s *Store) SetOnDelivery(ctx context.Context, id types.ID, busy bool) error {
	_, err := s.db.Exec(ctx, `UPDATE riders SET on_delivery = $1 WHERE id = $2`, busy, string(id))
	return err
}

func (s *Store) IncrementDeliveries(ctx context.Context, id types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE riders SET total_deliveries = total_deliveries + 1 WHERE id = $1`, string(id))
	return err
}

// Pool membership mirrors derived availability so auto-assign can pick a
// rider without scanning the riders table.

func (s *Store) JoinPool(ctx context.Context, stationID, riderID types.ID) error {
	return s.redis.SAdd(ctx, poolKey(stationID), string(riderID)).Err()
}

func (s *Store) LeavePool(ctx context.Context, stationID, riderID types.ID) error {
	return s.redis.SRem(ctx, poolKey(stationID), string(riderID)).Err()
}

func (s *Store) PoolMembers(ctx context.Context, stationID types.ID) ([]types.ID, error) {
	members, err := s.redis.SMembers(ctx, poolKey(stationID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids, nil
}

// PopPool removes and returns one available rider, or ok=false when the pool
// is empty. Member choice is arbitrary (SPOP), not a fairness policy.
func (s *Store) PopPool(ctx context.Context, stationID types.ID) (types.ID, bool, error) {
	member, err := s.redis.SPop(ctx, poolKey(stationID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return types.ID(member), true, nil
}

func poolKey(stationID types.ID) string {
	return fmt.Sprintf(poolKeyPrefix, string(stationID))
}
