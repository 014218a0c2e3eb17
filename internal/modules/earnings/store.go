// README: Earnings store backed by PostgreSQL.
package earnings

import (
	"context"
	"time"

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

// Create inserts one earning per order; the unique order_id constraint makes
// replays a no-op.
func (s *Store) Create(ctx context.Context, e *Earning) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO earnings (id, order_id, rider_id, base_fee, commission, net_earnings, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO NOTHING`,
		string(e.ID), string(e.OrderID), string(e.RiderID),
		e.BaseFee, e.Commission, e.NetEarnings, string(e.Status), e.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListByRider(ctx context.Context, riderID types.ID, since *time.Time) ([]Earning, error) {
	q := `
		SELECT id, order_id, rider_id, base_fee, commission, net_earnings, status, created_at
		FROM earnings WHERE rider_id = $1`
	args := []any{string(riderID)}
	if since != nil {
		q += ` AND created_at >= $2`
		args = append(args, *since)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Earning
	for rows.Next() {
		var e Earning
		var status string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.RiderID, &e.BaseFee, &e.Commission, &e.NetEarnings, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Status = Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE earnings SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
