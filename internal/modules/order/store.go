// README: Order store backed by PostgreSQL with CAS status updates.
package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, gas_type, cylinder_size, order_type,
			quantity, gas_price, delivery_fee, discount, total_amount,
			payment_method, payment_status, payment_reference,
			delivery_address, delivery_lat, delivery_lng, scheduled_time,
			station_id, rider_id, status, status_version, delivery_code,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22, $23,
			$24, $25
		)`,
		string(o.ID), o.OrderNumber, string(o.CustomerID), string(o.GasType), o.CylinderSize, string(o.OrderType),
		o.Quantity, o.GasPrice, o.DeliveryFee, o.Discount, o.TotalAmount,
		o.PaymentMethod, string(o.PaymentStatus), o.PaymentReference,
		o.DeliveryAddress, o.Destination.Lat, o.Destination.Lng, o.ScheduledTime,
		toStringPtr(o.StationID), toStringPtr(o.RiderID), string(o.Status), o.StatusVersion, o.DeliveryCode,
		o.CreatedAt, o.UpdatedAt,
	)
	return err
}

const orderColumns = `
	id, order_number, customer_id, gas_type, cylinder_size, order_type,
	quantity, gas_price, delivery_fee, discount, total_amount,
	payment_method, payment_status, payment_reference,
	delivery_address, delivery_lat, delivery_lng, scheduled_time,
	station_id, rider_id, status, status_version, delivery_code,
	proof_photo_url, signature_url, rating, review,
	created_at, updated_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *Store) List(ctx context.Context, f Filter) ([]*Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	n := 0
	add := func(clause string, v any) {
		n++
		q += fmt.Sprintf(" AND "+clause, n)
		args = append(args, v)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.StationID != "" {
		add("station_id = $%d", string(f.StationID))
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", string(f.CustomerID))
	}
	if f.RiderID != "" {
		add("rider_id = $%d", string(f.RiderID))
	}
	if f.Search != "" {
		n++
		q += fmt.Sprintf(" AND (order_number ILIKE '%%' || $%d || '%%' OR delivery_address ILIKE '%%' || $%d || '%%')", n, n)
		args = append(args, f.Search)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	n++
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", n)
	args = append(args, f.Limit)
	n++
	q += fmt.Sprintf(" OFFSET $%d", n)
	args = append(args, f.Offset)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) AssignStation(ctx context.Context, id, stationID types.ID, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET station_id = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND status_version = $3 AND rider_id IS NULL`,
		string(stationID), string(id), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, riderID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    rider_id = COALESCE($2, rider_id),
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), toStringPtr(riderID), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_status_history (order_id, status, notes, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(e.OrderID), string(e.Status), e.Notes, e.IdempotencyKey, e.CreatedAt,
	)
	return err
}

func (s *Store) History(ctx context.Context, orderID types.ID) ([]HistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, status, notes, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id ASC`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var orderID string
		var status string
		if err := rows.Scan(&e.ID, &orderID, &status, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OrderID = types.ID(orderID)
		e.Status = Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) HasTransitionKey(ctx context.Context, orderID types.ID, key string) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_status_history
			WHERE order_id = $1 AND idempotency_key = $2
		)`, string(orderID), key,
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SetProof writes delivery proof fields only where they are still unset.
func (s *Store) SetProof(ctx context.Context, id types.ID, p Proof) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET proof_photo_url = COALESCE(proof_photo_url, $1),
		    signature_url = COALESCE(signature_url, $2),
		    rating = COALESCE(rating, $3),
		    review = COALESCE(review, $4),
		    updated_at = NOW()
		WHERE id = $5
		  AND ($1::text IS NULL OR proof_photo_url IS NULL)
		  AND ($2::text IS NULL OR signature_url IS NULL)
		  AND ($3::int IS NULL OR rating IS NULL)
		  AND ($4::text IS NULL OR review IS NULL)`,
		p.ProofPhotoURL, p.SignatureURL, p.Rating, p.Review, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var gasType, orderType, paymentStatus, status string
	var scheduled sql.NullTime
	var stationID, riderID, proofPhoto, signature, review sql.NullString
	var rating sql.NullInt32

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &gasType, &o.CylinderSize, &orderType,
		&o.Quantity, &o.GasPrice, &o.DeliveryFee, &o.Discount, &o.TotalAmount,
		&o.PaymentMethod, &paymentStatus, &o.PaymentReference,
		&o.DeliveryAddress, &o.Destination.Lat, &o.Destination.Lng, &scheduled,
		&stationID, &riderID, &status, &o.StatusVersion, &o.DeliveryCode,
		&proofPhoto, &signature, &rating, &review,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.GasType = GasType(gasType)
	o.OrderType = OrderType(orderType)
	o.PaymentStatus = PaymentStatus(paymentStatus)
	o.Status = Status(status)
	if scheduled.Valid {
		t := scheduled.Time
		o.ScheduledTime = &t
	}
	o.StationID = toIDPtr(stationID)
	o.RiderID = toIDPtr(riderID)
	if proofPhoto.Valid {
		o.ProofPhotoURL = &proofPhoto.String
	}
	if signature.Valid {
		o.SignatureURL = &signature.String
	}
	if rating.Valid {
		v := int(rating.Int32)
		o.Rating = &v
	}
	if review.Valid {
		o.Review = &review.String
	}
	return &o, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}
