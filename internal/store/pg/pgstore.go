package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vendra.org/internal/ids"
	"vendra.org/internal/order"
)

// ErrStaleStatus is returned when a status change names an expected current
// status that no longer matches the stored row. The caller must refetch.
var ErrStaleStatus = errors.New("pg: entity status changed concurrently")

type Store struct {
	db *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool (used by tests).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const orderColumns = `id, customer_id, assigned_sales_rep_id, status, currency, amount,
	tracking_number, carrier, payment_reference,
	created_at, payment_confirmed_at, processing_at, shipped_at, delivered_at, cancelled_at`

func scanOrder(row interface{ Scan(...any) error }) (order.Order, error) {
	var o order.Order
	var assigned, tracking, carrier, payRef sql.NullString
	err := row.Scan(
		&o.ID, &o.CustomerID, &assigned, &o.Status, &o.Total.Currency, &o.Total.Amount,
		&tracking, &carrier, &payRef,
		&o.CreatedAt, &o.PaymentConfirmedAt, &o.ProcessingAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	o.AssignedSalesRepID = assigned.String
	o.TrackingNumber = tracking.String
	o.Carrier = carrier.String
	o.PaymentReference = payRef.String
	return o, nil
}

// CreateOrder inserts a fresh pending order.
func (s *Store) CreateOrder(ctx context.Context, customerID, assignedSalesRepID string, total order.Money) (order.Order, error) {
	if customerID == "" {
		return order.Order{}, order.ErrInvalidInput
	}
	if !total.IsPositive() || total.Currency == "" {
		return order.Order{}, order.ErrInvalidInput
	}
	o := order.Order{
		ID:                 ids.New(),
		CustomerID:         customerID,
		AssignedSalesRepID: assignedSalesRepID,
		Status:             order.StatusPending,
		Total:              total,
		CreatedAt:          time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		insert into orders(id, customer_id, assigned_sales_rep_id, status, currency, amount, created_at)
		values ($1, $2, nullif($3, ''), $4, $5, $6, $7)
	`, o.ID, o.CustomerID, o.AssignedSalesRepID, o.Status, o.Total.Currency, o.Total.Amount, o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// GetOrder loads one order snapshot.
func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, `select `+orderColumns+` from orders where id=$1`, id)
	return scanOrder(row)
}

// ListOrdersByCustomer returns a customer's orders, newest first.
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID string, limit int) ([]order.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+orderColumns+` from orders
		where customer_id=$1
		order by created_at desc
		limit $2
	`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateOrderStatus commits a status transition. The row is locked, the move
// is validated against the order status machine, and the matching timestamp
// is stamped. When the stored status no longer matches the expected one the
// transition is stale and rejected.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, expected, to order.Status, meta map[string]string) (order.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+orderColumns+` from orders where id=$1 for update`, id)
	o, err := scanOrder(row)
	if err != nil {
		return order.Order{}, err
	}
	if expected != "" && o.Status != expected {
		return order.Order{}, ErrStaleStatus
	}
	if err := o.MarkStatus(to, time.Now().UTC()); err != nil {
		return order.Order{}, err
	}
	if v := meta["payment_reference"]; v != "" {
		o.PaymentReference = v
	}
	if v := meta["tracking_number"]; v != "" {
		o.TrackingNumber = v
	}
	if v := meta["carrier"]; v != "" {
		o.Carrier = v
	}

	_, err = tx.ExecContext(ctx, `
		update orders set
			status=$2,
			tracking_number=nullif($3, ''),
			carrier=nullif($4, ''),
			payment_reference=nullif($5, ''),
			payment_confirmed_at=$6,
			processing_at=$7,
			shipped_at=$8,
			delivered_at=$9,
			cancelled_at=$10
		where id=$1
	`, o.ID, o.Status, o.TrackingNumber, o.Carrier, o.PaymentReference,
		o.PaymentConfirmedAt, o.ProcessingAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt)
	if err != nil {
		return order.Order{}, err
	}
	if err := tx.Commit(); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// DeleteOrder removes an order row.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from orders where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}
