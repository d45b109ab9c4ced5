package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/tienda/checkout/domain"
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(cred *Credentials) (*OrderStore, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &OrderStore{db: db}, nil
}

func (r *OrderStore) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *OrderStore) Close() error {
	return r.db.Close()
}

// UpsertDraft inserts a new PENDING_PAYMENT draft or refreshes the snapshot
// fields of the user's existing one. The conflict target is the partial
// unique index on (user_id) WHERE status = 'PENDING_PAYMENT', which is what
// makes "one live draft per user" hold under concurrent checkouts. On
// refresh the stored draft_id survives; the caller's freshly generated one
// is discarded.
func (r *OrderStore) UpsertDraft(ctx context.Context, draft *domain.Order) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(draft.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft items: %w", err)
	}
	couponJSON, err := marshalNullable(draft.Coupon)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft coupon: %w", err)
	}
	deliveryJSON, err := marshalNullable(draft.Delivery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft delivery: %w", err)
	}
	paymentJSON, err := marshalNullable(draft.Payment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft payment: %w", err)
	}

	query := `INSERT INTO orders (id, draft_id, user_id, status, items, subtotal, discount, shipping, total, coupon, delivery, payment, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	          ON CONFLICT (user_id) WHERE status = 'PENDING_PAYMENT'
	          DO UPDATE SET
	              items      = EXCLUDED.items,
	              subtotal   = EXCLUDED.subtotal,
	              discount   = EXCLUDED.discount,
	              shipping   = EXCLUDED.shipping,
	              total      = EXCLUDED.total,
	              coupon     = EXCLUDED.coupon,
	              delivery   = EXCLUDED.delivery,
	              payment    = EXCLUDED.payment,
	              updated_at = NOW()
	          RETURNING draft_id`

	var draftID string
	err = r.db.QueryRowContext(ctx, query,
		draft.ID,
		draft.DraftID,
		draft.UserID,
		domain.OrderStatusPendingPayment,
		itemsJSON,
		draft.Subtotal,
		draft.Discount,
		draft.Shipping,
		draft.Total,
		couponJSON,
		deliveryJSON,
		paymentJSON,
	).Scan(&draftID)
	if err != nil {
		return nil, fmt.Errorf("upsert draft: %w", err)
	}

	return r.GetByDraftID(ctx, draftID, draft.UserID)
}

func (r *OrderStore) GetByDraftID(ctx context.Context, draftID, userID string) (*domain.Order, error) {
	query := selectOrderColumns + ` FROM orders WHERE draft_id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, draftID, userID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by draft id: %w", err)
	}

	return order, nil
}

// SetPaymentIntent only succeeds while the draft is still PENDING_PAYMENT;
// money and intent are frozen together.
func (r *OrderStore) SetPaymentIntent(ctx context.Context, draftID, userID, intentID string) error {
	query := `UPDATE orders SET payment_intent_id = $3, updated_at = NOW()
	          WHERE draft_id = $1 AND user_id = $2 AND status = 'PENDING_PAYMENT'`

	result, err := r.db.ExecContext(ctx, query, draftID, userID, intentID)
	if err != nil {
		return fmt.Errorf("set payment intent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set payment intent rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// TransitionStatus is a conditional update, not read-then-write: only a row
// still in PENDING_PAYMENT transitions, so two concurrent confirmations
// cannot both assign an order number.
func (r *OrderStore) TransitionStatus(ctx context.Context, draftID, userID string, to domain.OrderStatus, orderNumber string) (bool, error) {
	query := `UPDATE orders SET status = $3, order_id = COALESCE($4, order_id), updated_at = NOW()
	          WHERE draft_id = $1 AND user_id = $2 AND status = 'PENDING_PAYMENT'`

	var number sql.NullString
	if orderNumber != "" {
		number = sql.NullString{String: orderNumber, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, draftID, userID, to, number)
	if err != nil {
		return false, fmt.Errorf("transition status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition status rows affected: %w", err)
	}

	return rows > 0, nil
}

func (r *OrderStore) List(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{filter.UserID}
	if filter.Status != nil {
		where += ` AND status = $2`
		args = append(args, *filter.Status)
	}

	countsQuery := `SELECT status, COUNT(*) FROM orders ` + where + ` GROUP BY status`
	rows, err := r.db.QueryContext(ctx, countsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()

	page := &OrderPage{
		StatusCounts: make(map[domain.OrderStatus]int),
	}
	for rows.Next() {
		var status domain.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		page.StatusCounts[status] = count
		page.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	listQuery := selectOrderColumns + ` FROM orders ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)

	orderRows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer orderRows.Close()

	for orderRows.Next() {
		order, err := scanOrder(orderRows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		page.Orders = append(page.Orders, order)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return page, nil
}

const selectOrderColumns = `SELECT id, draft_id, user_id, order_id, status, items, subtotal, discount, shipping, total, coupon, delivery, payment, payment_intent_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order        domain.Order
		orderNumber  sql.NullString
		intentID     sql.NullString
		itemsJSON    []byte
		couponJSON   []byte
		deliveryJSON []byte
		paymentJSON  []byte
	)

	err := row.Scan(
		&order.ID,
		&order.DraftID,
		&order.UserID,
		&orderNumber,
		&order.Status,
		&itemsJSON,
		&order.Subtotal,
		&order.Discount,
		&order.Shipping,
		&order.Total,
		&couponJSON,
		&deliveryJSON,
		&paymentJSON,
		&intentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.OrderNumber = orderNumber.String
	order.PaymentIntentID = intentID.String

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := unmarshalNullable(couponJSON, &order.Coupon); err != nil {
		return nil, fmt.Errorf("unmarshal order coupon: %w", err)
	}
	if err := unmarshalNullable(deliveryJSON, &order.Delivery); err != nil {
		return nil, fmt.Errorf("unmarshal order delivery: %w", err)
	}
	if err := unmarshalNullable(paymentJSON, &order.Payment); err != nil {
		return nil, fmt.Errorf("unmarshal order payment: %w", err)
	}

	return &order, nil
}

func marshalNullable(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case *domain.CouponSnapshot:
		if val == nil {
			return nil, nil
		}
	case *domain.Delivery:
		if val == nil {
			return nil, nil
		}
	case *domain.PaymentSelection:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalNullable(data []byte, target interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
