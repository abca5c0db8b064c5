package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/order"
	"github.com/fekuna/scistore-service/internal/order/dto"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, order_number, user_id, customer_name, customer_email, customer_phone,
	institution, shipping_address, shipping_city, shipping_postal_code, notes, payment_method,
	status, subtotal, shipping_fee, total, currency, language, idempotency_key, cart_id,
	created_at, updated_at`

const itemColumns = `id, order_id, product_id, product_name, sku, unit_price, quantity, line_total`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	q := postgres.Conn(ctx, r.DB)

	query := `
        INSERT INTO orders (` + orderColumns + `)
        VALUES (
            :id, :order_number, :user_id, :customer_name, :customer_email, :customer_phone,
            :institution, :shipping_address, :shipping_city, :shipping_postal_code, :notes, :payment_method,
            :status, :subtotal, :shipping_fee, :total, :currency, :language, :idempotency_key, :cart_id,
            :created_at, :updated_at
        )
    `
	if _, err := q.NamedExecContext(ctx, query, o); err != nil {
		if postgres.IsUniqueViolation(err, "orders_order_number_key") {
			return order.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if len(o.Items) == 0 {
		return nil
	}

	itemQuery := `
        INSERT INTO order_items (` + itemColumns + `)
        VALUES (:id, :order_id, :product_id, :product_name, :sku, :unit_price, :quantity, :line_total)
    `
	if _, err := q.NamedExecContext(ctx, itemQuery, o.Items); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *PGRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*model.Order, error) {
	var o model.Order
	if err := postgres.Conn(ctx, r.DB).GetContext(ctx, &o, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	orders := []model.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// attachItems loads the items of every order in one query.
func (r *PGRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	query, args, err := sqlx.In(`SELECT `+itemColumns+` FROM order_items WHERE order_id IN (?) ORDER BY product_name, id`, ids)
	if err != nil {
		return err
	}
	q := postgres.Conn(ctx, r.DB)
	var items []model.OrderItem
	if err := q.SelectContext(ctx, &items, q.Rebind(query), args...); err != nil {
		return err
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.UserID != "" {
		conditions = append(conditions, "user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Search != "" {
		conditions = append(conditions,
			"(order_number ILIKE :search OR customer_name ILIKE :search OR customer_email ILIKE :search OR customer_phone ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "created_at < :to")
		args["to"] = *f.To
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC, id ASC", orderColumns, whereClause)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &orders, args); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error) {
	res, err := postgres.Conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
