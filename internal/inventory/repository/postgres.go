package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/scistore-service/internal/inventory"
	"github.com/fekuna/scistore-service/internal/inventory/dto"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetStock(ctx context.Context, productID string) (*model.StockLevel, error) {
	var level model.StockLevel
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &level,
		`SELECT id, sku, name_en, stock FROM products WHERE id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

func (r *PGRepository) ListLowStock(ctx context.Context, f *dto.LowStockFilters) ([]model.StockLevel, int, error) {
	var items []model.StockLevel
	var count int

	where := ` FROM products WHERE is_active AND stock <= $1`
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*)`+where, f.Threshold); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, sku, name_en, stock` + where + ` ORDER BY stock ASC, name_en ASC, id ASC`
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}
	if err := r.DB.SelectContext(ctx, &items, query, f.Threshold); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) ApplyMovement(ctx context.Context, m *model.InventoryMovement) error {
	q := postgres.Conn(ctx, r.DB)

	var stock int
	err := q.GetContext(ctx, &stock, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, m.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inventory.ErrProductNotFound
		}
		return fmt.Errorf("lock product stock: %w", err)
	}

	after := stock + m.QuantityChange
	if after < 0 {
		return inventory.ErrInsufficientStock
	}
	m.QuantityBefore = stock
	m.QuantityAfter = after

	if _, err := q.ExecContext(ctx,
		`UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`, after, m.ProductID); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	insertLogQuery := `
        INSERT INTO inventory_movements (
            id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	if _, err := q.NamedExecContext(ctx, insertLogQuery, m); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}

func (r *PGRepository) HasMovement(ctx context.Context, productID, movementType, referenceID string) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &exists, `
        SELECT EXISTS (
            SELECT 1 FROM inventory_movements
            WHERE product_id = $1 AND movement_type = $2 AND reference_id = $3
        )`, productID, movementType, referenceID)
	return exists, err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM inventory_movements"+whereClause, args)
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

	query := `SELECT id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
        reference_type, reference_id, notes, created_by, created_at
        FROM inventory_movements` + whereClause + " ORDER BY created_at DESC, id ASC"
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

	if err := nstmt.SelectContext(ctx, &items, args); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}
