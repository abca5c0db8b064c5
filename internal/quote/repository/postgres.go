package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/scistore-service/internal/model"
	"github.com/fekuna/scistore-service/internal/quote"
	"github.com/fekuna/scistore-service/internal/quote/dto"
	"github.com/fekuna/scistore-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const quoteColumns = `id, reference_number, status, user_id, contact_name, email, phone, designation,
	institution, institution_type, department, city, items, budget, required_by, notes, language,
	created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, q *model.QuoteRequest) error {
	query := `
        INSERT INTO quote_requests (` + quoteColumns + `)
        VALUES (
            :id, :reference_number, :status, :user_id, :contact_name, :email, :phone, :designation,
            :institution, :institution_type, :department, :city, :items, :budget, :required_by, :notes, :language,
            :created_at, :updated_at
        )
    `
	if _, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, q); err != nil {
		if postgres.IsUniqueViolation(err, "quote_requests_reference_number_key") {
			return quote.ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert quote request: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.QuoteRequest, error) {
	var q model.QuoteRequest
	err := r.DB.GetContext(ctx, &q, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.QuoteFilters) ([]model.QuoteRequest, int, error) {
	var quotes []model.QuoteRequest
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Search != "" {
		conditions = append(conditions,
			"(reference_number ILIKE :search OR contact_name ILIKE :search OR email ILIKE :search OR institution ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM quote_requests"+whereClause, args)
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

	query := fmt.Sprintf("SELECT %s FROM quote_requests%s ORDER BY created_at DESC, id ASC", quoteColumns, whereClause)
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

	if err := nstmt.SelectContext(ctx, &quotes, args); err != nil {
		return nil, 0, err
	}
	return quotes, count, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, from, to model.QuoteStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE quote_requests SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
