package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/scistore-service/internal/access"
	"github.com/fekuna/scistore-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const profileColumns = `id, full_name, email, phone, institution, address, city, preferred_language, created_at, updated_at`

func (r *PGRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	if err := r.DB.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) UpsertProfile(ctx context.Context, p *model.Profile) error {
	query := `
        INSERT INTO profiles (` + profileColumns + `)
        VALUES (:id, :full_name, :email, :phone, :institution, :address, :city, :preferred_language, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET
            full_name = EXCLUDED.full_name,
            email = EXCLUDED.email,
            phone = EXCLUDED.phone,
            institution = EXCLUDED.institution,
            address = EXCLUDED.address,
            city = EXCLUDED.city,
            preferred_language = EXCLUDED.preferred_language,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *PGRepository) Grants(ctx context.Context, userID string) (*access.Grants, error) {
	g := &access.Grants{Roles: []string{}, Permissions: []string{}}
	err := r.DB.SelectContext(ctx, &g.Roles, `
        SELECT r.name FROM user_roles ur
        JOIN roles r ON r.id = ur.role_id
        WHERE ur.user_id = $1
        ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	err = r.DB.SelectContext(ctx, &g.Permissions, `
        SELECT DISTINCT p.code FROM user_roles ur
        JOIN role_permissions rp ON rp.role_id = ur.role_id
        JOIN permissions p ON p.id = rp.permission_id
        WHERE ur.user_id = $1
        ORDER BY p.code`, userID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// attachPermissions loads the permission codes of every role in one query.
func (r *PGRepository) attachPermissions(ctx context.Context, roles []model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]string, len(roles))
	index := make(map[string]int, len(roles))
	for i := range roles {
		ids[i] = roles[i].ID
		index[roles[i].ID] = i
		roles[i].Permissions = []string{}
	}
	query, args, err := sqlx.In(`
        SELECT rp.role_id, p.code FROM role_permissions rp
        JOIN permissions p ON p.id = rp.permission_id
        WHERE rp.role_id IN (?)
        ORDER BY p.code`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		RoleID string `db:"role_id"`
		Code   string `db:"code"`
	}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return err
	}
	for _, row := range rows {
		i := index[row.RoleID]
		roles[i].Permissions = append(roles[i].Permissions, row.Code)
	}
	return nil
}

func (r *PGRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.DB.SelectContext(ctx, &roles, `SELECT id, name, description FROM roles ORDER BY name`); err != nil {
		return nil, err
	}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *PGRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.DB.GetContext(ctx, &role, `SELECT id, name, description FROM roles WHERE name = $1`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *PGRepository) UserRoles(ctx context.Context, userID string) ([]model.Role, error) {
	var roles []model.Role
	err := r.DB.SelectContext(ctx, &roles, `
        SELECT r.id, r.name, r.description FROM user_roles ur
        JOIN roles r ON r.id = ur.role_id
        WHERE ur.user_id = $1
        ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, roleID)
	return err
}

func (r *PGRepository) RevokeRole(ctx context.Context, userID, roleID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
