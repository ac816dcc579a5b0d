package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userhub/userhub/internal/domain/entity"
	"github.com/userhub/userhub/internal/domain/repository"
)

type RoleRepository struct {
	db querier
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{db: pool}
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*entity.Role, error) {
	role := &entity.Role{}
	row := r.db.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM roles WHERE id = $1
	`, id)
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	role := &entity.Role{}
	row := r.db.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM roles WHERE name = $1
	`, name)
	if err := row.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]entity.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
