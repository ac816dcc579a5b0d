package repository

import (
	"context"

	"github.com/userhub/userhub/internal/domain/entity"
)

// RoleRepository is the read-only lookup consumed when validating role
// memberships. Roles are owned elsewhere; this service never mutates them.
type RoleRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Role, error)
	FindByName(ctx context.Context, name string) (*entity.Role, error)
	FindAll(ctx context.Context) ([]entity.Role, error)
}
