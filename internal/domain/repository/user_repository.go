package repository

import (
	"context"

	"github.com/userhub/userhub/internal/domain/entity"
)

// UserRepository is the persistence gateway for the User aggregate.
//
// Save persists the users row only. The owned email collection is written
// through ReplaceEmails, and role memberships go through the three
// join-table primitives below so audit columns are stamped on every
// insert. Keeping the collections out of Save lets a partial update leave
// untouched children alone.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	// FindByUsername does an exact match on the canonical (lower-cased) form.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	// FindByUsernameContaining matches the substring case-insensitively.
	FindByUsernameContaining(ctx context.Context, partial string) ([]entity.User, error)
	FindAll(ctx context.Context) ([]entity.User, error)
	// Save inserts when u.ID is zero and updates otherwise. It returns the
	// store-assigned state of the aggregate.
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	// ReplaceEmails rewrites the owned email collection wholesale; rows no
	// longer referenced are removed and surrogate ids are reassigned.
	ReplaceEmails(ctx context.Context, userID int64, emails []entity.UserEmail) error
	DeleteByID(ctx context.Context, id int64) error
	UpdateAvatarURL(ctx context.Context, id int64, url string) error

	// CountMembership reports how many user_roles rows exist for the pair.
	// The query itself does not enforce uniqueness; the composite primary
	// key on (user_id, role_id) does.
	CountMembership(ctx context.Context, userID, roleID int64) (int, error)
	DeleteMembership(ctx context.Context, userID, roleID int64) error
	// InsertMembership stamps all four audit columns with actor and the
	// current timestamp. A duplicate pair yields ErrMembershipExists.
	InsertMembership(ctx context.Context, actor string, userID, roleID int64) error
}
