package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the user domain. A zero ID means the user
// has not been persisted yet; the store assigns the identifier on first save.
//
// Username and PrimaryEmail are stored in canonical (lower-cased) form.
// Password is an opaque credential; hashing happens at the transport/seed
// edge, never in the service.
type User struct {
	ID           int64
	Username     string
	Password     string
	PrimaryEmail string
	AvatarURL    string
	Roles        []UserRole
	Emails       []UserEmail
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleIDs returns the ids of the user's current role memberships.
func (u *User) RoleIDs() []int64 {
	ids := make([]int64, 0, len(u.Roles))
	for _, ur := range u.Roles {
		ids = append(ids, ur.RoleID)
	}
	return ids
}

// HasRole reports whether the user holds a membership for the given role id.
func (u *User) HasRole(roleID int64) bool {
	for _, ur := range u.Roles {
		if ur.RoleID == roleID {
			return true
		}
	}
	return false
}

// Canonicalize lower-cases username and primary email in place.
func (u *User) Canonicalize() {
	u.Username = strings.ToLower(u.Username)
	u.PrimaryEmail = strings.ToLower(u.PrimaryEmail)
}

// UserRole is one row of the user_roles join table. The pair
// (UserID, RoleID) is unique; audit columns record who touched the
// pairing last, not who granted it first.
type UserRole struct {
	UserID         int64
	RoleID         int64
	Role           *Role
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedBy string
	LastModifiedAt time.Time
}

// UserEmail is owned exclusively by its User and has no identity outside
// the aggregate. The whole collection is replaced when the aggregate's
// email list changes; the store removes rows no longer referenced.
type UserEmail struct {
	ID     int64
	UserID int64
	Email  string
}
