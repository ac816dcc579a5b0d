package entity

import "time"

// Role is an authorization role. Many-to-many with User via user_roles.
// Referenced, never mutated, by the user service.
type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
