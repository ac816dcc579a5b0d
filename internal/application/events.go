package application

import (
	"context"
	"time"
)

// Publisher is the port for post-commit publication of messages, typically
// backed by RabbitMQ. Events are best-effort: a publish failure is logged,
// never rolled into the transaction outcome.
type Publisher interface {
	Publish(ctx context.Context, body any) error
}

const (
	EventUserCreated      = "user.created"
	EventUserReplaced     = "user.replaced"
	EventUserPatched      = "user.patched"
	EventUserDeleted      = "user.deleted"
	EventUserRolesChanged = "user.roles_changed"
)

// UserEvent is the JSON payload published to the events queue after a
// mutating operation commits.
type UserEvent struct {
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Actor    string    `json:"actor"`
	RoleIDs  []int64   `json:"role_ids,omitempty"`
	At       time.Time `json:"at"`
}
