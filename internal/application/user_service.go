package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"

	"github.com/userhub/userhub/internal/domain/entity"
	repo "github.com/userhub/userhub/internal/domain/repository"
	"github.com/userhub/userhub/pkg/mailer"
)

// ErrInvalidIdentifier rejects malformed identifiers: creating a user that
// already carries an id, or replacing one that does not.
var ErrInvalidIdentifier = errors.New("invalid user identifier")

// TxManager runs a unit of work inside one database transaction. Every
// mutating service operation goes through it so membership and email
// mutations commit together or not at all.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(users repo.UserRepository) error) error
}

// Service orchestrates create/read/update/delete of the User aggregate.
// Role membership changes run through the reconciliation logic below;
// email collections are replaced wholesale by the store.
//
// Events, Mail, ES and GCS are optional collaborators: a nil client
// disables the corresponding side effect.
type Service struct {
	Users  repo.UserRepository
	Roles  repo.RoleRepository
	Tx     TxManager
	Logger *logrus.Logger

	Events Publisher
	Mail   Publisher

	ES           *elasticsearch.Client
	ESUsersIndex string
	GCS          *storage.Client
	GCSBucket    string
}

func NewService(users repo.UserRepository, roles repo.RoleRepository, tx TxManager, logger *logrus.Logger) *Service {
	return &Service{Users: users, Roles: roles, Tx: tx, Logger: logger}
}

func (s *Service) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.Users.FindByID(ctx, id)
}

// FindByNameExact lower-cases the name before the lookup; usernames are
// stored in canonical form.
func (s *Service) FindByNameExact(ctx context.Context, name string) (*entity.User, error) {
	return s.Users.FindByUsername(ctx, strings.ToLower(name))
}

// FindByNameContaining matches the substring case-insensitively. An empty
// result is not an error.
func (s *Service) FindByNameContaining(ctx context.Context, partial string) ([]entity.User, error) {
	return s.Users.FindByUsernameContaining(ctx, strings.ToLower(partial))
}

func (s *Service) FindAll(ctx context.Context) ([]entity.User, error) {
	return s.Users.FindAll(ctx)
}

// DeleteByID requires the user to exist; memberships and emails go with it
// via the store's cascade.
func (s *Service) DeleteByID(ctx context.Context, actor string, id int64) error {
	err := s.Tx.WithinTx(ctx, func(users repo.UserRepository) error {
		if _, err := users.FindByID(ctx, id); err != nil {
			return err
		}
		return users.DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}
	s.deindexUser(ctx, id)
	s.publish(ctx, UserEvent{Type: EventUserDeleted, UserID: id, Actor: actor, At: time.Now().UTC()})
	return nil
}

// Create persists a brand-new aggregate. The request must carry identifier
// zero; the store assigns the real one. Duplicate role ids in the request
// are deduped, and each role is resolved before any row is written. The
// new user has no prior memberships, so roles are attached directly
// without the reconciliation guard.
func (s *Service) Create(ctx context.Context, actor string, req *entity.User) (*entity.User, error) {
	if req.ID != 0 {
		return nil, fmt.Errorf("%w: create requires identifier 0, got %d", ErrInvalidIdentifier, req.ID)
	}
	roleIDs := dedupeRoleIDs(req.Roles)
	for _, rid := range roleIDs {
		if _, err := s.Roles.FindByID(ctx, rid); err != nil {
			return nil, err
		}
	}

	var id int64
	err := s.Tx.WithinTx(ctx, func(users repo.UserRepository) error {
		fresh := &entity.User{
			Username:     req.Username,
			Password:     req.Password,
			PrimaryEmail: req.PrimaryEmail,
		}
		fresh.Canonicalize()
		saved, err := users.Save(ctx, fresh)
		if err != nil {
			return err
		}
		if len(req.Emails) > 0 {
			if err := users.ReplaceEmails(ctx, saved.ID, cloneEmails(req.Emails)); err != nil {
				return err
			}
		}
		for _, rid := range roleIDs {
			if err := users.InsertMembership(ctx, actor, saved.ID, rid); err != nil {
				return err
			}
		}
		id = saved.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexUser(ctx, out)
	s.publish(ctx, UserEvent{Type: EventUserCreated, UserID: out.ID, Username: out.Username, Actor: actor, RoleIDs: roleIDs, At: time.Now().UTC()})
	s.sendWelcome(ctx, out)
	return out, nil
}

// Replace fully replaces the aggregate under the given identifier: scalars
// are overwritten, emails are replaced wholesale, and memberships are
// reconciled against the requested set. Fields omitted from the request
// are not preserved.
func (s *Service) Replace(ctx context.Context, actor string, req *entity.User) (*entity.User, error) {
	if req.ID == 0 {
		return nil, fmt.Errorf("%w: replace requires a persisted identifier", ErrInvalidIdentifier)
	}
	requested := dedupeRoleIDs(req.Roles)

	err := s.Tx.WithinTx(ctx, func(users repo.UserRepository) error {
		current, err := users.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		fresh := &entity.User{
			ID:           current.ID,
			Username:     req.Username,
			Password:     req.Password,
			PrimaryEmail: req.PrimaryEmail,
		}
		fresh.Canonicalize()
		if _, err := users.Save(ctx, fresh); err != nil {
			return err
		}
		// replace is wholesale: an empty collection clears the rows
		if err := users.ReplaceEmails(ctx, current.ID, cloneEmails(req.Emails)); err != nil {
			return err
		}
		return s.reconcileRoles(ctx, users, actor, current.ID, current.RoleIDs(), requested)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Users.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	s.indexUser(ctx, out)
	s.publish(ctx, UserEvent{Type: EventUserReplaced, UserID: out.ID, Username: out.Username, Actor: actor, RoleIDs: requested, At: time.Now().UTC()})
	return out, nil
}

// Patch overwrites only the fields present in the request: empty scalars
// and empty collections are left untouched. A non-empty role list fully
// replaces the current membership set via reconciliation.
func (s *Service) Patch(ctx context.Context, actor string, req *entity.User, id int64) (*entity.User, error) {
	var requested []int64
	err := s.Tx.WithinTx(ctx, func(users repo.UserRepository) error {
		current, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Username != "" {
			current.Username = strings.ToLower(req.Username)
		}
		if req.Password != "" {
			current.Password = req.Password
		}
		if req.PrimaryEmail != "" {
			current.PrimaryEmail = strings.ToLower(req.PrimaryEmail)
		}
		baseline := current.RoleIDs()
		if _, err := users.Save(ctx, current); err != nil {
			return err
		}
		// an omitted collection leaves existing rows (and their ids) alone
		if len(req.Emails) > 0 {
			if err := users.ReplaceEmails(ctx, id, cloneEmails(req.Emails)); err != nil {
				return err
			}
		}
		if len(req.Roles) > 0 {
			requested = dedupeRoleIDs(req.Roles)
			return s.reconcileRoles(ctx, users, actor, id, baseline, requested)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexUser(ctx, out)
	s.publish(ctx, UserEvent{Type: EventUserPatched, UserID: out.ID, Username: out.Username, Actor: actor, RoleIDs: requested, At: time.Now().UTC()})
	return out, nil
}

// AddRole attaches a single membership inside its own transaction.
func (s *Service) AddRole(ctx context.Context, actor string, userID, roleID int64) error {
	err := s.Tx.WithinTx(ctx, func(users repo.UserRepository) error {
		return s.addMembership(ctx, users, actor, userID, roleID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, UserEvent{Type: EventUserRolesChanged, UserID: userID, Actor: actor, RoleIDs: []int64{roleID}, At: time.Now().UTC()})
	return nil
}

// RemoveRole detaches a single membership inside its own transaction.
func (s *Service) RemoveRole(ctx context.Context, actor string, userID, roleID int64) error {
	err := s.Tx.WithinTx(ctx, func(users repo.UserRepository) error {
		return s.removeMembership(ctx, users, userID, roleID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, UserEvent{Type: EventUserRolesChanged, UserID: userID, Actor: actor, At: time.Now().UTC()})
	return nil
}

// reconcileRoles makes the persisted membership rows for userID match the
// requested role id set exactly. Deliberately clear-then-rebuild rather
// than a computed set-difference: every current pairing is removed, then
// every requested pairing is inserted through the guarded primitives. That
// re-stamps audit columns for surviving roles on every call; they track
// "last touched", not "first granted". Atomicity comes from the enclosing
// transaction — an unknown role id partway through rolls back everything.
func (s *Service) reconcileRoles(ctx context.Context, users repo.UserRepository, actor string, userID int64, current, requested []int64) error {
	for _, rid := range current {
		if err := s.removeMembership(ctx, users, userID, rid); err != nil {
			return err
		}
	}
	for _, rid := range requested {
		if err := s.addMembership(ctx, users, actor, userID, rid); err != nil {
			return err
		}
	}
	return nil
}

// addMembership is the at-most-one-pairing guard: the user must exist, the
// role must resolve, and no row may already exist for the pair. An existing
// pairing is a conflict, not a not-found condition.
func (s *Service) addMembership(ctx context.Context, users repo.UserRepository, actor string, userID, roleID int64) error {
	if _, err := users.FindByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.Roles.FindByID(ctx, roleID); err != nil {
		return err
	}
	count, err := users.CountMembership(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if count > 0 {
		return repo.ErrMembershipExists
	}
	return users.InsertMembership(ctx, actor, userID, roleID)
}

// removeMembership deletes an existing pairing; removing one that does not
// exist fails with ErrMembershipNotFound.
func (s *Service) removeMembership(ctx context.Context, users repo.UserRepository, userID, roleID int64) error {
	if _, err := users.FindByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.Roles.FindByID(ctx, roleID); err != nil {
		return err
	}
	count, err := users.CountMembership(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if count == 0 {
		return repo.ErrMembershipNotFound
	}
	return users.DeleteMembership(ctx, userID, roleID)
}

// dedupeRoleIDs keeps the first occurrence of each role id; a request
// naming the same role twice yields one membership row, not a conflict.
func dedupeRoleIDs(roles []entity.UserRole) []int64 {
	seen := make(map[int64]struct{}, len(roles))
	ids := make([]int64, 0, len(roles))
	for _, ur := range roles {
		if _, ok := seen[ur.RoleID]; ok {
			continue
		}
		seen[ur.RoleID] = struct{}{}
		ids = append(ids, ur.RoleID)
	}
	return ids
}

func cloneEmails(emails []entity.UserEmail) []entity.UserEmail {
	out := make([]entity.UserEmail, 0, len(emails))
	for _, e := range emails {
		out = append(out, entity.UserEmail{Email: e.Email})
	}
	return out
}

func (s *Service) publish(ctx context.Context, ev UserEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("event", ev.Type).Warn("event publish failed")
	}
}

func (s *Service) sendWelcome(ctx context.Context, u *entity.User) {
	if s.Mail == nil || u.PrimaryEmail == "" {
		return
	}
	job := mailer.EmailJob{
		To:      u.PrimaryEmail,
		Subject: "Welcome aboard",
		Text:    "Hi " + u.Username + ", your account is ready.",
	}
	if err := s.Mail.Publish(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
	}
}
