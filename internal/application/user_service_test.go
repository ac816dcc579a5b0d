package application_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/userhub/userhub/internal/application"
	"github.com/userhub/userhub/internal/domain/entity"
	"github.com/userhub/userhub/internal/domain/repository"
)

// In-memory store with snapshot-based transaction semantics so the tests
// can assert that a failed batch leaves no partial state behind.

type membKey struct {
	userID, roleID int64
}

type memStore struct {
	nextID      int64
	emailSeq    int64
	users       map[int64]*entity.User // scalars and emails; roles live in memberships
	memberships map[membKey]entity.UserRole
	roles       map[int64]entity.Role
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]*entity.User),
		memberships: make(map[membKey]entity.UserRole),
		roles:       make(map[int64]entity.Role),
	}
}

func (st *memStore) clone() *memStore {
	c := newMemStore()
	c.nextID = st.nextID
	c.emailSeq = st.emailSeq
	for id, u := range st.users {
		cp := *u
		cp.Emails = append([]entity.UserEmail(nil), u.Emails...)
		c.users[id] = &cp
	}
	for k, v := range st.memberships {
		c.memberships[k] = v
	}
	for k, v := range st.roles {
		c.roles[k] = v
	}
	return c
}

func (st *memStore) assemble(u *entity.User) *entity.User {
	out := *u
	out.Emails = append([]entity.UserEmail(nil), u.Emails...)
	out.Roles = nil
	for k, m := range st.memberships {
		if k.userID != u.ID {
			continue
		}
		mm := m
		if role, ok := st.roles[k.roleID]; ok {
			r := role
			mm.Role = &r
		}
		out.Roles = append(out.Roles, mm)
	}
	sort.Slice(out.Roles, func(i, j int) bool { return out.Roles[i].RoleID < out.Roles[j].RoleID })
	return &out
}

func (st *memStore) membershipRoleIDs(userID int64) []int64 {
	var ids []int64
	for k := range st.memberships {
		if k.userID == userID {
			ids = append(ids, k.roleID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type fakeUserRepo struct {
	st *memStore
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return r.st.assemble(u), nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range r.st.users {
		if u.Username == username {
			return r.st.assemble(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsernameContaining(_ context.Context, partial string) ([]entity.User, error) {
	var out []entity.User
	for _, u := range r.st.users {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(partial)) {
			out = append(out, *r.st.assemble(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]entity.User, error) {
	var out []entity.User
	for _, u := range r.st.users {
		out = append(out, *r.st.assemble(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save writes the users row only; the email collection is owned by
// ReplaceEmails and survives scalar updates untouched.
func (r *fakeUserRepo) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	var existing []entity.UserEmail
	if u.ID == 0 {
		r.st.nextID++
		u.ID = r.st.nextID
		u.CreatedAt = time.Now()
	} else {
		prior, ok := r.st.users[u.ID]
		if !ok {
			return nil, repository.ErrUserNotFound
		}
		existing = prior.Emails
	}
	u.UpdatedAt = time.Now()
	cp := *u
	cp.Emails = existing
	cp.Roles = nil
	r.st.users[u.ID] = &cp
	return u, nil
}

func (r *fakeUserRepo) ReplaceEmails(_ context.Context, userID int64, emails []entity.UserEmail) error {
	u, ok := r.st.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Emails = nil
	for _, e := range emails {
		r.st.emailSeq++
		u.Emails = append(u.Emails, entity.UserEmail{ID: r.st.emailSeq, UserID: userID, Email: e.Email})
	}
	return nil
}

func (r *fakeUserRepo) DeleteByID(_ context.Context, id int64) error {
	if _, ok := r.st.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.st.users, id)
	for k := range r.st.memberships {
		if k.userID == id {
			delete(r.st.memberships, k)
		}
	}
	return nil
}

func (r *fakeUserRepo) UpdateAvatarURL(_ context.Context, id int64, url string) error {
	u, ok := r.st.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.AvatarURL = url
	return nil
}

func (r *fakeUserRepo) CountMembership(_ context.Context, userID, roleID int64) (int, error) {
	if _, ok := r.st.memberships[membKey{userID, roleID}]; ok {
		return 1, nil
	}
	return 0, nil
}

func (r *fakeUserRepo) DeleteMembership(_ context.Context, userID, roleID int64) error {
	delete(r.st.memberships, membKey{userID, roleID})
	return nil
}

func (r *fakeUserRepo) InsertMembership(_ context.Context, actor string, userID, roleID int64) error {
	key := membKey{userID, roleID}
	if _, ok := r.st.memberships[key]; ok {
		return repository.ErrMembershipExists
	}
	now := time.Now()
	r.st.memberships[key] = entity.UserRole{
		UserID:         userID,
		RoleID:         roleID,
		CreatedBy:      actor,
		CreatedAt:      now,
		LastModifiedBy: actor,
		LastModifiedAt: now,
	}
	return nil
}

type fakeRoleRepo struct {
	st *memStore
}

func (r *fakeRoleRepo) FindByID(_ context.Context, id int64) (*entity.Role, error) {
	role, ok := r.st.roles[id]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	return &role, nil
}

func (r *fakeRoleRepo) FindByName(_ context.Context, name string) (*entity.Role, error) {
	for _, role := range r.st.roles {
		if role.Name == name {
			rr := role
			return &rr, nil
		}
	}
	return nil, repository.ErrRoleNotFound
}

func (r *fakeRoleRepo) FindAll(_ context.Context) ([]entity.Role, error) {
	var out []entity.Role
	for _, role := range r.st.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeTx snapshots the store and restores it when the unit of work fails,
// mirroring the rollback behavior of the real transaction manager.
type fakeTx struct {
	st *memStore
}

func (f fakeTx) WithinTx(_ context.Context, fn func(users repository.UserRepository) error) error {
	snap := f.st.clone()
	if err := fn(&fakeUserRepo{st: f.st}); err != nil {
		*f.st = *snap
		return err
	}
	return nil
}

type capturePublisher struct {
	msgs []any
}

func (p *capturePublisher) Publish(_ context.Context, body any) error {
	p.msgs = append(p.msgs, body)
	return nil
}

const (
	adminRole int64 = 1
	userRole  int64 = 2
	auditRole int64 = 3
)

func newTestService(t *testing.T) (*application.Service, *memStore) {
	t.Helper()
	st := newMemStore()
	st.roles[adminRole] = entity.Role{ID: adminRole, Name: "admin"}
	st.roles[userRole] = entity.Role{ID: userRole, Name: "user"}
	st.roles[auditRole] = entity.Role{ID: auditRole, Name: "auditor"}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := application.NewService(&fakeUserRepo{st: st}, &fakeRoleRepo{st: st}, fakeTx{st: st}, logger)
	return svc, st
}

func mustCreate(t *testing.T, svc *application.Service, username string, roleIDs ...int64) *entity.User {
	t.Helper()
	req := &entity.User{Username: username, Password: "hashed-secret", PrimaryEmail: username + "@example.com"}
	for _, rid := range roleIDs {
		req.Roles = append(req.Roles, entity.UserRole{RoleID: rid})
	}
	u, err := svc.Create(context.Background(), "seed", req)
	if err != nil {
		t.Fatalf("Create(%s): %v", username, err)
	}
	return u
}

func roleSet(u *entity.User) []int64 {
	ids := u.RoleIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreate_AssignsIdentifierAndCanonicalizes(t *testing.T) {
	svc, _ := newTestService(t)

	u, err := svc.Create(context.Background(), "boss", &entity.User{
		Username:     "Alice",
		Password:     "opaque-credential",
		PrimaryEmail: "Alice@Example.COM",
		Roles:        []entity.UserRole{{RoleID: adminRole}},
		Emails:       []entity.UserEmail{{Email: "alice@work.example.com"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected store-assigned identifier")
	}
	if u.Username != "alice" {
		t.Fatalf("expected canonical username %q, got %q", "alice", u.Username)
	}
	if u.PrimaryEmail != "alice@example.com" {
		t.Fatalf("expected canonical email, got %q", u.PrimaryEmail)
	}
	if u.Password != "opaque-credential" {
		t.Fatalf("expected password copied verbatim, got %q", u.Password)
	}
	if !equalIDs(roleSet(u), []int64{adminRole}) {
		t.Fatalf("expected roles [admin], got %v", roleSet(u))
	}
	if len(u.Emails) != 1 || u.Emails[0].Email != "alice@work.example.com" {
		t.Fatalf("unexpected emails: %v", u.Emails)
	}
}

func TestCreate_RequiresZeroIdentifier(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(context.Background(), "boss", &entity.User{ID: 42, Username: "bob", Password: "x", PrimaryEmail: "b@example.com"})
	if !errors.Is(err, application.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if len(st.users) != 0 {
		t.Fatal("store must be untouched after a rejected create")
	}
}

func TestCreate_DedupesDuplicateRoleIDs(t *testing.T) {
	svc, st := newTestService(t)

	u := mustCreate(t, svc, "alice", adminRole, adminRole)
	if got := st.membershipRoleIDs(u.ID); !equalIDs(got, []int64{adminRole}) {
		t.Fatalf("expected a single membership row, got %v", got)
	}
}

func TestCreate_UnknownRoleLeavesNothingBehind(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Create(context.Background(), "boss", &entity.User{
		Username:     "ghost",
		Password:     "x",
		PrimaryEmail: "g@example.com",
		Roles:        []entity.UserRole{{RoleID: 999}},
	})
	if !errors.Is(err, repository.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if len(st.users) != 0 || len(st.memberships) != 0 {
		t.Fatal("failed create must not persist anything")
	}
}

func TestCreate_PublishesEventAndWelcomeMail(t *testing.T) {
	svc, _ := newTestService(t)
	events := &capturePublisher{}
	mail := &capturePublisher{}
	svc.Events = events
	svc.Mail = mail

	u := mustCreate(t, svc, "alice", adminRole)

	if len(events.msgs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.msgs))
	}
	ev, ok := events.msgs[0].(application.UserEvent)
	if !ok || ev.Type != application.EventUserCreated || ev.UserID != u.ID {
		t.Fatalf("unexpected event: %#v", events.msgs[0])
	}
	if len(mail.msgs) != 1 {
		t.Fatalf("expected 1 welcome mail job, got %d", len(mail.msgs))
	}
}

func TestReplace_ReconcilesToRequestedSet(t *testing.T) {
	svc, st := newTestService(t)
	u := mustCreate(t, svc, "alice", adminRole)

	out, err := svc.Replace(context.Background(), "manager", &entity.User{
		ID:           u.ID,
		Username:     "alice",
		Password:     "x",
		PrimaryEmail: "alice@example.com",
		Roles:        []entity.UserRole{{RoleID: userRole}, {RoleID: auditRole}},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := roleSet(out); !equalIDs(got, []int64{userRole, auditRole}) {
		t.Fatalf("expected exactly [user auditor], got %v", got)
	}
	if got := st.membershipRoleIDs(u.ID); !equalIDs(got, []int64{userRole, auditRole}) {
		t.Fatalf("persisted membership set mismatch: %v", got)
	}
	for _, ur := range out.Roles {
		if ur.LastModifiedBy != "manager" {
			t.Fatalf("expected lastModifiedBy=manager on role %d, got %q", ur.RoleID, ur.LastModifiedBy)
		}
	}
}

func TestReplace_RestampsSurvivingRoles(t *testing.T) {
	svc, _ := newTestService(t)
	u := mustCreate(t, svc, "alice", adminRole)

	out, err := svc.Replace(context.Background(), "second-actor", &entity.User{
		ID:           u.ID,
		Username:     "alice",
		Password:     "x",
		PrimaryEmail: "alice@example.com",
		Roles:        []entity.UserRole{{RoleID: adminRole}},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// clear-then-rebuild re-stamps even unchanged pairings
	if out.Roles[0].LastModifiedBy != "second-actor" {
		t.Fatalf("expected re-stamped audit column, got %q", out.Roles[0].LastModifiedBy)
	}
}

func TestReplace_RequiresIdentifier(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Replace(context.Background(), "boss", &entity.User{Username: "x", Password: "x", PrimaryEmail: "x@example.com"})
	if !errors.Is(err, application.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestReplace_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Replace(context.Background(), "boss", &entity.User{ID: 77, Username: "x", Password: "x", PrimaryEmail: "x@example.com"})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestReplace_UnknownRoleRollsBackWholeBatch(t *testing.T) {
	svc, st := newTestService(t)
	u := mustCreate(t, svc, "alice", adminRole)

	_, err := svc.Replace(context.Background(), "boss", &entity.User{
		ID:           u.ID,
		Username:     "renamed",
		Password:     "new",
		PrimaryEmail: "renamed@example.com",
		Roles:        []entity.UserRole{{RoleID: userRole}, {RoleID: 999}},
	})
	if !errors.Is(err, repository.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}

	cur, err := svc.FindByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if cur.Username != "alice" {
		t.Fatalf("scalar change must roll back, got username %q", cur.Username)
	}
	if got := st.membershipRoleIDs(u.ID); !equalIDs(got, []int64{adminRole}) {
		t.Fatalf("membership set must roll back to [admin], got %v", got)
	}
}

func TestReplace_ReplacesEmailsWholesale(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.Create(context.Background(), "boss", &entity.User{
		Username:     "alice",
		Password:     "x",
		PrimaryEmail: "alice@example.com",
		Emails:       []entity.UserEmail{{Email: "old1@example.com"}, {Email: "old2@example.com"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	out, err := svc.Replace(context.Background(), "boss", &entity.User{
		ID:           u.ID,
		Username:     "alice",
		Password:     "x",
		PrimaryEmail: "alice@example.com",
		Emails:       []entity.UserEmail{{Email: "new@example.com"}},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if len(out.Emails) != 1 || out.Emails[0].Email != "new@example.com" {
		t.Fatalf("expected wholesale email replacement, got %v", out.Emails)
	}
}

func TestPatch_EmptyRoleListLeavesMembershipsUntouched(t *testing.T) {
	svc, st := newTestService(t)
	u := mustCreate(t, svc, "alice", adminRole, userRole)
	before := st.memberships[membKey{u.ID, adminRole}]

	out, err := svc.Patch(context.Background(), "editor", &entity.User{Username: "alicia"}, u.ID)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out.Username != "alicia" {
		t.Fatalf("expected patched username, got %q", out.Username)
	}
	if got := st.membershipRoleIDs(u.ID); !equalIDs(got, []int64{adminRole, userRole}) {
		t.Fatalf("membership set must be untouched, got %v", got)
	}
	if after := st.memberships[membKey{u.ID, adminRole}]; after.LastModifiedBy != before.LastModifiedBy {
		t.Fatal("audit columns must not be re-stamped by a role-less patch")
	}
}

func TestPatch_RolesFullyReplaceCurrentSet(t *testing.T) {
	svc, st := newTestService(t)
	// alice holds {admin}; patching with [user] must remove admin and add user
	u := mustCreate(t, svc, "alice", adminRole)

	out, err := svc.Patch(context.Background(), "operator", &entity.User{
		Roles: []entity.UserRole{{RoleID: userRole}},
	}, u.ID)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got := roleSet(out); !equalIDs(got, []int64{userRole}) {
		t.Fatalf("expected final role set [user], got %v", got)
	}
	if _, ok := st.memberships[membKey{u.ID, adminRole}]; ok {
		t.Fatal("admin pairing must be removed")
	}
	m, ok := st.memberships[membKey{u.ID, userRole}]
	if !ok {
		t.Fatal("user pairing must be inserted")
	}
	if m.LastModifiedBy != "operator" {
		t.Fatalf("expected lastModifiedBy=operator, got %q", m.LastModifiedBy)
	}
}

func TestPatch_PartialScalarsLeaveOthersAlone(t *testing.T) {
	svc, _ := newTestService(t)
	u := mustCreate(t, svc, "alice")

	out, err := svc.Patch(context.Background(), "editor", &entity.User{PrimaryEmail: "NEW@Example.com"}, u.ID)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if out.PrimaryEmail != "new@example.com" {
		t.Fatalf("expected canonicalized patched email, got %q", out.PrimaryEmail)
	}
	if out.Username != "alice" || out.Password != "hashed-secret" {
		t.Fatalf("untouched fields changed: %q %q", out.Username, out.Password)
	}
}

func TestPatch_OmittedEmailsKeepExistingRows(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.Create(context.Background(), "boss", &entity.User{
		Username:     "alice",
		Password:     "x",
		PrimaryEmail: "alice@example.com",
		Emails:       []entity.UserEmail{{Email: "one@example.com"}, {Email: "two@example.com"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := append([]entity.UserEmail(nil), u.Emails...)

	out, err := svc.Patch(context.Background(), "editor", &entity.User{Username: "alicia"}, u.ID)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if len(out.Emails) != len(before) {
		t.Fatalf("email rows changed: %v", out.Emails)
	}
	for i := range before {
		if out.Emails[i].ID != before[i].ID || out.Emails[i].Email != before[i].Email {
			t.Fatalf("email row %d rewritten: %+v -> %+v", i, before[i], out.Emails[i])
		}
	}
}

func TestPatch_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Patch(context.Background(), "editor", &entity.User{Username: "x"}, 404)
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAddRole_SecondAddConflicts(t *testing.T) {
	svc, st := newTestService(t)
	u := mustCreate(t, svc, "alice")

	if err := svc.AddRole(context.Background(), "boss", u.ID, adminRole); err != nil {
		t.Fatalf("first AddRole: %v", err)
	}
	err := svc.AddRole(context.Background(), "boss", u.ID, adminRole)
	if !errors.Is(err, repository.ErrMembershipExists) {
		t.Fatalf("expected ErrMembershipExists, got %v", err)
	}
	if got := st.membershipRoleIDs(u.ID); !equalIDs(got, []int64{adminRole}) {
		t.Fatalf("membership count must stay at one row, got %v", got)
	}
}

func TestAddRole_UnknownUserOrRole(t *testing.T) {
	svc, _ := newTestService(t)
	u := mustCreate(t, svc, "alice")

	if err := svc.AddRole(context.Background(), "boss", 404, adminRole); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.AddRole(context.Background(), "boss", u.ID, 999); !errors.Is(err, repository.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRemoveRole_MissingPairing(t *testing.T) {
	svc, st := newTestService(t)
	u := mustCreate(t, svc, "alice")

	err := svc.RemoveRole(context.Background(), "boss", u.ID, adminRole)
	if !errors.Is(err, repository.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
	if got := st.membershipRoleIDs(u.ID); len(got) != 0 {
		t.Fatalf("membership count must stay zero, got %v", got)
	}
}

func TestDeleteByID_RequiresExistenceAndCascades(t *testing.T) {
	svc, st := newTestService(t)
	u := mustCreate(t, svc, "alice", adminRole)

	if err := svc.DeleteByID(context.Background(), "boss", 404); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.DeleteByID(context.Background(), "boss", u.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if len(st.membershipRoleIDs(u.ID)) != 0 {
		t.Fatal("memberships must be deleted with the user")
	}
	if _, err := svc.FindByID(context.Background(), u.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
}

func TestFindByNameExact_CanonicalizesLookup(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "alice")

	u, err := svc.FindByNameExact(context.Background(), "ALICE")
	if err != nil {
		t.Fatalf("FindByNameExact: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("unexpected user %q", u.Username)
	}
	if _, err := svc.FindByNameExact(context.Background(), "nobody"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFindByNameContaining_CaseInsensitiveSubstring(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "alice")
	mustCreate(t, svc, "bob")
	mustCreate(t, svc, "charlie")

	got, err := svc.FindByNameContaining(context.Background(), "LI")
	if err != nil {
		t.Fatalf("FindByNameContaining: %v", err)
	}
	names := make(map[string]bool, len(got))
	for _, u := range got {
		names[u.Username] = true
	}
	if len(got) != 2 || !names["alice"] || !names["charlie"] {
		t.Fatalf("expected exactly {alice, charlie}, got %v", names)
	}

	empty, err := svc.FindByNameContaining(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("empty result is not an error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no matches, got %d", len(empty))
	}
}

func TestFindByNameContaining_TreatsPartialLiterally(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "abc")
	mustCreate(t, svc, "a_c")

	got, err := svc.FindByNameContaining(context.Background(), "a_c")
	if err != nil {
		t.Fatalf("FindByNameContaining: %v", err)
	}
	if len(got) != 1 || got[0].Username != "a_c" {
		t.Fatalf("underscore must not act as a wildcard, got %d matches", len(got))
	}
}
