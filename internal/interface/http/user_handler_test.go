package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/userhub/userhub/internal/application"
	"github.com/userhub/userhub/internal/domain/entity"
	"github.com/userhub/userhub/internal/domain/repository"
)

// Minimal stubs: enough of the ports to drive the handlers through gin and
// assert that the error taxonomy reaches the wire as statuses and bodies.

type stubUsers struct {
	user       *entity.User
	membership bool
}

func (s *stubUsers) FindByID(_ context.Context, id int64) (*entity.User, error) {
	if s.user != nil && s.user.ID == id {
		cp := *s.user
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	if s.user != nil && s.user.Username == username {
		cp := *s.user
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubUsers) FindByUsernameContaining(context.Context, string) ([]entity.User, error) {
	return nil, nil
}

func (s *stubUsers) FindAll(context.Context) ([]entity.User, error) { return nil, nil }

func (s *stubUsers) Save(_ context.Context, u *entity.User) (*entity.User, error) { return u, nil }

func (s *stubUsers) ReplaceEmails(context.Context, int64, []entity.UserEmail) error { return nil }

func (s *stubUsers) DeleteByID(_ context.Context, id int64) error {
	if s.user == nil || s.user.ID != id {
		return repository.ErrUserNotFound
	}
	return nil
}

func (s *stubUsers) UpdateAvatarURL(context.Context, int64, string) error { return nil }

func (s *stubUsers) CountMembership(context.Context, int64, int64) (int, error) {
	if s.membership {
		return 1, nil
	}
	return 0, nil
}

func (s *stubUsers) DeleteMembership(context.Context, int64, int64) error { return nil }

func (s *stubUsers) InsertMembership(context.Context, string, int64, int64) error { return nil }

type stubRoles struct {
	role *entity.Role
}

func (s *stubRoles) FindByID(_ context.Context, id int64) (*entity.Role, error) {
	if s.role != nil && s.role.ID == id {
		cp := *s.role
		return &cp, nil
	}
	return nil, repository.ErrRoleNotFound
}

func (s *stubRoles) FindByName(context.Context, string) (*entity.Role, error) {
	return nil, repository.ErrRoleNotFound
}

func (s *stubRoles) FindAll(context.Context) ([]entity.Role, error) { return nil, nil }

type passthroughTx struct {
	users repository.UserRepository
}

func (t passthroughTx) WithinTx(_ context.Context, fn func(users repository.UserRepository) error) error {
	return fn(t.users)
}

func newTestRouter(users *stubUsers, roles *stubRoles) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := application.NewService(users, roles, passthroughTx{users: users}, logger)
	h := NewUserHandler(svc, logger)

	r := gin.New()
	r.GET("/user/:userid", h.GetByID)
	r.POST("/user/:userid/role/:roleid", h.AddRole)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

type envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("body is not the JSON envelope: %v (body %q)", err, w.Body.String())
	}
	return e
}

func TestGetByID_MissingUserWrites404(t *testing.T) {
	r := newTestRouter(&stubUsers{}, &stubRoles{})

	w := doRequest(t, r, http.MethodGet, "/user/99")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	e := decodeEnvelope(t, w)
	if e.Success || e.Status != http.StatusNotFound {
		t.Fatalf("envelope = %+v", e)
	}
}

func TestGetByID_FoundWrites200Body(t *testing.T) {
	r := newTestRouter(&stubUsers{user: &entity.User{ID: 1, Username: "alice"}}, &stubRoles{})

	w := doRequest(t, r, http.MethodGet, "/user/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	e := decodeEnvelope(t, w)
	if !e.Success || e.Status != http.StatusOK {
		t.Fatalf("envelope = %+v", e)
	}
}

func TestGetByID_BadIdentifierWrites400(t *testing.T) {
	r := newTestRouter(&stubUsers{}, &stubRoles{})

	w := doRequest(t, r, http.MethodGet, "/user/not-a-number")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestAddRole_ExistingPairingWrites409(t *testing.T) {
	users := &stubUsers{user: &entity.User{ID: 1, Username: "alice"}, membership: true}
	r := newTestRouter(users, &stubRoles{role: &entity.Role{ID: 2, Name: "user"}})

	w := doRequest(t, r, http.MethodPost, "/user/1/role/2")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if e := decodeEnvelope(t, w); e.Success {
		t.Fatalf("envelope = %+v", e)
	}
}
