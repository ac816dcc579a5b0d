package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/userhub/userhub/internal/application"
	"github.com/userhub/userhub/internal/domain/entity"
	"github.com/userhub/userhub/internal/domain/repository"
	"github.com/userhub/userhub/internal/interface/middleware"
	"github.com/userhub/userhub/pkg/helpers"
	"github.com/userhub/userhub/pkg/response"
	"github.com/userhub/userhub/pkg/validation"
)

type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type roleRef struct {
	RoleID int64 `json:"roleid" binding:"required"`
}

type emailRef struct {
	Useremail string `json:"useremail" binding:"required,email"`
}

type createUserRequest struct {
	Username     string     `json:"username" binding:"required"`
	Password     string     `json:"password" binding:"required,pwd"`
	PrimaryEmail string     `json:"primaryemail" binding:"required,email"`
	Useremails   []emailRef `json:"useremails" binding:"omitempty,dive"`
	Roles        []roleRef  `json:"roles" binding:"omitempty,dive"`
}

// patchUserRequest carries no required bindings: absent fields mean
// "leave untouched".
type patchUserRequest struct {
	Username     string     `json:"username"`
	Password     string     `json:"password" binding:"omitempty,pwd"`
	PrimaryEmail string     `json:"primaryemail" binding:"omitempty,email"`
	Useremails   []emailRef `json:"useremails" binding:"omitempty,dive"`
	Roles        []roleRef  `json:"roles" binding:"omitempty,dive"`
}

func toEntity(username, password, primaryEmail string, emails []emailRef, roles []roleRef) *entity.User {
	u := &entity.User{
		Username:     username,
		Password:     password,
		PrimaryEmail: primaryEmail,
	}
	for _, e := range emails {
		u.Emails = append(u.Emails, entity.UserEmail{Email: e.Useremail})
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, entity.UserRole{RoleID: r.RoleID})
	}
	return u
}

// statusFor maps the service error taxonomy onto HTTP statuses:
// validation 400, not-found 404, conflict 409.
func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrRoleNotFound),
		errors.Is(err, repository.ErrMembershipNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrMembershipExists),
		errors.Is(err, repository.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func userPayload(u *entity.User) gin.H {
	roles := make([]gin.H, 0, len(u.Roles))
	for _, ur := range u.Roles {
		role := gin.H{
			"roleid":           ur.RoleID,
			"created_by":       ur.CreatedBy,
			"created_at":       ur.CreatedAt,
			"last_modified_by": ur.LastModifiedBy,
			"last_modified_at": ur.LastModifiedAt,
		}
		if ur.Role != nil {
			role["name"] = ur.Role.Name
		}
		roles = append(roles, role)
	}
	emails := make([]gin.H, 0, len(u.Emails))
	for _, e := range u.Emails {
		emails = append(emails, gin.H{"useremailid": e.ID, "useremail": e.Email})
	}
	return gin.H{
		"userid":       u.ID,
		"username":     u.Username,
		"primaryemail": u.PrimaryEmail,
		"avatar_url":   u.AvatarURL,
		"roles":        roles,
		"useremails":   emails,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.FindAll(c.Request.Context())
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.listResponse(c, users)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "userid")
	if !ok {
		return
	}
	u, err := h.Svc.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, userPayload(u), "user", nil)
}

func (h *UserHandler) GetByName(c *gin.Context) {
	u, err := h.Svc.FindByNameExact(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, userPayload(u), "user", nil)
}

func (h *UserHandler) GetByNameLike(c *gin.Context) {
	users, err := h.Svc.FindByNameContaining(c.Request.Context(), c.Param("partial"))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	h.listResponse(c, users)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	// credential policy lives at this edge; the service stores the value verbatim
	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to process credentials", nil)
		return
	}
	u, err := h.Svc.Create(c.Request.Context(), actor(c), toEntity(req.Username, hash, req.PrimaryEmail, req.Useremails, req.Roles))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, userPayload(u), "user created", nil)
}

func (h *UserHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, "userid")
	if !ok {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to process credentials", nil)
		return
	}
	in := toEntity(req.Username, hash, req.PrimaryEmail, req.Useremails, req.Roles)
	in.ID = id
	u, err := h.Svc.Replace(c.Request.Context(), actor(c), in)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, userPayload(u), "user replaced", nil)
}

func (h *UserHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "userid")
	if !ok {
		return
	}
	var req patchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	password := req.Password
	if password != "" {
		hash, err := helpers.HashPassword(password)
		if err != nil {
			response.Error[any](c, http.StatusInternalServerError, "failed to process credentials", nil)
			return
		}
		password = hash
	}
	u, err := h.Svc.Patch(c.Request.Context(), actor(c), toEntity(req.Username, password, req.PrimaryEmail, req.Useremails, req.Roles), id)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, userPayload(u), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "userid")
	if !ok {
		return
	}
	if err := h.Svc.DeleteByID(c.Request.Context(), actor(c), id); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": id}, "user deleted", nil)
}

func (h *UserHandler) AddRole(c *gin.Context) {
	userID, ok := pathID(c, "userid")
	if !ok {
		return
	}
	roleID, ok := pathID(c, "roleid")
	if !ok {
		return
	}
	if err := h.Svc.AddRole(c.Request.Context(), actor(c), userID, roleID); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success[any](c, http.StatusCreated, gin.H{"userid": userID, "roleid": roleID}, "role added", nil)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	userID, ok := pathID(c, "userid")
	if !ok {
		return
	}
	roleID, ok := pathID(c, "roleid")
	if !ok {
		return
	}
	if err := h.Svc.RemoveRole(c.Request.Context(), actor(c), userID, roleID); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"userid": userID, "roleid": roleID}, "role removed", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetInt64(middleware.CtxUserID)
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	defer func() { _ = file.Close() }()
	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}

func (h *UserHandler) listResponse(c *gin.Context, users []entity.User) {
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userPayload(&users[i]))
	}
	response.Success(c, http.StatusOK, out, "users", gin.H{"count": len(out)})
}

func actor(c *gin.Context) string {
	return c.GetString(middleware.CtxActor)
}
