package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/userhub/userhub/internal/domain/entity"
	"github.com/userhub/userhub/internal/domain/repository"
	"github.com/userhub/userhub/pkg/response"
)

type RoleHandler struct {
	Roles  repository.RoleRepository
	Logger *logrus.Logger
}

func NewRoleHandler(roles repository.RoleRepository, logger *logrus.Logger) *RoleHandler {
	return &RoleHandler{Roles: roles, Logger: logger}
}

func rolePayload(r *entity.Role) gin.H {
	return gin.H{"roleid": r.ID, "name": r.Name, "created_at": r.CreatedAt, "updated_at": r.UpdatedAt}
}

func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.Roles.FindAll(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	out := make([]gin.H, 0, len(roles))
	for i := range roles {
		out = append(out, rolePayload(&roles[i]))
	}
	response.Success(c, http.StatusOK, out, "roles", gin.H{"count": len(out)})
}

func (h *RoleHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "roleid")
	if !ok {
		return
	}
	role, err := h.Roles.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, rolePayload(role), "role", nil)
}

func (h *RoleHandler) GetByName(c *gin.Context) {
	role, err := h.Roles.FindByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, rolePayload(role), "role", nil)
}
