package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/userhub/userhub/internal/container"
	handlers "github.com/userhub/userhub/internal/interface/http"
	"github.com/userhub/userhub/internal/interface/middleware"
	"github.com/userhub/userhub/pkg/helpers"
)

// RoleModule exposes the read-only role lookups.
type RoleModule struct {
	Handler *handlers.RoleHandler
	JWT     *helpers.JWTManager
}

func NewRoleModule(h *handlers.RoleHandler, jwt *helpers.JWTManager) *RoleModule {
	return &RoleModule{Handler: h, JWT: jwt}
}

func (m *RoleModule) Register(rg *gin.RouterGroup) {
	roles := rg.Group("/roles")
	roles.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		roles.GET("", m.Handler.List)
		roles.GET("/role/:roleid", m.Handler.GetByID)
		roles.GET("/role/name/:name", m.Handler.GetByName)
	}
}
