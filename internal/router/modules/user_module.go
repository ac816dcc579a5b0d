package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/userhub/userhub/internal/container"
	handlers "github.com/userhub/userhub/internal/interface/http"
	"github.com/userhub/userhub/internal/interface/middleware"
	"github.com/userhub/userhub/pkg/helpers"
)

// UserModule wires the user aggregate routes. All routes require an
// authenticated principal; the auth middleware resolves the audit actor
// stamped onto membership rows by mutating operations.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(container.GetRedis(), m.JWT))
	users.Use(middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()))
	{
		users.GET("", m.Handler.List)
		users.GET("/user/:userid", m.Handler.GetByID)
		users.GET("/user/name/:username", m.Handler.GetByName)
		users.GET("/user/name/like/:partial", m.Handler.GetByNameLike)
		users.GET("/search", m.Handler.Search)

		users.POST("/user", m.Handler.Create)
		users.PUT("/user/:userid", m.Handler.Replace)
		users.PATCH("/user/:userid", m.Handler.Patch)
		users.DELETE("/user/:userid", m.Handler.Delete)

		users.POST("/user/:userid/role/:roleid", m.Handler.AddRole)
		users.DELETE("/user/:userid/role/:roleid", m.Handler.RemoveRole)

		users.POST("/user/avatar", m.Handler.UploadAvatar)
	}
}
