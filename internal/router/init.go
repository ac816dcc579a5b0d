package router

import (
	"context"

	"github.com/userhub/userhub/internal/application"
	"github.com/userhub/userhub/internal/container"
	pginfra "github.com/userhub/userhub/internal/infrastructure/postgres"
	handlers "github.com/userhub/userhub/internal/interface/http"
	"github.com/userhub/userhub/internal/router/modules"
	"github.com/userhub/userhub/pkg/helpers"
)

// rabbitPublisher adapts the shared RabbitMQ publisher to the service's
// Publisher port.
type rabbitPublisher struct {
	pub *helpers.RabbitPublisher
}

func (p rabbitPublisher) Publish(ctx context.Context, body any) error {
	return p.pub.PublishJSON(ctx, body)
}

func buildUserService() *application.Service {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	svc := application.NewService(
		pginfra.NewUserRepository(pool),
		pginfra.NewRoleRepository(pool),
		pginfra.NewTxManager(pool),
		container.GetLogger(),
	)
	if pub := container.GetEventsPub(); pub != nil {
		svc.Events = rabbitPublisher{pub: pub}
	}
	if pub := container.GetMailPub(); pub != nil {
		svc.Mail = rabbitPublisher{pub: pub}
	}
	svc.ES = container.GetES()
	svc.ESUsersIndex = cfg.ESUsersIndex
	svc.GCS = container.GetGCS()
	svc.GCSBucket = cfg.GCSBucket
	return svc
}

// InitModules wires all feature modules into the router registry. Called
// once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	userSvc := buildUserService()
	authSvc := application.NewAuthService(
		pginfra.NewUserRepository(pool),
		container.GetJWT(),
		container.GetRedis(),
		logger,
	)

	userHandler := handlers.NewUserHandler(userSvc, logger)
	roleHandler := handlers.NewRoleHandler(pginfra.NewRoleRepository(pool), logger)
	authHandler := handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewRoleModule(roleHandler, container.GetJWT()))
	r.Add(modules.NewDebugModule())
}
