package app

import (
	"github.com/yungbote/recipebook-backend/internal/http"
	httpH "github.com/yungbote/recipebook-backend/internal/http/handlers"
	"github.com/yungbote/recipebook-backend/internal/observability"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Recipe     *httpH.RecipeHandler
	Validation *httpH.ValidationHandler
	Realtime   *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(services.Connectivity),
		Recipe: httpH.NewRecipeHandlerWithDeps(httpH.RecipeHandlerDeps{
			Log:     log,
			Recipes: services.Recipes,
			Metrics: metrics,
		}),
		Validation: httpH.NewValidationHandler(),
		Realtime:   httpH.NewRealtimeHandler(log, sseHub),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		HealthHandler:     handlers.Health,
		RecipeHandler:     handlers.Recipe,
		ValidationHandler: handlers.Validation,
		RealtimeHandler:   handlers.Realtime,
	})
}
