package app

import (
	"github.com/yungbote/recipebook-backend/internal/dispatch"
	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/services"
)

type Services struct {
	Recipes      services.RecipeService
	Notifier     services.RecipeNotifier
	Connectivity services.Connectivity
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, pool *dispatch.Pool, emit services.SSEEmitter, store docstore.Store) Services {
	log.Info("Wiring services...")
	return Services{
		Recipes:      services.NewRecipeService(reposet.Recipe, pool, emit, log),
		Notifier:     services.NewRecipeNotifier(emit, log),
		Connectivity: services.NewConnectivity(store, cfg.ConnectivityTimeout, log),
	}
}
