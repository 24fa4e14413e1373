package app

import (
	"github.com/yungbote/recipebook-backend/internal/data/repos"
	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

type Repos struct {
	Writer *repos.RecipeWriter
	Recipe repos.RecipeRepo
}

func wireRepos(store docstore.Store, cfg Config, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	writer := repos.NewRecipeWriter(store, cfg.Store.Root, log)
	return Repos{
		Writer: writer,
		Recipe: repos.NewRecipeRepo(store, writer, log),
	}
}
