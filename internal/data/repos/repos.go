package repos

import (
	"github.com/yungbote/recipebook-backend/internal/data/repos/recipe"
	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

type RecipeRepo = recipe.Repo
type RecipeWriter = recipe.Writer
type WriteResult = recipe.WriteResult

func NewRecipeWriter(store docstore.Store, root string, log *logger.Logger) *RecipeWriter {
	return recipe.NewWriter(store, root, log)
}

func NewRecipeRepo(store docstore.Store, writer *RecipeWriter, log *logger.Logger) RecipeRepo {
	return recipe.NewRecipeRepo(store, writer, log)
}
