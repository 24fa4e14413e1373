package recipe

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

// Repo is the read/write entry point for recipes. Reads block and report
// domain.ErrNotFound or a wrapped store error; writes go through Writer.
type Repo interface {
	FetchAll(ctx context.Context) ([]*domain.Recipe, error)
	GetByID(ctx context.Context, id int64) (*domain.Recipe, error)
	FetchSteps(ctx context.Context, id int64) ([]string, error)
	FetchIngredients(ctx context.Context, id int64) ([]string, error)
	Save(ctx context.Context, agg domain.Aggregate) <-chan WriteResult
	Update(ctx context.Context, agg domain.Aggregate) <-chan WriteResult
	Delete(ctx context.Context, id int64) bool
}

type recipeRepo struct {
	store  docstore.Store
	writer *Writer
	log    *logger.Logger
}

func NewRecipeRepo(store docstore.Store, writer *Writer, baseLog *logger.Logger) Repo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if writer == nil {
		writer = NewWriter(store, DefaultRoot, baseLog)
	}
	return &recipeRepo{
		store:  store,
		writer: writer,
		log:    baseLog.With("repo", "RecipeRepo"),
	}
}

func (r *recipeRepo) recipePath(id int64, rest ...string) string {
	parts := append([]string{r.writer.Root(), strconv.FormatInt(id, 10)}, rest...)
	return docstore.JoinPath(parts...)
}

func (r *recipeRepo) FetchAll(ctx context.Context) ([]*domain.Recipe, error) {
	snap, err := r.store.Get(ctx, r.writer.Root())
	if err != nil {
		return nil, fmt.Errorf("fetch recipes: %w", err)
	}
	children := snap.Children()
	out := make([]*domain.Recipe, 0, len(children))
	for _, child := range children {
		id, err := domain.ParseID(child.Key())
		if err != nil {
			r.log.Warn("skipping recipe with non-integer key", "key", child.Key())
			continue
		}
		var doc document
		if err := child.Decode(&doc); err != nil {
			r.log.Warn("skipping malformed recipe", "recipe_id", id, "error", err)
			continue
		}
		out = append(out, doc.recipe(id))
	}
	return out, nil
}

func (r *recipeRepo) GetByID(ctx context.Context, id int64) (*domain.Recipe, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	snap, err := r.store.Get(ctx, r.recipePath(id))
	if err != nil {
		return nil, fmt.Errorf("get recipe %d: %w", id, err)
	}
	if !snap.Exists() {
		return nil, domain.ErrNotFound
	}
	var doc document
	if err := snap.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode recipe %d: %w", id, err)
	}
	return doc.recipe(id), nil
}

func (r *recipeRepo) FetchSteps(ctx context.Context, id int64) ([]string, error) {
	return r.fetchField(ctx, id, "steps", "description")
}

func (r *recipeRepo) FetchIngredients(ctx context.Context, id int64) ([]string, error) {
	return r.fetchField(ctx, id, "ingredients", "name")
}

// fetchField reads one string field from every child of recipes/{id}/list
// in store order. Children without it are skipped, not defaulted.
func (r *recipeRepo) fetchField(ctx context.Context, id int64, list, field string) ([]string, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	snap, err := r.store.Get(ctx, r.recipePath(id, list))
	if err != nil {
		return nil, fmt.Errorf("fetch %s for recipe %d: %w", list, id, err)
	}
	children := snap.Children()
	out := make([]string, 0, len(children))
	for _, child := range children {
		v, ok := child.String(field)
		if !ok {
			r.log.Debug("skipping entry without "+field, "recipe_id", id, "key", child.Key())
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *recipeRepo) Save(ctx context.Context, agg domain.Aggregate) <-chan WriteResult {
	return r.writer.Write(ctx, agg.Recipe, agg.Ingredients, agg.Steps)
}

// Update is the same full-replace upsert as Save.
func (r *recipeRepo) Update(ctx context.Context, agg domain.Aggregate) <-chan WriteResult {
	return r.writer.Write(ctx, agg.Recipe, agg.Ingredients, agg.Steps)
}

// Delete reports whether the removal was issued, not whether it landed.
func (r *recipeRepo) Delete(ctx context.Context, id int64) bool {
	if _, err := r.writer.Delete(ctx, id); err != nil {
		r.log.Warn("recipe delete not issued", "recipe_id", id, "error", err)
		return false
	}
	return true
}
