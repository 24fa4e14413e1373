// Package seed loads recipes from a YAML fixture file through the recipe
// service so every entry passes the same validation as user input.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/services"
)

type fileRecipe struct {
	ID          int64    `yaml:"id"`
	Name        string   `yaml:"name"`
	PrepTime    string   `yaml:"prepTime"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Ingredients []string `yaml:"ingredients"`
	Steps       []string `yaml:"steps"`
}

type file struct {
	Recipes []fileRecipe `yaml:"recipes"`
}

// Parse decodes a seed document. An id of zero lets the store assign one.
func Parse(raw []byte) ([]domain.Aggregate, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]domain.Aggregate, 0, len(f.Recipes))
	for i, r := range f.Recipes {
		if r.ID < 0 {
			return nil, fmt.Errorf("recipe %d: %w", i, domain.ErrInvalidID)
		}
		out = append(out, domain.NewAggregate(domain.Recipe{
			ID:          r.ID,
			Name:        r.Name,
			PrepTime:    r.PrepTime,
			Description: r.Description,
			Image:       r.Image,
		}, r.Ingredients, r.Steps))
	}
	return out, nil
}

func LoadFile(path string) ([]domain.Aggregate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

type Result struct {
	Written  int
	Rejected int
	Failed   int
	IDs      []int64
}

// Run submits every recipe and waits up to timeout for each write to be
// confirmed by the store. Recipes that fail validation are counted and
// skipped.
func Run(ctx context.Context, svc services.RecipeService, recipes []domain.Aggregate, timeout time.Duration, log *logger.Logger) Result {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "Seed")
	var res Result
	for _, agg := range recipes {
		var rec *services.Receipt
		if agg.Recipe.ID == 0 {
			rec = svc.AddRecipeWithIngredients(ctx, agg)
		} else {
			rec = svc.UpdateRecipeWithIngredients(ctx, agg)
		}
		if !rec.Accepted() {
			log.Warn("seed recipe rejected", "name", agg.Recipe.Name)
			res.Rejected++
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, timeout)
		id, err := rec.Confirm(wctx)
		cancel()
		if err != nil {
			log.Error("seed recipe not written", "name", agg.Recipe.Name, "error", err)
			res.Failed++
			continue
		}
		log.Info("seed recipe written", "name", agg.Recipe.Name, "recipe_id", id)
		res.Written++
		res.IDs = append(res.IDs, id)
	}
	return res
}
