package testutil

import (
	"context"
	"testing"

	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/domain"
)

// PastaAggregate is the canonical two-ingredient, two-step recipe.
func PastaAggregate(id int64) domain.Aggregate {
	return domain.NewAggregate(
		domain.Recipe{ID: id, Name: "Pasta", PrepTime: "20 min", Description: "Quick dinner"},
		[]string{"Salt", "Pepper"},
		[]string{"Boil water", "Add pasta"},
	)
}

// SeedNode writes a raw value straight into the store, bypassing the
// recipe writer. Used to plant malformed nodes.
func SeedNode(tb testing.TB, ctx context.Context, s docstore.Store, path string, value any) {
	tb.Helper()
	if err := s.Set(ctx, path, value); err != nil {
		tb.Fatalf("seed %s: %v", path, err)
	}
}
