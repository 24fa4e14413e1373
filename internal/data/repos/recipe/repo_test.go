package recipe

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/recipebook-backend/internal/data/repos/testutil"
	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/domain"
)

func newTestRepo(t *testing.T, store docstore.Store) Repo {
	t.Helper()
	w := NewWriter(store, DefaultRoot, testutil.Logger(t))
	t.Cleanup(w.Close)
	return NewRecipeRepo(store, w, testutil.Logger(t))
}

func awaitWrite(t *testing.T, ch <-chan WriteResult) WriteResult {
	t.Helper()
	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("write failed: %v", res.Err)
		}
		return res
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for write")
	}
	return WriteResult{}
}

func TestRecipeRepoRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		store func(testing.TB) docstore.Store
	}{
		{"memory", testutil.Store},
		{"postgres", testutil.PostgresStore},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newTestRepo(t, tc.store(t))

			agg := testutil.PastaAggregate(7)
			// stale ordinals must not leak into the stored document
			agg.Steps[0].Number, agg.Steps[1].Number = 9, 4
			awaitWrite(t, repo.Save(ctx, agg))

			steps, err := repo.FetchSteps(ctx, 7)
			if err != nil {
				t.Fatalf("FetchSteps: %v", err)
			}
			if want := []string{"Boil water", "Add pasta"}; !reflect.DeepEqual(steps, want) {
				t.Fatalf("steps: want=%v got=%v", want, steps)
			}
			ingredients, err := repo.FetchIngredients(ctx, 7)
			if err != nil {
				t.Fatalf("FetchIngredients: %v", err)
			}
			if want := []string{"Salt", "Pepper"}; !reflect.DeepEqual(ingredients, want) {
				t.Fatalf("ingredients: want=%v got=%v", want, ingredients)
			}

			got, err := repo.GetByID(ctx, 7)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			want := &domain.Recipe{ID: 7, Name: "Pasta", PrepTime: "20 min", Description: "Quick dinner", IngredientCount: 2, StepCount: 2}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("recipe: want=%+v got=%+v", want, got)
			}
		})
	}
}

func TestRecipeRepoDocumentShape(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	repo := newTestRepo(t, store)
	awaitWrite(t, repo.Save(ctx, testutil.PastaAggregate(3)))

	snap, err := store.Get(ctx, "recipes/3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var raw map[string]any
	if err := snap.Decode(&raw); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for _, key := range []string{"name", "prepTime", "description", "ingredientCount", "stepCount", "ingredients", "steps"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("document missing %q: %v", key, raw)
		}
	}
	if _, ok := raw["id"]; ok {
		t.Fatalf("id must live in the path, not the body")
	}
	steps := snap.Child("steps").Children()
	for i, st := range steps {
		var s stepDocument
		if err := st.Decode(&s); err != nil {
			t.Fatalf("decode step: %v", err)
		}
		if s.StepNumber != i+1 {
			t.Fatalf("step %d: stepNumber=%d", i, s.StepNumber)
		}
	}
}

func TestRecipeRepoFullReplace(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, testutil.Store(t))

	awaitWrite(t, repo.Save(ctx, testutil.PastaAggregate(1)))
	second := domain.NewAggregate(
		domain.Recipe{ID: 1, Name: "Pasta", PrepTime: "20 min", Description: "Quick dinner"},
		[]string{"Basil"},
		[]string{"Boil water"},
	)
	awaitWrite(t, repo.Update(ctx, second))

	ingredients, err := repo.FetchIngredients(ctx, 1)
	if err != nil {
		t.Fatalf("FetchIngredients: %v", err)
	}
	if want := []string{"Basil"}; !reflect.DeepEqual(ingredients, want) {
		t.Fatalf("ingredients: want=%v got=%v", want, ingredients)
	}
	got, err := repo.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IngredientCount != 1 || got.StepCount != 1 {
		t.Fatalf("counts not rewritten: %+v", got)
	}
}

func TestRecipeRepoSaveAllocatesID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, testutil.Store(t))

	awaitWrite(t, repo.Save(ctx, testutil.PastaAggregate(4)))
	res := awaitWrite(t, repo.Save(ctx, testutil.PastaAggregate(0)))
	if res.RecipeID != 5 {
		t.Fatalf("allocated id: want=5 got=%d", res.RecipeID)
	}
	if _, err := repo.GetByID(ctx, res.RecipeID); err != nil {
		t.Fatalf("GetByID(%d): %v", res.RecipeID, err)
	}
}

func TestRecipeRepoGetByIDNotFound(t *testing.T) {
	repo := newTestRepo(t, testutil.Store(t))
	if _, err := repo.GetByID(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), 0); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID got %v", err)
	}
}

func TestRecipeRepoFetchAllSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	repo := newTestRepo(t, store)

	awaitWrite(t, repo.Save(ctx, testutil.PastaAggregate(1)))
	testutil.SeedNode(t, ctx, store, "recipes/2", map[string]any{"name": map[string]any{"nested": true}})
	testutil.SeedNode(t, ctx, store, "recipes/draft", map[string]any{"name": "No id"})

	all, err := repo.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 1 || all[0].ID != 1 || all[0].Name != "Pasta" {
		t.Fatalf("FetchAll: %+v", all)
	}
}

func TestRecipeRepoFetchAllEmpty(t *testing.T) {
	repo := newTestRepo(t, testutil.Store(t))
	all, err := repo.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("want empty non-nil list got %#v", all)
	}
}

func TestRecipeRepoZeroStepsIsEmptyList(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	repo := newTestRepo(t, store)

	agg := domain.NewAggregate(domain.Recipe{ID: 2, Name: "Toast", PrepTime: "2 min", Description: "x"}, []string{"Bread"}, nil)
	awaitWrite(t, repo.Save(ctx, agg))

	steps, err := repo.FetchSteps(ctx, 2)
	if err != nil {
		t.Fatalf("FetchSteps: %v", err)
	}
	if steps == nil || len(steps) != 0 {
		t.Fatalf("want empty list got %#v", steps)
	}
}

func TestRecipeRepoFetchStepsSkipsEntriesWithoutDescription(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	repo := newTestRepo(t, store)

	testutil.SeedNode(t, ctx, store, "recipes/5/steps", []any{
		map[string]any{"stepNumber": 1, "description": "Chop"},
		map[string]any{"stepNumber": 2},
		map[string]any{"stepNumber": 3, "description": "Fry"},
	})
	steps, err := repo.FetchSteps(ctx, 5)
	if err != nil {
		t.Fatalf("FetchSteps: %v", err)
	}
	if want := []string{"Chop", "Fry"}; !reflect.DeepEqual(steps, want) {
		t.Fatalf("steps: want=%v got=%v", want, steps)
	}
}

func TestRecipeRepoDelete(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	repo := newTestRepo(t, store)

	awaitWrite(t, repo.Save(ctx, testutil.PastaAggregate(1)))
	if !repo.Delete(ctx, 1) {
		t.Fatalf("Delete returned false")
	}
	if !repo.Delete(ctx, 999) {
		t.Fatalf("deleting a missing recipe should still report success")
	}
	if repo.Delete(ctx, -1) {
		t.Fatalf("invalid id should not be issued")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := repo.GetByID(ctx, 1)
		if errors.Is(err, domain.ErrNotFound) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recipe still present after delete: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
