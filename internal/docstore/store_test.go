package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func newTestMemoryStore(t *testing.T) Store {
	t.Helper()
	s := NewMemoryStore(mustTestLogger(t))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, "test:", mustTestLogger(t))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestSQLStore(t *testing.T) Store {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s, err := NewSQLStore(db, mustTestLogger(t))
	if err != nil {
		t.Fatalf("NewSQLStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var backends = []struct {
	name string
	open func(t *testing.T) Store
}{
	{"memory", newTestMemoryStore},
	{"redis", newTestRedisStore},
	{"sql", newTestSQLStore},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

func pastaDoc() map[string]any {
	return map[string]any{
		"name":            "Pasta",
		"prepTime":        "20 min",
		"description":     "Quick dinner",
		"ingredientCount": 2,
		"stepCount":       2,
		"ingredients":     []map[string]any{{"name": "Salt"}, {"name": "Pepper"}},
		"steps": []map[string]any{
			{"stepNumber": 1, "description": "Boil water"},
			{"stepNumber": 2, "description": "Add pasta"},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Set(ctx, "recipes/1", pastaDoc()); err != nil {
			t.Fatalf("Set: %v", err)
		}

		snap, err := s.Get(ctx, "recipes/1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !snap.Exists() || snap.Key() != "1" {
			t.Fatalf("snapshot: exists=%v key=%q", snap.Exists(), snap.Key())
		}
		if name, ok := snap.String("name"); !ok || name != "Pasta" {
			t.Fatalf("name: want=Pasta got=%q ok=%v", name, ok)
		}

		steps := snap.Child("steps").Children()
		if len(steps) != 2 {
			t.Fatalf("steps: want=2 got=%d", len(steps))
		}
		if d, _ := steps[0].String("description"); d != "Boil water" {
			t.Fatalf("first step: got=%q", d)
		}
		if d, _ := steps[1].String("description"); d != "Add pasta" {
			t.Fatalf("second step: got=%q", d)
		}

		var decoded struct {
			Name            string `json:"name"`
			IngredientCount int    `json:"ingredientCount"`
		}
		if err := snap.Decode(&decoded); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if decoded.Name != "Pasta" || decoded.IngredientCount != 2 {
			t.Fatalf("decoded: %+v", decoded)
		}

		coll, err := s.Get(ctx, "recipes")
		if err != nil {
			t.Fatalf("Get collection: %v", err)
		}
		children := coll.Children()
		if len(children) != 1 || children[0].Key() != "1" {
			t.Fatalf("collection children: %+v", children)
		}
	})
}

func TestStoreSetReplacesWholeValue(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Set(ctx, "recipes/1", pastaDoc()); err != nil {
			t.Fatalf("Set: %v", err)
		}
		shorter := map[string]any{
			"name":        "Pasta",
			"ingredients": []map[string]any{{"name": "Salt"}},
		}
		if err := s.Set(ctx, "recipes/1", shorter); err != nil {
			t.Fatalf("Set: %v", err)
		}
		snap, err := s.Get(ctx, "recipes/1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got := len(snap.Child("ingredients").Children()); got != 1 {
			t.Fatalf("ingredients after replace: want=1 got=%d", got)
		}
		if snap.Child("steps").Exists() {
			t.Fatalf("steps should be gone after full replace")
		}
	})
}

func TestStoreNestedSetAndRemove(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Set(ctx, "recipes/1", pastaDoc()); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := s.Set(ctx, "recipes/1/name", "Soup"); err != nil {
			t.Fatalf("nested Set: %v", err)
		}
		if err := s.Remove(ctx, "recipes/1/steps"); err != nil {
			t.Fatalf("nested Remove: %v", err)
		}
		snap, err := s.Get(ctx, "recipes/1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if name, _ := snap.String("name"); name != "Soup" {
			t.Fatalf("name: want=Soup got=%q", name)
		}
		if snap.Child("steps").Exists() {
			t.Fatalf("steps should be removed")
		}
		if got := len(snap.Child("ingredients").Children()); got != 2 {
			t.Fatalf("ingredients untouched: want=2 got=%d", got)
		}
	})
}

func TestStoreRemoveMissingNodeSucceeds(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Remove(ctx, "recipes/999"); err != nil {
			t.Fatalf("Remove missing: %v", err)
		}
		snap, err := s.Get(ctx, "recipes/999")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if snap.Exists() {
			t.Fatalf("node should not exist")
		}
	})
}

func TestStoreEmptyListLeavesNoNode(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		doc := map[string]any{"name": "Toast", "steps": []map[string]any{}}
		if err := s.Set(ctx, "recipes/2", doc); err != nil {
			t.Fatalf("Set: %v", err)
		}
		snap, err := s.Get(ctx, "recipes/2/steps")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if snap.Exists() || len(snap.Children()) != 0 {
			t.Fatalf("empty list should leave no node")
		}
	})
}

func TestStoreChildOrdering(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tree := map[string]any{
			"10":   map[string]any{"name": "ten"},
			"2":    map[string]any{"name": "two"},
			"beta": map[string]any{"name": "b"},
			"alfa": map[string]any{"name": "a"},
		}
		if err := s.Set(ctx, "recipes", tree); err != nil {
			t.Fatalf("Set collection: %v", err)
		}
		snap, err := s.Get(ctx, "recipes")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		want := []string{"2", "10", "alfa", "beta"}
		got := snap.Children()
		if len(got) != len(want) {
			t.Fatalf("children: want=%d got=%d", len(want), len(got))
		}
		for i, k := range want {
			if got[i].Key() != k {
				t.Fatalf("child %d: want=%s got=%s", i, k, got[i].Key())
			}
		}
	})
}

func TestStoreNextKeySkipsUsedKeys(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, p := range []string{"recipes/1", "recipes/2"} {
			if err := s.Set(ctx, p, map[string]any{"name": p}); err != nil {
				t.Fatalf("Set %s: %v", p, err)
			}
		}
		first, err := s.NextKey(ctx, "recipes")
		if err != nil {
			t.Fatalf("NextKey: %v", err)
		}
		second, err := s.NextKey(ctx, "recipes")
		if err != nil {
			t.Fatalf("NextKey: %v", err)
		}
		if first != 3 || second != 4 {
			t.Fatalf("keys: want=3,4 got=%d,%d", first, second)
		}
	})
}

func TestStoreRejectsEmptyPath(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if _, err := s.Get(ctx, "/"); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Get: want ErrInvalidPath got %v", err)
		}
		if err := s.Set(ctx, "", "x"); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Set: want ErrInvalidPath got %v", err)
		}
	})
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore(nil)
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Ping after Close: want ErrClosed got %v", err)
	}
	if _, err := s.Get(context.Background(), "recipes"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Get after Close: want ErrClosed got %v", err)
	}
}

func TestMemoryStoreHonorsCanceledContext(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, "recipes/1", map[string]any{"name": "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Set: want context.Canceled got %v", err)
	}
}
