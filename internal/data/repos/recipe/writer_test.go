package recipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/recipebook-backend/internal/data/repos/testutil"
	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/domain"
)

// failingStore rejects every write.
type failingStore struct {
	docstore.Store
	err error
}

func (f failingStore) Set(context.Context, string, any) error { return f.err }
func (f failingStore) Remove(context.Context, string) error   { return f.err }

func TestWriterSurvivesCallerCancellation(t *testing.T) {
	store := testutil.Store(t)
	w := NewWriter(store, DefaultRoot, testutil.Logger(t))

	ctx, cancel := context.WithCancel(context.Background())
	agg := testutil.PastaAggregate(8)
	ch := w.Write(ctx, agg.Recipe, agg.Ingredients, agg.Steps)
	cancel()
	w.Close()

	res := <-ch
	if res.Err != nil || res.RecipeID != 8 {
		t.Fatalf("write result: %+v", res)
	}
	snap, err := store.Get(context.Background(), "recipes/8")
	if err != nil || !snap.Exists() {
		t.Fatalf("recipe not stored: exists=%v err=%v", snap.Exists(), err)
	}
}

func TestWriterReportsStoreFailure(t *testing.T) {
	boom := errors.New("boom")
	w := NewWriter(failingStore{Store: testutil.Store(t), err: boom}, DefaultRoot, testutil.Logger(t))
	t.Cleanup(w.Close)

	agg := testutil.PastaAggregate(1)
	select {
	case res := <-w.Write(context.Background(), agg.Recipe, agg.Ingredients, agg.Steps):
		if !errors.Is(res.Err, boom) {
			t.Fatalf("want boom got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out")
	}

	done, err := w.Delete(context.Background(), 1)
	if err != nil {
		t.Fatalf("Delete should be issued: %v", err)
	}
	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("delete outcome: want boom got %v", err)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	w := NewWriter(testutil.Store(t), DefaultRoot, testutil.Logger(t))
	w.Close()

	agg := testutil.PastaAggregate(1)
	if res := <-w.Write(context.Background(), agg.Recipe, agg.Ingredients, agg.Steps); !errors.Is(res.Err, ErrWriterClosed) {
		t.Fatalf("Write after Close: %v", res.Err)
	}
	if _, err := w.Delete(context.Background(), 1); !errors.Is(err, ErrWriterClosed) {
		t.Fatalf("Delete after Close: %v", err)
	}
	if _, err := w.Delete(context.Background(), 0); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("Delete(0): %v", err)
	}
}
