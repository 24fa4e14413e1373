package recipe

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

const DefaultRoot = "recipes"

var ErrWriterClosed = errors.New("recipe writer closed")

// WriteResult is delivered once per Write. Callers that only want
// fire-and-forget semantics may drop the channel.
type WriteResult struct {
	RecipeID int64
	Err      error
}

// Writer is the only component that mutates recipes/{id}. Every call
// returns at once; the store call runs detached from the caller's
// cancellation and failures are logged, never retried.
type Writer struct {
	store docstore.Store
	root  string
	log   *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewWriter(store docstore.Store, root string, baseLog *logger.Logger) *Writer {
	if root == "" {
		root = DefaultRoot
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Writer{
		store: store,
		root:  root,
		log:   baseLog.With("component", "RecipeWriter"),
	}
}

func (w *Writer) Root() string { return w.root }

func (w *Writer) path(id int64) string {
	return docstore.JoinPath(w.root, strconv.FormatInt(id, 10))
}

// Write fully replaces recipes/{recipe.ID}. A zero id asks the store for a
// fresh key first; the chosen id is reported in the result.
func (w *Writer) Write(ctx context.Context, r domain.Recipe, ingredients []domain.Ingredient, steps []domain.Step) <-chan WriteResult {
	out := make(chan WriteResult, 1)
	if r.ID < 0 {
		out <- WriteResult{RecipeID: r.ID, Err: domain.ErrInvalidID}
		close(out)
		return out
	}
	doc := encodeDocument(r, ingredients, steps)
	if !w.begin() {
		out <- WriteResult{RecipeID: r.ID, Err: ErrWriterClosed}
		close(out)
		return out
	}
	go func() {
		defer w.wg.Done()
		defer close(out)
		wctx := context.WithoutCancel(ctx)

		id := r.ID
		if id == 0 {
			next, err := w.store.NextKey(wctx, w.root)
			if err != nil {
				w.log.Error("recipe id allocation failed", "error", err)
				out <- WriteResult{Err: fmt.Errorf("allocate recipe id: %w", err)}
				return
			}
			id = next
		}
		if err := w.store.Set(wctx, w.path(id), doc); err != nil {
			w.log.Error("recipe write failed", "recipe_id", id, "error", err)
			out <- WriteResult{RecipeID: id, Err: err}
			return
		}
		w.log.Debug("recipe written", "recipe_id", id, "ingredients", doc.IngredientCount, "steps", doc.StepCount)
		out <- WriteResult{RecipeID: id}
	}()
	return out
}

// Delete removes the whole recipes/{id} subtree. The returned error only
// reports that the removal could not be issued; the channel carries the
// store's answer.
func (w *Writer) Delete(ctx context.Context, id int64) (<-chan error, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	if !w.begin() {
		return nil, ErrWriterClosed
	}
	out := make(chan error, 1)
	go func() {
		defer w.wg.Done()
		defer close(out)
		err := w.store.Remove(context.WithoutCancel(ctx), w.path(id))
		if err != nil {
			w.log.Error("recipe delete failed", "recipe_id", id, "error", err)
		}
		out <- err
	}()
	return out, nil
}

func (w *Writer) begin() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	w.wg.Add(1)
	return true
}

// Wait blocks until every issued write and delete has finished.
func (w *Writer) Wait() { w.wg.Wait() }

// Close rejects new requests and drains in-flight ones.
func (w *Writer) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.wg.Wait()
}
