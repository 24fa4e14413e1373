package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/recipebook-backend/internal/data/repos"
	"github.com/yungbote/recipebook-backend/internal/dispatch"
	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/observable"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/realtime"
)

// RecipeSlots carries the latest result of every operation to whoever
// renders it.
type RecipeSlots struct {
	Recipes     *observable.Slot[[]*domain.Recipe]
	Recipe      *observable.Slot[*domain.Recipe]
	Ingredients *observable.Slot[[]string]
	Steps       *observable.Slot[[]domain.Step]
	Message     *observable.Slot[string]
}

func newRecipeSlots() *RecipeSlots {
	return &RecipeSlots{
		Recipes:     observable.NewSlot[[]*domain.Recipe](string(realtime.SSEEventRecipes)),
		Recipe:      observable.NewSlot[*domain.Recipe](string(realtime.SSEEventRecipe)),
		Ingredients: observable.NewSlot[[]string](string(realtime.SSEEventIngredients)),
		Steps:       observable.NewSlot[[]domain.Step](string(realtime.SSEEventSteps)),
		Message:     observable.NewSlot[string](string(realtime.SSEEventMessage)),
	}
}

// RecipeState is a point-in-time copy of every slot. Fields are nil until
// the first post.
type RecipeState struct {
	Recipes     []*domain.Recipe `json:"recipes"`
	Recipe      *domain.Recipe   `json:"recipe"`
	Ingredients []string         `json:"ingredients"`
	Steps       []domain.Step    `json:"steps"`
	Message     *string          `json:"message"`
}

// RecipeService validates user input and runs every repository call on the
// dispatch pool. Store failures never surface here: reads collapse to
// empty/nil and writes report optimistic success.
type RecipeService interface {
	Slots() *RecipeSlots
	State() RecipeState

	FetchRecipes(ctx context.Context) <-chan []*domain.Recipe
	FetchRecipeByID(ctx context.Context, id int64) <-chan *domain.Recipe
	FetchIngredientsByRecipeID(ctx context.Context, id int64) <-chan []string
	FetchStepsByRecipeID(ctx context.Context, id int64) <-chan []domain.Step

	AddRecipeWithIngredients(ctx context.Context, agg domain.Aggregate) *Receipt
	UpdateRecipeWithIngredients(ctx context.Context, agg domain.Aggregate) *Receipt
	DeleteRecipe(ctx context.Context, id int64) <-chan string
}

type recipeService struct {
	log   *logger.Logger
	repo  repos.RecipeRepo
	pool  *dispatch.Pool
	emit  SSEEmitter
	slots *RecipeSlots
}

func NewRecipeService(repo repos.RecipeRepo, pool *dispatch.Pool, emit SSEEmitter, baseLog *logger.Logger) RecipeService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if emit == nil {
		emit = nopEmitter{}
	}
	s := &recipeService{
		log:   baseLog.With("service", "RecipeService"),
		repo:  repo,
		pool:  pool,
		emit:  emit,
		slots: newRecipeSlots(),
	}
	relay(s.slots.Recipes, emit)
	relay(s.slots.Recipe, emit)
	relay(s.slots.Ingredients, emit)
	relay(s.slots.Steps, emit)
	relay(s.slots.Message, emit)
	return s
}

// relay forwards every post of slot to the realtime recipes channel.
func relay[T any](slot *observable.Slot[T], emit SSEEmitter) {
	event := realtime.SSEEvent(slot.Name())
	slot.Subscribe(func(v T) {
		emit.Emit(context.Background(), realtime.SSEMessage{
			Channel: realtime.ChannelRecipes,
			Event:   event,
			Data:    v,
		})
	})
}

func (s *recipeService) Slots() *RecipeSlots { return s.slots }

func (s *recipeService) State() RecipeState {
	var st RecipeState
	st.Recipes, _ = s.slots.Recipes.Value()
	st.Recipe, _ = s.slots.Recipe.Value()
	st.Ingredients, _ = s.slots.Ingredients.Value()
	st.Steps, _ = s.slots.Steps.Value()
	if msg, ok := s.slots.Message.Value(); ok {
		st.Message = &msg
	}
	return st
}

// submit runs fn on the pool, detached from the caller's cancellation.
func (s *recipeService) submit(ctx context.Context, fn func(ctx context.Context)) bool {
	bg := context.WithoutCancel(ctx)
	return s.pool.Submit(func() { fn(bg) })
}

func (s *recipeService) FetchRecipes(ctx context.Context) <-chan []*domain.Recipe {
	out := make(chan []*domain.Recipe, 1)
	ok := s.submit(ctx, func(ctx context.Context) {
		recipes, err := s.repo.FetchAll(ctx)
		if err != nil {
			s.log.Error("fetch recipes failed", "error", err)
			recipes = []*domain.Recipe{}
		}
		s.slots.Recipes.Post(recipes)
		out <- recipes
		close(out)
	})
	if !ok {
		out <- []*domain.Recipe{}
		close(out)
	}
	return out
}

func (s *recipeService) FetchRecipeByID(ctx context.Context, id int64) <-chan *domain.Recipe {
	out := make(chan *domain.Recipe, 1)
	ok := s.submit(ctx, func(ctx context.Context) {
		recipe, err := s.repo.GetByID(ctx, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.log.Info("recipe not found", "recipe_id", id)
		case err != nil:
			s.log.Error("fetch recipe failed", "recipe_id", id, "error", err)
			recipe = nil
		default:
			s.slots.Recipe.Post(recipe)
		}
		out <- recipe
		close(out)
	})
	if !ok {
		close(out)
	}
	return out
}

func (s *recipeService) FetchIngredientsByRecipeID(ctx context.Context, id int64) <-chan []string {
	out := make(chan []string, 1)
	ok := s.submit(ctx, func(ctx context.Context) {
		names, err := s.repo.FetchIngredients(ctx, id)
		if err != nil {
			s.log.Error("fetch ingredients failed", "recipe_id", id, "error", err)
			names = []string{}
		}
		s.slots.Ingredients.Post(names)
		out <- names
		close(out)
	})
	if !ok {
		out <- []string{}
		close(out)
	}
	return out
}

func (s *recipeService) FetchStepsByRecipeID(ctx context.Context, id int64) <-chan []domain.Step {
	out := make(chan []domain.Step, 1)
	ok := s.submit(ctx, func(ctx context.Context) {
		descs, err := s.repo.FetchSteps(ctx, id)
		if err != nil {
			s.log.Error("fetch steps failed", "recipe_id", id, "error", err)
			descs = nil
		}
		steps := domain.NumberSteps(id, descs)
		s.slots.Steps.Post(steps)
		out <- steps
		close(out)
	})
	if !ok {
		out <- []domain.Step{}
		close(out)
	}
	return out
}

func (s *recipeService) AddRecipeWithIngredients(ctx context.Context, agg domain.Aggregate) *Receipt {
	return s.write(ctx, agg, s.repo.Save)
}

func (s *recipeService) UpdateRecipeWithIngredients(ctx context.Context, agg domain.Aggregate) *Receipt {
	return s.write(ctx, agg, s.repo.Update)
}

type writeFunc func(ctx context.Context, agg domain.Aggregate) <-chan repos.WriteResult

func (s *recipeService) write(ctx context.Context, agg domain.Aggregate, do writeFunc) *Receipt {
	agg = prepareAggregate(agg)
	if !writable(agg) {
		rec := newReceipt(false)
		s.slots.Message.Post(MsgFieldsEmpty)
		rec.post(MsgFieldsEmpty, nil)
		rec.settle(repos.WriteResult{RecipeID: agg.Recipe.ID, Err: domain.ErrInvalidRecipe})
		return rec
	}

	rec := newReceipt(true)
	ok := s.submit(ctx, func(ctx context.Context) {
		rec.track(do(ctx, agg))
		// optimistic: the write is issued, not yet acknowledged
		s.slots.Message.Post(MsgNoProblems)
		rec.post(MsgNoProblems, nil)
	})
	if !ok {
		s.log.Warn("recipe write not dispatched", "recipe_id", agg.Recipe.ID)
		rec.post("", ErrNotIssued)
		rec.settle(repos.WriteResult{RecipeID: agg.Recipe.ID, Err: ErrNotIssued})
	}
	return rec
}

func (s *recipeService) DeleteRecipe(ctx context.Context, id int64) <-chan string {
	out := make(chan string, 1)
	ok := s.submit(ctx, func(ctx context.Context) {
		msg := MsgDeleteFailed
		if s.repo.Delete(ctx, id) {
			msg = MsgDeleted
		}
		s.slots.Message.Post(msg)
		out <- msg
		close(out)
	})
	if !ok {
		out <- MsgDeleteFailed
		close(out)
	}
	return out
}

// SearchRecipes keeps the recipes whose name contains query, ignoring case.
// A blank query keeps everything.
func SearchRecipes(recipes []*domain.Recipe, query string) []*domain.Recipe {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return recipes
	}
	out := make([]*domain.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r != nil && strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}
