package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/http/response"
	"github.com/yungbote/recipebook-backend/internal/observability"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/services"
)

type RecipeHandler struct {
	log     *logger.Logger
	recipes services.RecipeService
	metrics *observability.Metrics
}

type RecipeHandlerDeps struct {
	Log     *logger.Logger
	Recipes services.RecipeService
	Metrics *observability.Metrics
}

func NewRecipeHandlerWithDeps(deps RecipeHandlerDeps) *RecipeHandler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &RecipeHandler{
		log:     log.With("handler", "RecipeHandler"),
		recipes: deps.Recipes,
		metrics: deps.Metrics,
	}
}

type recipeRequest struct {
	Name        string   `json:"name"`
	PrepTime    string   `json:"prepTime"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

func (r recipeRequest) aggregate(id int64) domain.Aggregate {
	return domain.NewAggregate(domain.Recipe{
		ID:          id,
		Name:        r.Name,
		PrepTime:    r.PrepTime,
		Description: r.Description,
		Image:       r.Image,
	}, r.Ingredients, r.Steps)
}

// await reads one result from ch, giving up when the request goes away.
func await[T any](ctx context.Context, ch <-chan T) (T, bool) {
	select {
	case v, ok := <-ch:
		return v, ok
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

func recipeID(c *gin.Context) (int64, bool) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_recipe_id", err)
		return 0, false
	}
	return id, true
}

func waitRequested(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	return err == nil && v
}

// GET /api/recipes?q=
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, ok := await(c.Request.Context(), h.recipes.FetchRecipes(c.Request.Context()))
	if !ok {
		response.RespondError(c, http.StatusServiceUnavailable, "request_canceled", c.Request.Context().Err())
		return
	}
	if recipes == nil {
		recipes = []*domain.Recipe{}
	}
	response.RespondOK(c, gin.H{"recipes": services.SearchRecipes(recipes, c.Query("q"))})
}

// GET /api/recipes/:id
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	recipe, _ := await(c.Request.Context(), h.recipes.FetchRecipeByID(c.Request.Context(), id))
	if recipe == nil {
		response.RespondAPIError(c, domain.ErrNotFound)
		return
	}
	response.RespondOK(c, gin.H{"recipe": recipe})
}

// GET /api/recipes/:id/ingredients
func (h *RecipeHandler) ListIngredients(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	names, _ := await(c.Request.Context(), h.recipes.FetchIngredientsByRecipeID(c.Request.Context(), id))
	if names == nil {
		names = []string{}
	}
	response.RespondOK(c, gin.H{"ingredients": names})
}

// GET /api/recipes/:id/steps
func (h *RecipeHandler) ListSteps(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	steps, _ := await(c.Request.Context(), h.recipes.FetchStepsByRecipeID(c.Request.Context(), id))
	if steps == nil {
		steps = []domain.Step{}
	}
	response.RespondOK(c, gin.H{"steps": steps})
}

// POST /api/recipes[?wait=true]
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec := h.recipes.AddRecipeWithIngredients(c.Request.Context(), req.aggregate(0))
	h.respondWrite(c, "add", rec, http.StatusCreated)
}

// PUT /api/recipes/:id[?wait=true]
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rec := h.recipes.UpdateRecipeWithIngredients(c.Request.Context(), req.aggregate(id))
	h.respondWrite(c, "update", rec, http.StatusOK)
}

func (h *RecipeHandler) respondWrite(c *gin.Context, kind string, rec *services.Receipt, confirmed int) {
	ctx := c.Request.Context()
	msg, err := rec.Message(ctx)
	switch {
	case !rec.Accepted():
		h.metrics.ObserveRecipeWrite(kind, "rejected")
		response.RespondError(c, http.StatusBadRequest, "invalid_recipe", errors.New(msg))
		return
	case err != nil:
		h.metrics.ObserveRecipeWrite(kind, "not_issued")
		response.RespondError(c, http.StatusServiceUnavailable, "write_not_issued", err)
		return
	}

	if !waitRequested(c) {
		h.metrics.ObserveRecipeWrite(kind, "accepted")
		c.JSON(http.StatusAccepted, gin.H{"message": msg})
		return
	}

	id, err := rec.Confirm(ctx)
	if err != nil {
		h.log.Warn("recipe write not confirmed", "kind", kind, "error", err)
		h.metrics.ObserveRecipeWrite(kind, "failed")
		response.RespondError(c, http.StatusBadGateway, "store_write_failed", err)
		return
	}
	h.metrics.ObserveRecipeWrite(kind, "confirmed")
	c.JSON(confirmed, gin.H{"id": id, "message": msg})
}

// DELETE /api/recipes/:id
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	msg, _ := await(c.Request.Context(), h.recipes.DeleteRecipe(c.Request.Context(), id))
	if msg != services.MsgDeleted {
		h.metrics.ObserveRecipeWrite("delete", "failed")
		response.RespondError(c, http.StatusServiceUnavailable, "delete_failed", errors.New(services.MsgDeleteFailed))
		return
	}
	h.metrics.ObserveRecipeWrite("delete", "accepted")
	response.RespondOK(c, gin.H{"message": msg})
}

// GET /api/state
func (h *RecipeHandler) GetState(c *gin.Context) {
	response.RespondOK(c, h.recipes.State())
}
