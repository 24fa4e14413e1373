package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipebook-backend/internal/http/response"
	"github.com/yungbote/recipebook-backend/internal/services"
)

// ValidationHandler exposes the field predicates so clients can check input
// before submitting a recipe.
type ValidationHandler struct{}

func NewValidationHandler() *ValidationHandler { return &ValidationHandler{} }

type recipeFieldsRequest struct {
	Name            string `json:"name"`
	PrepTime        string `json:"prepTime"`
	Description     string `json:"description"`
	IngredientCount int    `json:"ingredientCount"`
	StepCount       int    `json:"stepCount"`
}

// POST /api/validate/recipe
func (h *ValidationHandler) ValidateRecipe(c *gin.Context) {
	var req recipeFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	valid := services.ValidateRecipeFields(req.Name, req.PrepTime, req.Description, req.IngredientCount, req.StepCount)
	out := gin.H{"valid": valid}
	if !valid {
		out["message"] = services.MsgFieldsEmpty
	}
	response.RespondOK(c, out)
}

// POST /api/validate/ingredient
func (h *ValidationHandler) ValidateIngredient(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"valid": services.ValidateIngredientName(req.Name)})
}

// POST /api/validate/step
func (h *ValidationHandler) ValidateStep(c *gin.Context) {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, gin.H{"valid": services.ValidateStepDescription(req.Description)})
}
