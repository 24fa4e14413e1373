package services

import (
	"strings"

	"github.com/yungbote/recipebook-backend/internal/domain"
)

const (
	MsgFieldsEmpty  = "Recipe fields cannot be empty"
	MsgNoProblems   = "No problems found"
	MsgDeleted      = "Recipe deleted successfully"
	MsgDeleteFailed = "Failed to delete recipe"
	MsgNotIssued    = "Request could not be issued"
)

// ValidateRecipeFields holds iff the trimmed name is non-empty, prep time
// and description are non-empty and both counts are positive.
func ValidateRecipeFields(name, prepTime, description string, ingredientCount, stepCount int) bool {
	return notBlank(name) &&
		prepTime != "" &&
		description != "" &&
		ingredientCount > 0 &&
		stepCount > 0
}

func ValidateIngredientName(name string) bool { return notBlank(name) }

func ValidateStepDescription(text string) bool { return notBlank(text) }

func notBlank(s string) bool { return strings.TrimSpace(s) != "" }

// writable gates add and update. Ingredient and step entries are checked
// one at a time by the client, not here.
func writable(agg domain.Aggregate) bool {
	r := agg.Recipe
	return ValidateRecipeFields(r.Name, r.PrepTime, r.Description, len(agg.Ingredients), len(agg.Steps))
}

// prepareAggregate trims the name and recomputes counts and step numbers.
func prepareAggregate(agg domain.Aggregate) domain.Aggregate {
	agg.Recipe.Name = strings.TrimSpace(agg.Recipe.Name)
	return agg.Normalize()
}
