// Package domain holds the recipe aggregate shared by every layer.
package domain

import (
	"strconv"
	"strings"
)

// Recipe is the root of the aggregate. ID is assigned by the store and is
// zero before the first save. IngredientCount and StepCount are denormalized
// and must match the owned lists at write time.
type Recipe struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PrepTime        string `json:"prepTime"`
	Image           string `json:"image,omitempty"`
	IngredientCount int    `json:"ingredientCount"`
	StepCount       int    `json:"stepCount"`
}

type Ingredient struct {
	Name     string `json:"name"`
	RecipeID int64  `json:"recipeId"`
}

// Step position is implicit in list order; Number is only a view of it.
type Step struct {
	Number      int    `json:"stepNumber"`
	Description string `json:"description"`
	RecipeID    int64  `json:"recipeId"`
}

// Aggregate is a recipe with its owned ingredients and steps, always written
// as a unit.
type Aggregate struct {
	Recipe      Recipe
	Ingredients []Ingredient
	Steps       []Step
}

// Normalize copies the recipe id onto every owned entity, renumbers steps
// 1..N and recomputes the denormalized counts.
func (a Aggregate) Normalize() Aggregate {
	out := Aggregate{
		Recipe:      a.Recipe,
		Ingredients: make([]Ingredient, len(a.Ingredients)),
		Steps:       make([]Step, len(a.Steps)),
	}
	for i, ing := range a.Ingredients {
		ing.RecipeID = a.Recipe.ID
		out.Ingredients[i] = ing
	}
	for i, st := range a.Steps {
		st.RecipeID = a.Recipe.ID
		st.Number = i + 1
		out.Steps[i] = st
	}
	out.Recipe.IngredientCount = len(out.Ingredients)
	out.Recipe.StepCount = len(out.Steps)
	return out
}

// NewAggregate builds an aggregate from raw ingredient names and step texts.
func NewAggregate(r Recipe, ingredients, steps []string) Aggregate {
	agg := Aggregate{Recipe: r}
	for _, name := range ingredients {
		agg.Ingredients = append(agg.Ingredients, Ingredient{Name: name})
	}
	for _, desc := range steps {
		agg.Steps = append(agg.Steps, Step{Description: desc})
	}
	return agg.Normalize()
}

// NumberSteps turns descriptions read back from the store into steps
// numbered 1..N in the order retrieved.
func NumberSteps(recipeID int64, descriptions []string) []Step {
	out := make([]Step, 0, len(descriptions))
	for i, d := range descriptions {
		out = append(out, Step{Number: i + 1, Description: d, RecipeID: recipeID})
	}
	return out
}

// ParseID parses a store key or URL segment into a recipe id. Only positive
// integers are accepted.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
