package recipe

import (
	"github.com/yungbote/recipebook-backend/internal/domain"
)

// document is the stored shape of recipes/{id}. The id lives in the path,
// never in the body.
type document struct {
	Name            string               `json:"name"`
	PrepTime        string               `json:"prepTime"`
	Description     string               `json:"description"`
	IngredientCount int                  `json:"ingredientCount"`
	StepCount       int                  `json:"stepCount"`
	Ingredients     []ingredientDocument `json:"ingredients"`
	Steps           []stepDocument       `json:"steps"`
}

type ingredientDocument struct {
	Name string `json:"name"`
}

type stepDocument struct {
	StepNumber  int    `json:"stepNumber"`
	Description string `json:"description"`
}

// encodeDocument builds the stored document. Counts come from the list
// lengths and step numbers from list position; whatever the caller put in
// Recipe.IngredientCount, Recipe.StepCount or Step.Number is ignored.
func encodeDocument(r domain.Recipe, ingredients []domain.Ingredient, steps []domain.Step) document {
	doc := document{
		Name:            r.Name,
		PrepTime:        r.PrepTime,
		Description:     r.Description,
		IngredientCount: len(ingredients),
		StepCount:       len(steps),
		Ingredients:     make([]ingredientDocument, 0, len(ingredients)),
		Steps:           make([]stepDocument, 0, len(steps)),
	}
	for _, ing := range ingredients {
		doc.Ingredients = append(doc.Ingredients, ingredientDocument{Name: ing.Name})
	}
	for i, st := range steps {
		doc.Steps = append(doc.Steps, stepDocument{StepNumber: i + 1, Description: st.Description})
	}
	return doc
}

func (d document) recipe(id int64) *domain.Recipe {
	return &domain.Recipe{
		ID:              id,
		Name:            d.Name,
		PrepTime:        d.PrepTime,
		Description:     d.Description,
		IngredientCount: d.IngredientCount,
		StepCount:       d.StepCount,
	}
}
