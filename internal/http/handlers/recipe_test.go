package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipebook-backend/internal/data/repos"
	"github.com/yungbote/recipebook-backend/internal/data/repos/testutil"
	"github.com/yungbote/recipebook-backend/internal/dispatch"
	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/services"
)

type rejectingStore struct {
	docstore.Store
}

func (rejectingStore) Set(context.Context, string, any) error {
	return errors.New("permission denied")
}

type testServer struct {
	engine *gin.Engine
	store  docstore.Store
	svc    services.RecipeService
}

func newTestServer(t *testing.T, store docstore.Store) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)

	pool := dispatch.NewPool(dispatch.Options{Workers: 2, QueueSize: 8}, log)
	pool.Start()
	t.Cleanup(func() { _ = pool.Close(context.Background()) })

	writer := repos.NewRecipeWriter(store, "", log)
	t.Cleanup(writer.Close)
	svc := services.NewRecipeService(repos.NewRecipeRepo(store, writer, log), pool, nil, log)

	h := NewRecipeHandlerWithDeps(RecipeHandlerDeps{Log: log, Recipes: svc})
	v := NewValidationHandler()

	r := gin.New()
	r.GET("/api/recipes", h.ListRecipes)
	r.POST("/api/recipes", h.CreateRecipe)
	r.GET("/api/recipes/:id", h.GetRecipe)
	r.PUT("/api/recipes/:id", h.UpdateRecipe)
	r.DELETE("/api/recipes/:id", h.DeleteRecipe)
	r.GET("/api/recipes/:id/ingredients", h.ListIngredients)
	r.GET("/api/recipes/:id/steps", h.ListSteps)
	r.GET("/api/state", h.GetState)
	r.POST("/api/validate/recipe", v.ValidateRecipe)
	r.POST("/api/validate/ingredient", v.ValidateIngredient)
	r.POST("/api/validate/step", v.ValidateStep)

	return &testServer{engine: r, store: store, svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func pastaRequest() map[string]any {
	return map[string]any{
		"name":        "Pasta",
		"prepTime":    "20 min",
		"description": "Quick dinner",
		"ingredients": []string{"Salt", "Pepper"},
		"steps":       []string{"Boil water", "Add pasta"},
	}
}

func TestCreateRecipeWaitReturnsStoredID(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))

	rec := s.do(t, http.MethodPost, "/api/recipes?wait=true", pastaRequest())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var created struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	decodeBody(t, rec, &created)
	if created.ID != 1 || created.Message != services.MsgNoProblems {
		t.Fatalf("created: %+v", created)
	}

	rec = s.do(t, http.MethodGet, "/api/recipes/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: %d", rec.Code)
	}
	var got struct {
		Recipe struct {
			ID              int64  `json:"id"`
			Name            string `json:"name"`
			IngredientCount int    `json:"ingredientCount"`
			StepCount       int    `json:"stepCount"`
		} `json:"recipe"`
	}
	decodeBody(t, rec, &got)
	if got.Recipe.ID != 1 || got.Recipe.Name != "Pasta" || got.Recipe.IngredientCount != 2 || got.Recipe.StepCount != 2 {
		t.Fatalf("recipe: %+v", got.Recipe)
	}
}

func TestCreateRecipeIsOptimisticByDefault(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))

	rec := s.do(t, http.MethodPost, "/api/recipes", pastaRequest())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: want=%d got=%d", http.StatusAccepted, rec.Code)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, rec, &body)
	if body.Message != services.MsgNoProblems {
		t.Fatalf("message: want=%q got=%q", services.MsgNoProblems, body.Message)
	}
}

func TestCreateRecipeRejectsEmptyFields(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))

	req := pastaRequest()
	req["name"] = "   "
	rec := s.do(t, http.MethodPost, "/api/recipes?wait=true", req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rec, &env)
	if env.Error.Message != services.MsgFieldsEmpty || env.Error.Code != "invalid_recipe" {
		t.Fatalf("error envelope: %+v", env.Error)
	}

	snap, err := s.store.Get(context.Background(), "recipes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Exists() {
		t.Fatalf("invalid recipe must not be written")
	}
}

func TestCreateRecipeWaitReportsStoreFailure(t *testing.T) {
	s := newTestServer(t, rejectingStore{Store: testutil.Store(t)})

	rec := s.do(t, http.MethodPost, "/api/recipes?wait=true", pastaRequest())
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: want=%d got=%d", http.StatusBadGateway, rec.Code)
	}

	// without wait the same failure stays invisible
	rec = s.do(t, http.MethodPost, "/api/recipes", pastaRequest())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("optimistic status: want=%d got=%d", http.StatusAccepted, rec.Code)
	}
}

func TestUpdateRecipeReplacesLists(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))
	if rec := s.do(t, http.MethodPost, "/api/recipes?wait=true", pastaRequest()); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}

	req := pastaRequest()
	req["ingredients"] = []string{"Salt"}
	req["steps"] = []string{"Boil water", "Add pasta", "Serve"}
	rec := s.do(t, http.MethodPut, "/api/recipes/1?wait=true", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status: %d body=%s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/recipes/1/ingredients", nil)
	var ing struct {
		Ingredients []string `json:"ingredients"`
	}
	decodeBody(t, rec, &ing)
	if len(ing.Ingredients) != 1 || ing.Ingredients[0] != "Salt" {
		t.Fatalf("ingredients: %v", ing.Ingredients)
	}

	rec = s.do(t, http.MethodGet, "/api/recipes/1/steps", nil)
	var steps struct {
		Steps []struct {
			Number      int    `json:"stepNumber"`
			Description string `json:"description"`
		} `json:"steps"`
	}
	decodeBody(t, rec, &steps)
	if len(steps.Steps) != 3 {
		t.Fatalf("steps: want=3 got=%d", len(steps.Steps))
	}
	for i, st := range steps.Steps {
		if st.Number != i+1 {
			t.Fatalf("step %d numbered %d", i, st.Number)
		}
	}
	if steps.Steps[2].Description != "Serve" {
		t.Fatalf("last step: %q", steps.Steps[2].Description)
	}
}

func TestGetRecipeNotFoundAndInvalidID(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))

	if rec := s.do(t, http.MethodGet, "/api/recipes/42", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing recipe: want=404 got=%d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/recipes/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: want=400 got=%d", rec.Code)
	}
}

func TestListRecipesFiltersByQuery(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))
	for _, name := range []string{"Pasta", "Pancakes", "Soup"} {
		req := pastaRequest()
		req["name"] = name
		if rec := s.do(t, http.MethodPost, "/api/recipes?wait=true", req); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", name, rec.Code)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/recipes?q=pa", nil)
	var body struct {
		Recipes []struct {
			Name string `json:"name"`
		} `json:"recipes"`
	}
	decodeBody(t, rec, &body)
	if len(body.Recipes) != 2 || body.Recipes[0].Name != "Pasta" || body.Recipes[1].Name != "Pancakes" {
		t.Fatalf("filtered recipes: %+v", body.Recipes)
	}

	rec = s.do(t, http.MethodGet, "/api/recipes", nil)
	decodeBody(t, rec, &body)
	if len(body.Recipes) != 3 {
		t.Fatalf("all recipes: want=3 got=%d", len(body.Recipes))
	}
}

func TestListRecipesEmptyStore(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))
	rec := s.do(t, http.MethodGet, "/api/recipes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"recipes":[]}` {
		t.Fatalf("body: %s", got)
	}
}

func TestDeleteRecipe(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))
	if rec := s.do(t, http.MethodPost, "/api/recipes?wait=true", pastaRequest()); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}

	rec := s.do(t, http.MethodDelete, "/api/recipes/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status: %d", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := s.store.Get(context.Background(), "recipes/1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !snap.Exists() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recipe still present after delete")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStateReflectsLastMessage(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))
	req := pastaRequest()
	req["steps"] = []string{}
	s.do(t, http.MethodPost, "/api/recipes", req)

	rec := s.do(t, http.MethodGet, "/api/state", nil)
	var st struct {
		Message *string `json:"message"`
	}
	decodeBody(t, rec, &st)
	if st.Message == nil || *st.Message != services.MsgFieldsEmpty {
		t.Fatalf("state message: %v", st.Message)
	}
}

func TestValidationEndpoints(t *testing.T) {
	s := newTestServer(t, testutil.Store(t))

	cases := []struct {
		path string
		body map[string]any
		want bool
	}{
		{"/api/validate/recipe", map[string]any{"name": "Pasta", "prepTime": "20", "description": "d", "ingredientCount": 1, "stepCount": 1}, true},
		{"/api/validate/recipe", map[string]any{"name": "Pasta", "prepTime": "20", "description": "d", "ingredientCount": 0, "stepCount": 1}, false},
		{"/api/validate/ingredient", map[string]any{"name": "Salt"}, true},
		{"/api/validate/ingredient", map[string]any{"name": " "}, false},
		{"/api/validate/step", map[string]any{"description": "Stir"}, true},
		{"/api/validate/step", map[string]any{"description": ""}, false},
	}
	for _, tc := range cases {
		rec := s.do(t, http.MethodPost, tc.path, tc.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tc.path, rec.Code)
		}
		var out struct {
			Valid bool `json:"valid"`
		}
		decodeBody(t, rec, &out)
		if out.Valid != tc.want {
			t.Fatalf("%s %v: want=%v got=%v", tc.path, tc.body, tc.want, out.Valid)
		}
	}
}
