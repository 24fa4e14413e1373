package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/recipebook-backend/internal/http/handlers"
	httpMW "github.com/yungbote/recipebook-backend/internal/http/middleware"
	"github.com/yungbote/recipebook-backend/internal/observability"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	RecipeHandler     *httpH.RecipeHandler
	ValidationHandler *httpH.ValidationHandler
	RealtimeHandler   *httpH.RealtimeHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/connectivity", cfg.HealthHandler.Connectivity)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Recipes
		if cfg.RecipeHandler != nil {
			api.GET("/recipes", cfg.RecipeHandler.ListRecipes)
			api.POST("/recipes", cfg.RecipeHandler.CreateRecipe)
			api.GET("/recipes/:id", cfg.RecipeHandler.GetRecipe)
			api.PUT("/recipes/:id", cfg.RecipeHandler.UpdateRecipe)
			api.DELETE("/recipes/:id", cfg.RecipeHandler.DeleteRecipe)
			api.GET("/recipes/:id/ingredients", cfg.RecipeHandler.ListIngredients)
			api.GET("/recipes/:id/steps", cfg.RecipeHandler.ListSteps)
			api.GET("/state", cfg.RecipeHandler.GetState)
		}

		// Validation
		if cfg.ValidationHandler != nil {
			api.POST("/validate/recipe", cfg.ValidationHandler.ValidateRecipe)
			api.POST("/validate/ingredient", cfg.ValidationHandler.ValidateIngredient)
			api.POST("/validate/step", cfg.ValidationHandler.ValidateStep)
		}
	}

	return r
}
