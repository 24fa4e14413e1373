package realtime

type SSEEvent string

const (
	SSEEventRecipes            SSEEvent = "Recipes"
	SSEEventRecipe             SSEEvent = "Recipe"
	SSEEventIngredients        SSEEvent = "Ingredients"
	SSEEventSteps              SSEEvent = "Steps"
	SSEEventMessage            SSEEvent = "Message"
	SSEEventRecipeNotification SSEEvent = "RecipeNotification"
)

const (
	ChannelRecipes       = "recipes"
	ChannelNotifications = "notifications"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
