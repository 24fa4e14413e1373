package services

import (
	"context"

	"github.com/yungbote/recipebook-backend/internal/domain"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/realtime"
)

// =========================
// Recipe notifier
// =========================

// RecipeNotification is an advisory message raised by the size of the
// recipe list. ID is stable per kind so clients can replace rather than
// stack them.
type RecipeNotification struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

var (
	NotifyEmptyList = RecipeNotification{
		ID:    1,
		Title: "Get Cooking!",
		Text:  "Your list is empty. Add a recipe to start cooking!",
	}
	NotifyFirstRecipe = RecipeNotification{
		ID:    2,
		Title: "Congratulations!",
		Text:  "You just added your first recipe. Happy Cooking!",
	}
	NotifyGrowingList = RecipeNotification{
		ID:    3,
		Title: "Your list is growing!",
		Text:  "Select a recipe from your cook book and start cooking!",
	}
)

const growingListThreshold = 5

// NotificationFor picks the notification for a list of n recipes. ok is
// false for sizes that raise nothing.
func NotificationFor(n int) (RecipeNotification, bool) {
	switch {
	case n == 0:
		return NotifyEmptyList, true
	case n == 1:
		return NotifyFirstRecipe, true
	case n >= growingListThreshold:
		return NotifyGrowingList, true
	default:
		return RecipeNotification{}, false
	}
}

type RecipeNotifier interface {
	// Watch raises a notification on every post of the recipes slot and
	// returns a function that stops watching.
	Watch(slots *RecipeSlots) func()
	Evaluate(recipes []*domain.Recipe)
}

type recipeNotifier struct {
	emit SSEEmitter
	log  *logger.Logger
}

func NewRecipeNotifier(emit SSEEmitter, baseLog *logger.Logger) RecipeNotifier {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if emit == nil {
		emit = nopEmitter{}
	}
	return &recipeNotifier{emit: emit, log: baseLog.With("service", "RecipeNotifier")}
}

func (n *recipeNotifier) Watch(slots *RecipeSlots) func() {
	return slots.Recipes.Subscribe(n.Evaluate)
}

func (n *recipeNotifier) Evaluate(recipes []*domain.Recipe) {
	note, ok := NotificationFor(len(recipes))
	if !ok {
		return
	}
	n.log.Debug("recipe notification", "id", note.ID, "recipes", len(recipes))
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ChannelNotifications,
		Event:   realtime.SSEEventRecipeNotification,
		Data:    note,
	})
}
