package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /api/stream[?channels=recipes,notifications]
//
// Every client gets slot updates and notifications unless it narrows the
// set with the channels query.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	channels := []string{realtime.ChannelRecipes, realtime.ChannelNotifications}
	if raw := strings.TrimSpace(c.Query("channels")); raw != "" {
		channels = strings.Split(raw, ",")
	}

	client := h.Hub.NewSSEClient()
	for _, ch := range channels {
		h.Hub.AddChannel(client, ch)
	}
	h.Log.Info("SSEStream open", "client_id", client.ID.String(), "channels", channels)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
	h.Log.Debug("SSEStream closed", "client_id", client.ID.String())
}
