package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

type SSEClient struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}
