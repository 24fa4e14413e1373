package bus

import (
	"context"

	"github.com/yungbote/recipebook-backend/internal/realtime"
)

// Bus carries realtime messages to every instance's SSE hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
