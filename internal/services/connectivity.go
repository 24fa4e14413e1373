package services

import (
	"context"
	"time"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

const MsgOffline = "No internet connection. Please turn on your network connection to display items or try again later."

type ConnectivityStatus struct {
	Online  bool   `json:"online"`
	Message string `json:"message,omitempty"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Connectivity interface {
	Check(ctx context.Context) ConnectivityStatus
}

type connectivity struct {
	target  Pinger
	timeout time.Duration
	log     *logger.Logger
}

func NewConnectivity(target Pinger, timeout time.Duration, baseLog *logger.Logger) Connectivity {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &connectivity{target: target, timeout: timeout, log: baseLog.With("service", "Connectivity")}
}

// Check pings the remote store with a short deadline.
func (c *connectivity) Check(ctx context.Context) ConnectivityStatus {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.target.Ping(ctx); err != nil {
		c.log.Warn("remote store unreachable", "error", err)
		return ConnectivityStatus{Online: false, Message: MsgOffline}
	}
	return ConnectivityStatus{Online: true}
}
