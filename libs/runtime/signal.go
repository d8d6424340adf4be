package runtime

import (
	"context"
	"os/signal"
	"syscall"
)

// SignalContext returns a root context cancelled on SIGINT/SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
