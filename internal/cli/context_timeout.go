package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// contextWithTimeout returns a timeout context rooted in the command context.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(baseContext(cmd), d)
}

// commandContext applies provider.timeout_seconds when set. Without it the
// command waits as long as the wallet does, until interrupted.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return actionContext(baseContext(cmd))
}

// actionContext derives the context for one wallet action from base.
func actionContext(base context.Context) (context.Context, context.CancelFunc) {
	if cfg != nil && cfg.Provider.TimeoutSeconds > 0 {
		return context.WithTimeout(base, time.Duration(cfg.Provider.TimeoutSeconds)*time.Second)
	}
	return context.WithCancel(base)
}

func baseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
