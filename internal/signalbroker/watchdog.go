// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/tee/internal/ctxlog"
)

// Watch reads sigCh until ctx is done or sigCh is closed.
// The first signal of each type is passed to relay, which may be nil.
// The second signal of the same type cancels the context instead.
func Watch(ctx context.Context, sigCh <-chan os.Signal, relay func(os.Signal), cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Info(ctx, "watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
				cancel()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Info(ctx, "watchdog", "detail", "received first signal of type, relaying", "signal", sig.String())

			if relay != nil {
				relay(sig)
			}
		}
	}
}
