package async

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/moirai/pkg/utils/logging"
)

// Handlers get a fresh context detached from the request, so a client
// disconnect never cancels an in-flight notification. The deadline bounds
// how long a delivery may hang.
const handlerTimeout = 30 * time.Second

// Dispatch runs the handler in a background goroutine. The request context
// is replaced by a deadline-bound one that keeps only the logger; errors and
// panics are logged, never propagated to the caller.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(bgCtx, handlerTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
