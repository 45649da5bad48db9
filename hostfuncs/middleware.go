package hostfuncs

import (
	"context"
	"log/slog"
)

// Middleware wraps the registration callback to add cross-cutting
// behavior. Middleware executes in FIFO order (first added wraps
// outermost, onion model).
type Middleware func(next RegisterFunc) RegisterFunc

// PanicRecovery returns a middleware that converts a panicking
// registration into a rejection instead of crashing the host. A module's
// registration call runs arbitrary extension code; no fault from it may
// cross the boundary.
func PanicRecovery(logger *slog.Logger) Middleware {
	return func(next RegisterFunc) RegisterFunc {
		return func(ctx context.Context, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn uint32) (accepted uint32) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic during command registration", "panic", r)
					accepted = 0
				}
			}()
			return next(ctx, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn)
		}
	}
}

// Logging returns a middleware that logs every registration attempt.
func Logging(logger *slog.Logger) Middleware {
	return func(next RegisterFunc) RegisterFunc {
		return func(ctx context.Context, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn uint32) uint32 {
			accepted := next(ctx, ctxToken, namePtr, nameLen, state, invokeFn, destroyFn)
			logger.Debug("register_command",
				"invoke_fn", invokeFn,
				"destroy_fn", destroyFn,
				"accepted", accepted == 1)
			return accepted
		}
	}
}
