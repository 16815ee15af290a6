package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bailiff/pkg/utils/errutil"
	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// Dispatcher runs a handler on behalf of a Slack webhook after the HTTP
// response has been sent.
type Dispatcher func(ctx context.Context, handler func(ctx context.Context) error)

// Dispatch executes a handler function asynchronously in a new goroutine
// It creates a background context and handles errors and panics
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	// Create a new background context but preserve logger
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(bgCtx, goerr.New("panic in async handler", goerr.V("panic", r)), "async handler panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}

// Inline runs the handler in the calling goroutine. It is used where the
// caller must observe the handler's effects before returning, such as tests.
func Inline(ctx context.Context, handler func(ctx context.Context) error) {
	if err := handler(ctx); err != nil {
		errutil.Handle(ctx, err, "inline handler failed")
	}
}
