package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/bailiff/pkg/utils/logging"
)

// drainLimit bounds how much of an unread body DrainClose discards
const drainLimit = 64 << 10

// Close closes closer and logs a failure under the given name. A nil closer
// is ignored.
func Close(ctx context.Context, closer io.Closer, name string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("close failed", "target", name, "error", err)
	}
}

// DrainClose discards what is left of an HTTP response body, up to a
// bounded amount, and closes it so the connection can be reused.
func DrainClose(ctx context.Context, body io.ReadCloser, name string) {
	if body == nil {
		return
	}
	if _, err := io.CopyN(io.Discard, body, drainLimit); err != nil && err != io.EOF {
		logging.From(ctx).Debug("drain failed", "target", name, "error", err)
	}
	Close(ctx, body, name)
}

// Write writes data to w and logs a failed or short write. Response writers
// have nowhere else to report the error.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Warn("write failed", "written", n, "size", len(data), "error", err)
	}
}
