package resource

import (
	"context"
	"io"
)

// LimitedWriter throttles writes against a Controller's IO budget.
type LimitedWriter struct {
	ctx context.Context
	c   *Controller
	w   io.Writer
}

// NewLimitedWriter wraps w so every write first waits for IO budget.
func NewLimitedWriter(ctx context.Context, c *Controller, w io.Writer) *LimitedWriter {
	return &LimitedWriter{ctx: ctx, c: c, w: w}
}

func (lw *LimitedWriter) Write(p []byte) (int, error) {
	if err := lw.c.AcquireIO(lw.ctx, len(p)); err != nil {
		return 0, err
	}
	return lw.w.Write(p)
}

// LimitedReader throttles reads against a Controller's IO budget.
type LimitedReader struct {
	ctx context.Context
	c   *Controller
	r   io.Reader
}

// NewLimitedReader wraps r so every read first waits for IO budget.
// The budget is charged for the buffer size, the upper bound of what
// the read may return.
func NewLimitedReader(ctx context.Context, c *Controller, r io.Reader) *LimitedReader {
	return &LimitedReader{ctx: ctx, c: c, r: r}
}

func (lr *LimitedReader) Read(p []byte) (int, error) {
	if err := lr.c.AcquireIO(lr.ctx, len(p)); err != nil {
		return 0, err
	}
	return lr.r.Read(p)
}
