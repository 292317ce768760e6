package download

import (
	"context"
	"io"
)

// contextReader fails the next read once ctx is done, so a cancelled
// request stops pulling bytes instead of running the copy to completion.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
