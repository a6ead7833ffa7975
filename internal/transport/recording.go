package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/tonylturner/zbncp/internal/capture"
)

// Recording wraps a transport and writes every frame, both directions, to a
// capture writer.
type Recording struct {
	inner  Transport
	writer *capture.Writer
}

var _ Transport = (*Recording)(nil)

// NewRecording records inner's traffic into w. Closing the recording closes
// inner but not w.
func NewRecording(inner Transport, w *capture.Writer) *Recording {
	return &Recording{inner: inner, writer: w}
}

func (r *Recording) Init(onDataReady func()) error {
	return r.inner.Init(onDataReady)
}

func (r *Recording) Exchange(ctx context.Context, out []byte, in []byte) (int, time.Duration, error) {
	if len(out) > 0 {
		if err := r.writer.Write(capture.HostToNCP, out); err != nil {
			return 0, 0, fmt.Errorf("record tx: %w", err)
		}
	}
	n, wait, err := r.inner.Exchange(ctx, out, in)
	if n > 0 {
		if werr := r.writer.Write(capture.NCPToHost, in[:n]); werr != nil && err == nil {
			err = fmt.Errorf("record rx: %w", werr)
		}
	}
	return n, wait, err
}

func (r *Recording) Close() error { return r.inner.Close() }

func (r *Recording) String() string { return r.inner.String() + "+capture" }

// Unwrap returns the wrapped transport.
func (r *Recording) Unwrap() Transport { return r.inner }
