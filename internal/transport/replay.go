package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tonylturner/zbncp/internal/capture"
)

// Replay feeds the NCP-to-host frames of a capture back to the session in
// their recorded order. Outgoing frames are counted and otherwise dropped.
type Replay struct {
	mu     sync.Mutex
	opts   Options
	path   string
	frames [][]byte
	next   int
	sent   int
	onData func()
	inited bool
	closed bool
}

var _ Transport = (*Replay)(nil)

// OpenReplay loads every NCP-to-host record of a capture file.
func OpenReplay(path string, opts Options) (*Replay, error) {
	recs, err := capture.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load replay: %w", err)
	}
	r := NewReplay(recs, opts)
	r.path = path
	return r, nil
}

// NewReplay builds a replay source from records already in memory.
func NewReplay(recs []capture.Record, opts Options) *Replay {
	r := &Replay{opts: opts, path: "memory"}
	for _, rec := range recs {
		if rec.Direction == capture.NCPToHost {
			r.frames = append(r.frames, rec.Frame)
		}
	}
	return r
}

func (r *Replay) Init(onDataReady func()) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.onData = onDataReady
	r.inited = true
	ready := len(r.frames) > 0
	r.mu.Unlock()
	if ready && onDataReady != nil {
		onDataReady()
	}
	return nil
}

// Exchange returns the next recorded frame. After the last one it reports
// ErrExhausted.
func (r *Replay) Exchange(ctx context.Context, out []byte, in []byte) (int, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, 0, ErrClosed
	}
	if !r.inited {
		r.mu.Unlock()
		return 0, 0, ErrNotInitialized
	}
	if len(out) > 0 {
		r.sent++
	}
	if r.next >= len(r.frames) {
		r.mu.Unlock()
		return 0, r.opts.idleWait(), ErrExhausted
	}
	frame := r.frames[r.next]
	r.next++
	more := r.next < len(r.frames)
	fn := r.onData
	r.mu.Unlock()

	n, err := copyFrame(in, frame)
	if err != nil {
		return 0, 0, err
	}
	if more {
		if fn != nil {
			fn()
		}
		return n, 0, nil
	}
	return n, r.opts.idleWait(), nil
}

// Remaining returns how many recorded frames are still to be delivered.
func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames) - r.next
}

// Sent returns how many outgoing frames the session handed over.
func (r *Replay) Sent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Replay) String() string { return "replay:" + r.path }
