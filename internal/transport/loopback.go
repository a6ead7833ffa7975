package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

// Indication is an unsolicited frame queued after a reply.
type Indication struct {
	Call spec.CallCode
	Body protocol.BodyEncoder
}

// Reply is the scripted answer to one request.
type Reply struct {
	Status      spec.StatusID
	Body        protocol.BodyEncoder
	Indications []Indication
	// NoResponse suppresses the response frame; indications are still queued.
	NoResponse bool
}

// Script tells the loopback how to answer requests. Replies for a call are
// used in order; the last one repeats. Calls without replies get an empty
// OK response.
type Script struct {
	// Boot frames are queued at Init, before any request. Responses carry tsn 0.
	Boot      []BootFrame
	Replies   map[spec.CallCode][]Reply
	Responder func(req protocol.Frame) (Reply, bool)
}

// BootFrame is a frame the NCP emits on power-up.
type BootFrame struct {
	Control protocol.Control
	Call    spec.CallCode
	Status  spec.StatusID
	Body    protocol.BodyEncoder
}

// NewScript returns an empty script.
func NewScript() *Script {
	return &Script{Replies: make(map[spec.CallCode][]Reply)}
}

// On appends replies for call.
func (s *Script) On(call spec.CallCode, replies ...Reply) *Script {
	if s.Replies == nil {
		s.Replies = make(map[spec.CallCode][]Reply)
	}
	s.Replies[call] = append(s.Replies[call], replies...)
	return s
}

// BootResponse queues a power-up response frame.
func (s *Script) BootResponse(call spec.CallCode, status spec.StatusID, body protocol.BodyEncoder) *Script {
	s.Boot = append(s.Boot, BootFrame{Control: protocol.ControlResponse, Call: call, Status: status, Body: body})
	return s
}

// BootIndication queues a power-up indication frame.
func (s *Script) BootIndication(call spec.CallCode, body protocol.BodyEncoder) *Script {
	s.Boot = append(s.Boot, BootFrame{Control: protocol.ControlIndication, Call: call, Body: body})
	return s
}

// Loopback is a scripted stand-in for the NCP. It answers every request from
// its Script and never touches a physical link.
type Loopback struct {
	mu       sync.Mutex
	opts     Options
	script   *Script
	onData   func()
	pending  [][]byte
	requests []protocol.Frame
	counts   map[spec.CallCode]int
	rejected int
	inited   bool
	closed   bool
}

var _ Transport = (*Loopback)(nil)

// NewLoopback creates a loopback transport driven by opts.Script.
func NewLoopback(opts Options) *Loopback {
	script := opts.Script
	if script == nil {
		script = NewScript()
	}
	return &Loopback{
		opts:   opts,
		script: script,
		counts: make(map[spec.CallCode]int),
	}
}

// Init registers the data-ready callback and queues the boot frames.
func (l *Loopback) Init(onDataReady func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.onData = onDataReady
	l.inited = true
	for _, b := range l.script.Boot {
		var (
			frame []byte
			err   error
		)
		switch b.Control {
		case protocol.ControlResponse:
			frame, err = protocol.EncodeResponse(b.Call, 0, b.Status, b.Body)
		case protocol.ControlIndication:
			frame, err = protocol.EncodeIndication(b.Call, b.Body)
		default:
			err = fmt.Errorf("boot frame for %s has control %s", b.Call, b.Control)
		}
		if err != nil {
			l.mu.Unlock()
			return fmt.Errorf("loopback boot: %w", err)
		}
		l.pending = append(l.pending, frame)
	}
	ready := len(l.pending) > 0
	l.mu.Unlock()

	if ready {
		l.notify()
	}
	return nil
}

// Exchange accepts one outgoing request and hands back one queued frame.
func (l *Loopback) Exchange(ctx context.Context, out []byte, in []byte) (int, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, 0, ErrClosed
	}
	if !l.inited {
		l.mu.Unlock()
		return 0, 0, ErrNotInitialized
	}
	if len(out) > 0 {
		if err := l.accept(out); err != nil {
			l.mu.Unlock()
			return 0, 0, err
		}
	}
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return 0, l.opts.idleWait(), nil
	}
	frame := l.pending[0]
	l.pending = l.pending[1:]
	more := len(l.pending) > 0
	l.mu.Unlock()

	n, err := copyFrame(in, frame)
	if err != nil {
		return 0, 0, err
	}
	if more {
		l.notify()
		return n, 0, nil
	}
	return n, l.opts.idleWait(), nil
}

// accept decodes a request and queues the scripted reply. Caller holds mu.
func (l *Loopback) accept(out []byte) error {
	req, err := protocol.Decode(out)
	if err != nil || req.Header.Control != protocol.ControlRequest {
		l.rejected++
		return nil
	}
	l.requests = append(l.requests, req)

	reply, ok := l.lookup(req)
	if !ok {
		reply = Reply{}
	}
	if !reply.NoResponse {
		frame, err := protocol.EncodeResponse(req.Header.CallID, req.Header.TSN, reply.Status, reply.Body)
		if err != nil {
			return fmt.Errorf("loopback reply to %s: %w", req.Header.CallID, err)
		}
		l.pending = append(l.pending, frame)
	}
	for _, ind := range reply.Indications {
		frame, err := protocol.EncodeIndication(ind.Call, ind.Body)
		if err != nil {
			return fmt.Errorf("loopback indication %s: %w", ind.Call, err)
		}
		l.pending = append(l.pending, frame)
	}
	return nil
}

func (l *Loopback) lookup(req protocol.Frame) (Reply, bool) {
	call := req.Header.CallID
	n := l.counts[call]
	l.counts[call] = n + 1

	if l.script.Responder != nil {
		if r, ok := l.script.Responder(req); ok {
			return r, true
		}
	}
	replies := l.script.Replies[call]
	if len(replies) == 0 {
		return Reply{}, false
	}
	if n >= len(replies) {
		n = len(replies) - 1
	}
	return replies[n], true
}

// Inject queues an unsolicited frame, as if the NCP had produced it.
func (l *Loopback) Inject(frame []byte) {
	l.mu.Lock()
	l.pending = append(l.pending, append([]byte(nil), frame...))
	l.mu.Unlock()
	l.notify()
}

func (l *Loopback) notify() {
	l.mu.Lock()
	fn := l.onData
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Requests returns the requests received so far.
func (l *Loopback) Requests() []protocol.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]protocol.Frame(nil), l.requests...)
}

// RequestCalls returns the call ids of the requests received so far.
func (l *Loopback) RequestCalls() []spec.CallCode {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]spec.CallCode, len(l.requests))
	for i, r := range l.requests {
		out[i] = r.Header.CallID
	}
	return out
}

// Rejected counts outgoing buffers that were not well-formed requests.
func (l *Loopback) Rejected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rejected
}

// Pending returns how many frames are queued for the host.
func (l *Loopback) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Close stops the loopback. Further exchanges fail with ErrClosed.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.pending = nil
	return nil
}

func (l *Loopback) String() string { return "loopback" }
