// Package session drives the host side of the NCP protocol: it numbers
// requests, polls the transport, dispatches received frames to handlers by
// call id and feeds every dispatched call to the verifier.
package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

// FrameHandler reacts to one received frame. received is the number of bytes
// the transport delivered, header included.
type FrameHandler interface {
	HandleFrame(ctx context.Context, f protocol.Frame, received int)
}

// HandlerFunc adapts a function to FrameHandler.
type HandlerFunc func(ctx context.Context, f protocol.Frame, received int)

func (fn HandlerFunc) HandleFrame(ctx context.Context, f protocol.Frame, received int) {
	fn(ctx, f, received)
}

// Handlers maps call ids to handlers.
type Handlers map[spec.CallCode]FrameHandler

type namedHandler struct {
	name string
	fn   HandlerFunc
}

func (h namedHandler) HandleFrame(ctx context.Context, f protocol.Frame, received int) {
	h.fn(ctx, f, received)
}

func (h namedHandler) Name() string { return h.name }

// Named wraps fn with the name used in dispatch logs.
func Named(name string, fn HandlerFunc) FrameHandler {
	return namedHandler{name: name, fn: fn}
}

// Direction of a session event.
const (
	DirTx = "tx"
	DirRx = "rx"
)

// Event describes one frame the session sent or received.
type Event struct {
	Time      time.Time
	Direction string
	Header    protocol.Header
	Size      int
	Handled   bool
	Err       error
}

// Stats counts session activity.
type Stats struct {
	Sent        int
	Received    int
	Responses   int
	Indications int
	Failures    int
	Malformed   int
	Unhandled   int
	Discarded   int
}

// Config wires a session.
type Config struct {
	Transport   transport.Transport
	Logger      *logging.Logger
	Verifier    *verify.Verifier
	Responses   Handlers
	Indications Handlers
}

// Session is the single consumer of a transport. It is not safe for
// concurrent use; handlers run on the goroutine that polls.
type Session struct {
	transport transport.Transport
	logger    *logging.Logger
	verifier  *verify.Verifier

	rsp Handlers
	ind Handlers

	defaultRsp FrameHandler
	defaultInd FrameHandler

	tsn     uint8
	rx      []byte
	last    protocol.Frame
	lastLen int
	wait    time.Duration
	hint    chan struct{}

	depth  int
	outbox [][]byte

	observers []func(Event)
	pollHooks []func(ctx context.Context) error
	stats     Stats
}

// ErrNoTransport is returned by New without a transport.
var ErrNoTransport = errors.New("session needs a transport")

// New builds a session and initializes its transport.
func New(cfg Config) (*Session, error) {
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = verify.New(nil, nil, logger)
	}
	s := &Session{
		transport: cfg.Transport,
		logger:    logger,
		verifier:  verifier,
		rsp:       make(Handlers),
		ind:       make(Handlers),
		rx:        make([]byte, protocol.MaxFrame),
		hint:      make(chan struct{}, 1),
	}
	s.defaultRsp = Named("unhandled_rsp", s.unhandledResponse)
	s.defaultInd = Named("unhandled_ind", s.unhandledIndication)
	s.UpdateResponseHandlers(cfg.Responses)
	s.UpdateIndicationHandlers(cfg.Indications)

	if err := cfg.Transport.Init(s.notify); err != nil {
		return nil, fmt.Errorf("init transport %s: %w", cfg.Transport, err)
	}
	return s, nil
}

// notify is the transport's data-ready callback. It never blocks.
func (s *Session) notify() {
	select {
	case s.hint <- struct{}{}:
	default:
	}
}

// UpdateResponseHandlers merges h into the response table.
func (s *Session) UpdateResponseHandlers(h Handlers) {
	for call, fn := range h {
		s.rsp[call] = fn
	}
}

// UpdateIndicationHandlers merges h into the indication table.
func (s *Session) UpdateIndicationHandlers(h Handlers) {
	for call, fn := range h {
		s.ind[call] = fn
	}
}

// Observe registers fn to receive every sent and received frame.
func (s *Session) Observe(fn func(Event)) {
	s.observers = append(s.observers, fn)
}

// OnPoll registers a hook that Run calls after every poll.
func (s *Session) OnPoll(fn func(ctx context.Context) error) {
	s.pollHooks = append(s.pollHooks, fn)
}

func (s *Session) emit(ev Event) {
	if len(s.observers) == 0 {
		return
	}
	ev.Time = time.Now()
	for _, fn := range s.observers {
		fn(ev)
	}
}

// nextTSN advances the counter. 0xFF is reserved for indications.
func nextTSN(tsn uint8) uint8 {
	tsn++
	if tsn == 0xFF {
		tsn = 0
	}
	return tsn
}

// Send encodes a request with the next tsn and hands it to the transport.
// Called from a handler, the frame is queued and goes out once dispatch of
// the current frame finishes.
func (s *Session) Send(ctx context.Context, call spec.CallCode, body protocol.BodyEncoder) error {
	tsn := nextTSN(s.tsn)
	frame, err := protocol.EncodeRequest(call, tsn, body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", call, err)
	}
	s.tsn = tsn
	s.stats.Sent++
	s.logger.Info("tx req: id 0x%04x tsn %d %s", uint16(call), tsn, call)
	s.logger.LogHex("tx", frame)
	s.emit(Event{Direction: DirTx, Header: protocol.Header{Control: protocol.ControlRequest, CallID: call, TSN: tsn}, Size: len(frame)})

	if s.depth > 0 {
		s.outbox = append(s.outbox, frame)
		return nil
	}
	_, _, err = s.PollOnce(ctx, frame)
	return err
}

// SendRecord is Send with a typed body.
func (s *Session) SendRecord(ctx context.Context, call spec.CallCode, rec protocol.Record) error {
	return s.Send(ctx, call, rec)
}

// PollOnce performs one exchange carrying out (nil to poll only) and
// dispatches what came back. Frames queued by handlers are sent before it
// returns. The returned length is that of the first exchange; the wait is
// the last suggestion from the transport.
func (s *Session) PollOnce(ctx context.Context, out []byte) (int, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	n, err := s.exchange(ctx, out)
	if err != nil {
		return n, s.wait, err
	}
	if s.depth > 0 {
		return n, s.wait, nil
	}
	for len(s.outbox) > 0 {
		if err := ctx.Err(); err != nil {
			return n, s.wait, err
		}
		frame := s.outbox[0]
		s.outbox = s.outbox[1:]
		if _, err := s.exchange(ctx, frame); err != nil {
			return n, s.wait, err
		}
	}
	return n, s.wait, nil
}

func (s *Session) exchange(ctx context.Context, out []byte) (int, error) {
	n, wait, err := s.transport.Exchange(ctx, out, s.rx)
	s.wait = wait
	if err != nil {
		return 0, fmt.Errorf("exchange: %w", err)
	}
	if n > 0 {
		s.Dispatch(ctx, n)
	}
	return n, nil
}

// Dispatch decodes the first received bytes of the receive buffer and routes
// the frame.
func (s *Session) Dispatch(ctx context.Context, received int) {
	s.stats.Received++
	s.logger.LogHex("rx", s.rx[:received])

	f, err := protocol.Decode(s.rx[:received])
	if err != nil {
		s.stats.Malformed++
		s.logger.Error("discarding frame: %v", err)
		s.emit(Event{Direction: DirRx, Size: received, Err: err})
		return
	}
	s.last = f
	s.lastLen = received

	h := f.Header
	var handler FrameHandler
	var handled bool
	var status *spec.StatusID
	switch h.Control {
	case protocol.ControlResponse:
		s.stats.Responses++
		if !h.Status.OK() {
			s.stats.Failures++
			s.logger.Error("NCP call returned failure status %s", h.Status)
		}
		cat, code := h.Status.Decompose()
		s.logger.Info("rx rsp: ver %d ctl %d id 0x%04x tsn %d sts %d:%d",
			h.Version, uint8(h.Control), uint16(h.CallID), h.TSN, uint8(cat), code)
		handler, handled = s.lookup(s.rsp, h.CallID, s.defaultRsp)
		st := h.Status
		status = &st
	case protocol.ControlIndication:
		s.stats.Indications++
		s.logger.Info("rx ind: ver %d ctl %d id 0x%04x", h.Version, uint8(h.Control), uint16(h.CallID))
		handler, handled = s.lookup(s.ind, h.CallID, s.defaultInd)
	default:
		s.stats.Discarded++
		s.logger.Warn("discarding %s frame %s from NCP", h.Control, h.CallID)
		s.emit(Event{Direction: DirRx, Header: h, Size: received})
		return
	}

	s.logger.Info("  %s -> %s", h.CallID, handlerName(handler))
	s.logTyped(f)

	s.depth++
	handler.HandleFrame(ctx, f, received)
	s.depth--

	s.emit(Event{Direction: DirRx, Header: h, Size: received, Handled: handled})
	s.verifier.OnEvent(h.CallID, status)
}

// lookup returns the registered handler for call, or def with handled false.
// Handlers are never compared: func-backed handlers are not comparable.
func (s *Session) lookup(table Handlers, call spec.CallCode, def FrameHandler) (FrameHandler, bool) {
	if h, ok := table[call]; ok && h != nil {
		return h, true
	}
	return def, false
}

func (s *Session) logTyped(f protocol.Frame) {
	if s.logger.GetLevel() < logging.LogLevelDebug {
		return
	}
	rec, err := protocol.DecodeTyped(f)
	switch {
	case err != nil:
		s.logger.Debug("  body: %v", err)
	case rec != nil:
		s.logger.Debug("  body: %+v", rec)
	}
}

func (s *Session) unhandledResponse(_ context.Context, f protocol.Frame, _ int) {
	s.stats.Unhandled++
	s.logger.Warn("UNHANDLED NCP RESPONSE! %s", f.Header.CallID)
}

func (s *Session) unhandledIndication(_ context.Context, f protocol.Frame, _ int) {
	s.stats.Unhandled++
	s.logger.Warn("UNHANDLED NCP INDICATION! %s", f.Header.CallID)
}

// Wait blocks until the transport hints at new data, the last suggested
// wait elapses or ctx ends. A wakeup does not mean data is present.
func (s *Session) Wait(ctx context.Context) error {
	if s.wait <= 0 {
		select {
		case <-s.hint:
		default:
		}
		return ctx.Err()
	}
	timer := time.NewTimer(s.wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.hint:
	case <-timer.C:
	}
	return nil
}

// Run repeats wait then poll until until reports true or ctx ends. Poll
// hooks run after every poll.
func (s *Session) Run(ctx context.Context, until func() bool) error {
	for {
		if until != nil && until() {
			return nil
		}
		if err := s.Wait(ctx); err != nil {
			return err
		}
		if _, _, err := s.PollOnce(ctx, nil); err != nil {
			return err
		}
		for _, hook := range s.pollHooks {
			if err := hook(ctx); err != nil {
				return err
			}
		}
	}
}

// Tsn returns the tsn of the last request.
func (s *Session) Tsn() uint8 { return s.tsn }

// Last returns the last dispatched frame and its received length.
func (s *Session) Last() (protocol.Frame, int) { return s.last, s.lastLen }

// Verifier returns the session's verifier.
func (s *Session) Verifier() *verify.Verifier { return s.verifier }

// Logger returns the session's logger.
func (s *Session) Logger() *logging.Logger { return s.logger }

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats { return s.stats }

// Transport returns the underlying transport.
func (s *Session) Transport() transport.Transport { return s.transport }

// Close closes the transport.
func (s *Session) Close() error {
	return s.transport.Close()
}

func handlerName(h FrameHandler) string {
	if n, ok := h.(interface{ Name() string }); ok {
		return n.Name()
	}
	if fn, ok := h.(HandlerFunc); ok {
		if rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); rf != nil {
			name := rf.Name()
			if i := strings.LastIndex(name, "."); i >= 0 {
				name = name[i+1:]
			}
			return strings.TrimSuffix(name, "-fm")
		}
	}
	return fmt.Sprintf("%T", h)
}
