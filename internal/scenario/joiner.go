package scenario

// Router and end device: discover the network, join it and echo the APS
// data the coordinator sends. The end device sleeps between polls and
// walks the poll control modes while echoing.

import (
	"context"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

// Poll control settings used by the end device.
const (
	longPollInterval uint32 = 4 // quarter seconds
	fastPollInterval uint16 = 2 // quarter seconds
	turboPollTime    uint32 = 1
)

// pollStep is a poll mode change made after a number of confirmed echoes.
type pollStep struct {
	after int
	call  spec.CallCode
	send  func(*session.Session, context.Context) error
}

var pollSteps = []pollStep{
	{3, spec.PIMDisableTurboPoll, (*session.Session).PIMDisableTurboPoll},
	{6, spec.PIMStartFastPoll, (*session.Session).PIMStartFastPoll},
	{9, spec.PIMStopFastPoll, (*session.Session).PIMStopFastPoll},
	{12, spec.PIMStopPoll, (*session.Session).PIMStopPoll},
}

func stepAfter(n int) (pollStep, bool) {
	for _, st := range pollSteps {
		if st.after == n {
			return st, true
		}
	}
	return pollStep{}, false
}

// joiner holds what routers and end devices share.
type joiner struct {
	*device
	capability protocol.MACCapability
	confirms   int
	network    protocol.NetworkDescriptor
	shortAddr  uint16
	joined     func(ctx context.Context)
}

func newJoiner(p Params, capability protocol.MACCapability) *joiner {
	return &joiner{device: newDevice(p), capability: capability}
}

// peer is the coordinator as seen from the joining device.
func (j *joiner) peer() remoteNode {
	return remoteNode{short: 0x0000, ieee: simPeerIEEE, local: simJoinedShort}
}

func (j *joiner) attachJoin(s *session.Session) {
	j.attach(s)
	s.UpdateResponseHandlers(session.Handlers{
		spec.NwkDiscovery: session.HandlerFunc(j.discoveryRsp),
		spec.NwkNLMEJoin:  session.HandlerFunc(j.joinRsp),
	})
}

func (j *joiner) discover(ctx context.Context) {
	j.send(j.s.Discovery(ctx, protocol.DiscoveryReq{
		Pages:        1,
		Page:         j.p.ChannelPage,
		ChannelMask:  j.p.ChannelMask,
		ScanDuration: scanDuration,
	}))
}

func (j *joiner) discoveryRsp(ctx context.Context, f protocol.Frame, _ int) {
	var rsp protocol.DiscoveryRsp
	if j.failed(f) || !j.decode(f, &rsp) {
		return
	}
	found := false
	for _, n := range rsp.Networks {
		j.log.Info("network %s pan %#04x page %d channel %d profile %d permit %v",
			n.ExtPanID, n.PanID, n.Page, n.Channel, n.StackProfile(), n.PermitJoining())
		if !found && n.PermitJoining() {
			j.network = n
			found = true
		}
	}
	if !found {
		j.log.Warn("no network open for joining")
		return
	}
	j.send(j.s.Join(ctx, protocol.JoinReq{
		ExtPanID:     j.network.ExtPanID,
		Pages:        1,
		Page:         j.network.Page,
		ChannelMask:  1 << j.network.Channel,
		ScanDuration: scanDuration,
		Capability:   uint8(j.capability),
	}))
}

func (j *joiner) joinRsp(ctx context.Context, f protocol.Frame, _ int) {
	var rsp protocol.JoinRsp
	if j.failed(f) || !j.decode(f, &rsp) {
		return
	}
	j.shortAddr = rsp.ShortAddr
	j.log.Info("joined %s as %#04x on page %d channel %d", rsp.ExtPanID, rsp.ShortAddr, rsp.Page, rsp.Channel)
	if j.joined != nil {
		j.joined(ctx)
	}
}

// joinScript answers discovery and join.
func (j *joiner) joinScript(s *transport.Script, inds ...transport.Indication) {
	n := simNetwork(j.p)
	s.On(spec.NwkDiscovery, transport.Reply{Body: &protocol.DiscoveryRsp{Networks: []protocol.NetworkDescriptor{n}}})
	s.On(spec.NwkNLMEJoin, transport.Reply{
		Body: &protocol.JoinRsp{
			ShortAddr: simJoinedShort,
			ExtPanID:  n.ExtPanID,
			Page:      n.Page,
			Channel:   n.Channel,
		},
		Indications: inds,
	})
}

// firstInd is the first packet of the echo exchange, if there is one.
func (j *joiner) firstInd() []transport.Indication {
	if j.p.EchoLimit < 1 {
		return nil
	}
	return []transport.Indication{j.peer().dataInd(1)}
}

// router joins as a router and echoes.
type router struct {
	*joiner
}

func newRouter(p Params) *router {
	return &router{joiner: newJoiner(p, protocol.CapRouter|protocol.CapAllocateAddress)}
}

func (r *router) Name() string { return "zr" }

func (r *router) Required() []verify.Entry {
	calls := bringupCalls(r.p)
	calls = append(calls, spec.NwkDiscovery, spec.NwkNLMEJoin)
	calls = append(calls, echoCalls(r.p.EchoLimit)...)
	return verify.Calls(calls...)
}

func (r *router) Script() *transport.Script {
	s := bringupScript(r.p)
	r.joinScript(s, r.firstInd()...)
	r.peer().echoReplies(s, r.p.EchoLimit)
	keyDumpScript(s, r.p, simPeerIEEE)
	return s
}

func (r *router) Attach(s *session.Session) {
	r.begin = r.discover
	r.attachJoin(s)
}

func (r *router) Done() bool { return r.done() }

// endDevice joins as a sleepy end device, sets up poll control and changes
// poll mode every few echoes.
type endDevice struct {
	*joiner
}

func newEndDevice(p Params) *endDevice {
	return &endDevice{joiner: newJoiner(p, protocol.CapAllocateAddress)}
}

func (e *endDevice) Name() string { return "zed" }

func (e *endDevice) Required() []verify.Entry {
	calls := bringupCalls(e.p)
	calls = append(calls,
		spec.SetRxOnWhenIdle,
		spec.GetRxOnWhenIdle,
		spec.NwkDiscovery,
		spec.NwkNLMEJoin,
		spec.PIMSetLongPollInterval,
		spec.PIMSetFastPollInterval,
		spec.PIMEnableTurboPoll,
	)
	for n := 1; n <= e.p.EchoLimit; n++ {
		calls = append(calls, spec.APSDEDataInd, spec.APSDEDataReq)
		if st, ok := stepAfter(n); ok {
			calls = append(calls, st.call)
			if st.call == spec.PIMStopPoll {
				calls = append(calls, spec.PIMStartPoll)
			}
		}
	}
	return verify.Calls(calls...)
}

// Script delivers the first packet with the turbo poll reply. Confirms
// carry the next packet unless a poll mode change follows, in which case
// the change's reply carries it.
func (e *endDevice) Script() *transport.Script {
	peer := e.peer()
	total := e.p.EchoLimit
	next := func(n int) []transport.Indication {
		if n > total {
			return nil
		}
		return []transport.Indication{peer.dataInd(n)}
	}

	s := bringupScript(e.p)
	s.On(spec.GetRxOnWhenIdle, transport.Reply{Body: &protocol.Uint8{Value: protocol.Off}})
	e.joinScript(s)
	s.On(spec.PIMEnableTurboPoll, transport.Reply{Indications: next(1)})

	for n := 1; n <= total; n++ {
		st, ok := stepAfter(n)
		if !ok {
			s.On(spec.APSDEDataReq, peer.dataConf(next(n+1)...))
			continue
		}
		s.On(spec.APSDEDataReq, peer.dataConf())
		if st.call != spec.PIMStopPoll {
			s.On(st.call, transport.Reply{Indications: next(n + 1)})
			continue
		}
		if e.p.AutoPoll {
			s.On(spec.PIMStartPoll, transport.Reply{})
		}
		s.On(spec.PIMStartPoll, transport.Reply{Indications: next(n + 1)})
	}
	keyDumpScript(s, e.p, simPeerIEEE)
	return s
}

func (e *endDevice) Attach(s *session.Session) {
	e.begin = e.rxOffWhenIdle
	e.joined = e.setupPolling
	e.onDataConf = e.confirmed
	e.attachJoin(s)
	s.UpdateResponseHandlers(session.Handlers{
		spec.SetRxOnWhenIdle:        session.HandlerFunc(e.rxOnWhenIdleSet),
		spec.GetRxOnWhenIdle:        session.HandlerFunc(e.rxOnWhenIdleRsp),
		spec.PIMSetLongPollInterval: session.HandlerFunc(e.longPollSet),
		spec.PIMSetFastPollInterval: session.HandlerFunc(e.fastPollSet),
		spec.PIMEnableTurboPoll:     session.HandlerFunc(e.pollModeSet),
		spec.PIMDisableTurboPoll:    session.HandlerFunc(e.pollModeSet),
		spec.PIMStartFastPoll:       session.HandlerFunc(e.pollModeSet),
		spec.PIMStopFastPoll:        session.HandlerFunc(e.pollModeSet),
		spec.PIMStopPoll:            session.HandlerFunc(e.pollStopped),
	})
}

func (e *endDevice) Done() bool { return e.done() }

func (e *endDevice) rxOffWhenIdle(ctx context.Context) {
	e.send(e.s.SetRxOnWhenIdle(ctx, false))
}

func (e *endDevice) rxOnWhenIdleSet(ctx context.Context, _ protocol.Frame, _ int) {
	e.send(e.s.GetRxOnWhenIdle(ctx))
}

func (e *endDevice) rxOnWhenIdleRsp(ctx context.Context, f protocol.Frame, _ int) {
	var v protocol.Uint8
	if e.decode(f, &v) {
		e.log.Info("rx on when idle %d", v.Value)
	}
	e.discover(ctx)
}

func (e *endDevice) setupPolling(ctx context.Context) {
	e.send(e.s.PIMSetLongPollInterval(ctx, longPollInterval))
}

func (e *endDevice) longPollSet(ctx context.Context, _ protocol.Frame, _ int) {
	e.send(e.s.PIMSetFastPollInterval(ctx, fastPollInterval))
}

func (e *endDevice) fastPollSet(ctx context.Context, _ protocol.Frame, _ int) {
	e.send(e.s.PIMEnableTurboPoll(ctx, turboPollTime))
}

func (e *endDevice) pollModeSet(_ context.Context, f protocol.Frame, _ int) {
	e.log.Info("%s: %s", f.Header.CallID, f.Header.Status)
}

func (e *endDevice) pollStopped(ctx context.Context, _ protocol.Frame, _ int) {
	e.log.Info("polling stopped, restarting")
	e.send(e.s.PIMStartPoll(ctx))
}

func (e *endDevice) confirmed(ctx context.Context, _ protocol.DataConf) {
	e.confirms++
	st, ok := stepAfter(e.confirms)
	if !ok {
		return
	}
	e.log.Info("%d echoes confirmed, %s", e.confirms, st.call)
	e.send(st.send(e.s, ctx))
}
