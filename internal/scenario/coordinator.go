package scenario

// Coordinator: form a network with a fixed network key, open it for joining
// with an install code and, in the echo variant, echo the APS data a joined
// device sends.

import (
	"context"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

const permitJoinDuration uint8 = 0xFE

type coordinator struct {
	*device
	echoing bool
	formed  bool

	remote      protocol.IEEEAddr
	remoteShort uint16
}

func newCoordinator(p Params, echoing bool) *coordinator {
	return &coordinator{device: newDevice(p), echoing: echoing}
}

func (c *coordinator) Name() string {
	if c.echoing {
		return "zc_echo"
	}
	return "zc"
}

func (c *coordinator) Required() []verify.Entry {
	calls := bringupCalls(c.p)
	calls = append(calls,
		spec.SetNwkKey,
		spec.GetNwkKeys,
		spec.NwkFormation,
		spec.ZDOPermitJoiningReq,
		spec.SecurJoinUsesIC,
		spec.SecurAddIC,
		spec.GetZigbeeRole,
	)
	if c.echoing {
		calls = append(calls,
			spec.ZDODevAnnceInd,
			spec.NwkGetIEEEByShort,
			spec.NwkGetNeighborByIEEE,
			spec.NwkGetShortByIEEE,
			spec.GetAPSKeyByIEEE,
		)
		calls = append(calls, echoCalls(c.p.EchoLimit)...)
	}
	return verify.Calls(calls...)
}

// echoCalls is one indication and one confirmed echo per packet.
func echoCalls(n int) []spec.CallCode {
	calls := make([]spec.CallCode, 0, 2*n)
	for i := 0; i < n; i++ {
		calls = append(calls, spec.APSDEDataInd, spec.APSDEDataReq)
	}
	return calls
}

func (c *coordinator) Script() *transport.Script {
	s := bringupScript(c.p)
	if c.echoing {
		peer := remoteNode{short: simJoinedShort, ieee: simPeerIEEE, local: 0x0000}
		s.On(spec.GetZigbeeRole, transport.Reply{
			Body: &protocol.Uint8{Value: uint8(protocol.RoleZC)},
			Indications: []transport.Indication{{
				Call: spec.ZDODevAnnceInd,
				Body: &protocol.DevAnnce{
					ShortAddr:  peer.short,
					IEEE:       peer.ieee,
					Capability: protocol.CapRouter | protocol.CapAllocateAddress,
				},
			}},
		})
		s.On(spec.NwkGetIEEEByShort, transport.Reply{Body: &protocol.Addr64{Addr: peer.ieee}})
		s.On(spec.NwkGetNeighborByIEEE, transport.Reply{Body: &protocol.Neighbor{
			IEEE:         peer.ieee,
			ShortAddr:    peer.short,
			DeviceType:   protocol.DeviceZR,
			RxOnWhenIdle: protocol.On,
			Relationship: protocol.RelChild,
			LQI:          0xFF,
		}})
		s.On(spec.NwkGetShortByIEEE, transport.Reply{Body: &protocol.Uint16{Value: peer.short}})
		s.On(spec.GetAPSKeyByIEEE, transport.Reply{
			Body:        &protocol.APSKey{Key: simTCLinkKey},
			Indications: []transport.Indication{peer.dataInd(1)},
		})
		peer.echoReplies(s, c.p.EchoLimit)
	}
	keyDumpScript(s, c.p, simLocalIEEE)
	return s
}

func (c *coordinator) Attach(s *session.Session) {
	c.begin = c.setNwkKey
	c.onNwkKeys = c.formNetwork
	c.onIEEEByShort = c.remoteIEEE
	c.onShortByIEEE = c.remoteShortAddr
	c.attach(s)
	s.UpdateResponseHandlers(session.Handlers{
		spec.SetNwkKey:           session.HandlerFunc(c.nwkKeySet),
		spec.NwkFormation:        session.HandlerFunc(c.formationDone),
		spec.ZDOPermitJoiningReq: session.HandlerFunc(c.permitJoiningRsp),
		spec.SecurJoinUsesIC:     session.HandlerFunc(c.joinUsesICRsp),
		spec.SecurAddIC:          session.HandlerFunc(c.addICRsp),
	})
	s.UpdateIndicationHandlers(session.Handlers{
		spec.ZDODevAnnceInd: session.HandlerFunc(c.devAnnceInd),
	})
}

func (c *coordinator) Done() bool { return c.done() }

func (c *coordinator) setNwkKey(ctx context.Context) {
	c.send(c.s.SetNwkKey(ctx, c.p.NwkKey, 0))
}

func (c *coordinator) nwkKeySet(ctx context.Context, f protocol.Frame, _ int) {
	if c.failed(f) {
		return
	}
	c.send(c.s.GetNwkKeys(ctx))
}

// formNetwork runs once, from the first key read-back.
func (c *coordinator) formNetwork(ctx context.Context) {
	if c.formed {
		return
	}
	c.formed = true
	c.send(c.s.Formation(ctx, protocol.Formation{
		Pages:        1,
		Page:         c.p.ChannelPage,
		ChannelMask:  c.p.ChannelMask,
		ScanDuration: scanDuration,
	}))
}

func (c *coordinator) formationDone(ctx context.Context, f protocol.Frame, _ int) {
	if c.failed(f) {
		return
	}
	c.log.Info("formation complete")
	c.send(c.s.ZDOPermitJoining(ctx, 0x0000, permitJoinDuration))
}

func (c *coordinator) permitJoiningRsp(ctx context.Context, f protocol.Frame, _ int) {
	if c.failed(f) {
		return
	}
	c.send(c.s.JoinUsesIC(ctx, true))
}

func (c *coordinator) joinUsesICRsp(ctx context.Context, f protocol.Frame, _ int) {
	if c.failed(f) {
		return
	}
	c.send(c.s.AddIC(ctx, c.p.ICIEEE, c.p.InstallCode))
}

func (c *coordinator) addICRsp(ctx context.Context, f protocol.Frame, _ int) {
	if c.failed(f) {
		return
	}
	c.log.Info("install code added for %s", c.p.ICIEEE)
	c.send(c.s.GetRole(ctx))
}

func (c *coordinator) devAnnceInd(ctx context.Context, f protocol.Frame, _ int) {
	var da protocol.DevAnnce
	if !c.decode(f, &da) {
		return
	}
	c.log.Info("device announce: short %#04x ieee %s cap %#02x", da.ShortAddr, da.IEEE, uint8(da.Capability))
	c.remoteShort = da.ShortAddr
	if c.echoing {
		c.send(c.s.GetIEEEByShort(ctx, da.ShortAddr))
	}
}

func (c *coordinator) remoteIEEE(ctx context.Context, addr protocol.IEEEAddr) {
	c.remote = addr
	c.send(c.s.GetNeighborByIEEE(ctx, addr))
}

func (c *coordinator) remoteShortAddr(ctx context.Context, short uint16) {
	if short != c.remoteShort {
		c.log.Warn("short address %#04x does not match announced %#04x", short, c.remoteShort)
	}
	c.send(c.s.GetAPSKeyByIEEE(ctx, c.remote))
}
