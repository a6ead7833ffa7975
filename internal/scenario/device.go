package scenario

// Device bring-up shared by every scenario: reset (optionally erasing
// NVRAM), read module information, configure channel, PAN and role, start
// polling and hand over to the scenario. After the required calls are seen
// the device reads back its network and link keys.

import (
	"context"

	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
)

const (
	echoRadius   = 30
	scanDuration = 5
)

type device struct {
	p   Params
	s   *session.Session
	log *logging.Logger

	resetState protocol.ResetState
	begun      bool

	keysAsked   bool
	keysPending int
	zcIEEE      protocol.IEEEAddr

	ieee    protocol.IEEEAddr
	version uint32
	channel uint8
	panID   uint16

	echoes int

	begin         func(ctx context.Context)
	onNwkKeys     func(ctx context.Context)
	onIEEEByShort func(ctx context.Context, addr protocol.IEEEAddr)
	onShortByIEEE func(ctx context.Context, short uint16)
	onDataConf    func(ctx context.Context, conf protocol.DataConf)
}

func newDevice(p Params) *device {
	return &device{p: p, resetState: protocol.ResetStateTurnedOn, log: logging.Discard()}
}

// attach registers the bring-up handlers and the key dump poll hook.
func (d *device) attach(s *session.Session) {
	d.s = s
	d.log = s.Logger()
	s.UpdateResponseHandlers(session.Handlers{
		spec.NCPReset:             session.HandlerFunc(d.ncpResetRsp),
		spec.GetModuleVersion:     session.HandlerFunc(d.moduleVersionRsp),
		spec.GetLocalIEEEAddr:     session.HandlerFunc(d.localIEEEAddrRsp),
		spec.SetZigbeeChannelMask: session.HandlerFunc(d.channelMaskSet),
		spec.GetZigbeeChannelMask: session.HandlerFunc(d.channelMaskRsp),
		spec.GetZigbeeChannel:     session.HandlerFunc(d.channelRsp),
		spec.SetPanID:             session.HandlerFunc(d.panIDSet),
		spec.GetPanID:             session.HandlerFunc(d.panIDRsp),
		spec.SetZigbeeRole:        session.HandlerFunc(d.roleSet),
		spec.GetZigbeeRole:        session.HandlerFunc(d.roleRsp),
		spec.PIMStartPoll:         session.HandlerFunc(d.autoPollSet),
		spec.GetNwkKeys:           session.HandlerFunc(d.nwkKeysRsp),
		spec.NwkGetIEEEByShort:    session.HandlerFunc(d.ieeeByShortRsp),
		spec.NwkGetNeighborByIEEE: session.HandlerFunc(d.neighborByIEEERsp),
		spec.NwkGetShortByIEEE:    session.HandlerFunc(d.shortByIEEERsp),
		spec.GetAPSKeyByIEEE:      session.HandlerFunc(d.apsKeyRsp),
		spec.APSDEDataReq:         session.HandlerFunc(d.dataConf),
	})
	s.UpdateIndicationHandlers(session.Handlers{
		spec.NCPReset:     session.HandlerFunc(d.ncpResetInd),
		spec.APSDEDataInd: session.HandlerFunc(d.dataInd),
	})
	s.OnPoll(d.dumpKeys)
}

// done reports whether the required calls were seen and the key dump, if
// enabled, has finished.
func (d *device) done() bool {
	if d.s == nil || !d.s.Verifier().Done() {
		return false
	}
	return d.p.SkipKeyDump || (d.keysAsked && d.keysPending == 0)
}

func (d *device) send(err error) {
	if err != nil {
		d.log.Error("send failed: %v", err)
	}
}

func (d *device) decode(f protocol.Frame, rec protocol.Record) bool {
	if err := protocol.DecodeBody(f.Body, rec); err != nil {
		d.log.Error("%s: bad body: %v", f.Header.CallID, err)
		return false
	}
	return true
}

func (d *device) failed(f protocol.Frame) bool {
	if f.Header.Status.OK() {
		return false
	}
	d.log.Warn("%s failed with %s, not continuing", f.Header.CallID, f.Header.Status)
	return true
}

func (d *device) ncpResetRsp(ctx context.Context, _ protocol.Frame, _ int) {
	d.afterReset(ctx)
}

func (d *device) ncpResetInd(ctx context.Context, f protocol.Frame, _ int) {
	var src protocol.Uint8
	if len(f.Body) > 0 && d.decode(f, &src) {
		d.log.Info("reset source %d", src.Value)
	}
	d.afterReset(ctx)
}

func (d *device) afterReset(ctx context.Context) {
	if !d.p.EraseNVRAM {
		d.send(d.s.GetModuleVersion(ctx))
		return
	}
	switch d.resetState {
	case protocol.ResetStateTurnedOn:
		d.resetState = protocol.ResetStateNVRAMErase
		d.send(d.s.Reset(ctx, protocol.ResetNVRAMErase))
	case protocol.ResetStateNVRAMErase:
		d.resetState = protocol.ResetStateNVRAMHasErased
		d.send(d.s.GetModuleVersion(ctx))
	default:
		d.log.Warn("unexpected reset in state %d", d.resetState)
	}
}

func (d *device) moduleVersionRsp(ctx context.Context, f protocol.Frame, _ int) {
	var v protocol.ModuleVersion
	if d.decode(f, &v) {
		d.version = v.Version
		d.log.Info("module version %#08x", v.Version)
	}
	d.send(d.s.GetLocalIEEEAddr(ctx, 0))
}

func (d *device) localIEEEAddrRsp(ctx context.Context, f protocol.Frame, _ int) {
	var a protocol.LocalAddr
	if d.decode(f, &a) {
		d.ieee = a.IEEE
		d.log.Info("local ieee %s (mac iface %d)", a.IEEE, a.MACIface)
	}
	d.send(d.s.SetChannelMask(ctx, d.p.ChannelPage, d.p.ChannelMask))
}

func (d *device) channelMaskSet(ctx context.Context, _ protocol.Frame, _ int) {
	d.send(d.s.GetChannelMask(ctx))
}

func (d *device) channelMaskRsp(ctx context.Context, f protocol.Frame, _ int) {
	var l protocol.ChannelList
	if d.decode(f, &l) {
		for _, e := range l.Entries {
			d.log.Info("channel page %d mask %#08x", e.Page, e.Mask)
		}
	}
	d.send(d.s.GetChannel(ctx))
}

func (d *device) channelRsp(ctx context.Context, f protocol.Frame, _ int) {
	var c protocol.Channel
	if d.decode(f, &c) {
		d.channel = c.Channel
		d.log.Info("channel %d", c.Channel)
	}
	if d.setsPanID() {
		d.send(d.s.SetPanID(ctx, d.p.PanID))
		return
	}
	d.send(d.s.GetPanID(ctx))
}

func (d *device) setsPanID() bool {
	return d.p.Role == protocol.RoleZC && d.p.PanID != 0
}

func (d *device) panIDSet(ctx context.Context, _ protocol.Frame, _ int) {
	d.send(d.s.GetPanID(ctx))
}

func (d *device) panIDRsp(ctx context.Context, f protocol.Frame, _ int) {
	var pan protocol.Uint16
	if d.decode(f, &pan) {
		d.panID = pan.Value
		d.log.Info("pan id %#04x", pan.Value)
	}
	d.send(d.s.SetRole(ctx, d.p.Role))
}

func (d *device) roleSet(ctx context.Context, _ protocol.Frame, _ int) {
	d.send(d.s.GetRole(ctx))
}

func (d *device) roleRsp(ctx context.Context, f protocol.Frame, _ int) {
	var role protocol.Uint8
	if d.decode(f, &role) {
		d.log.Info("role %s", protocol.Role(role.Value))
	}
	if d.begun {
		return
	}
	if d.p.AutoPoll {
		d.send(d.s.PIMStartPoll(ctx))
		return
	}
	d.start(ctx)
}

func (d *device) autoPollSet(ctx context.Context, _ protocol.Frame, _ int) {
	if !d.begun {
		d.start(ctx)
	}
}

func (d *device) start(ctx context.Context) {
	d.begun = true
	d.log.Info("bring-up complete")
	if d.begin != nil {
		d.begin(ctx)
	}
}

func (d *device) nwkKeysRsp(ctx context.Context, f protocol.Frame, _ int) {
	var keys protocol.NwkKeys
	if d.decode(f, &keys) {
		for i, k := range keys.Keys {
			d.log.Info("nwk key #%d: %s seq %d", i, k.Key, k.Number)
		}
	}
	if d.keysAsked {
		d.keysPending--
		return
	}
	if d.onNwkKeys != nil {
		d.onNwkKeys(ctx)
	}
}

func (d *device) ieeeByShortRsp(ctx context.Context, f protocol.Frame, _ int) {
	var a protocol.Addr64
	if d.failed(f) || !d.decode(f, &a) {
		if d.keysAsked {
			d.keysPending--
		}
		return
	}
	if d.keysAsked {
		d.zcIEEE = a.Addr
		d.send(d.s.GetAPSKeyByIEEE(ctx, a.Addr))
		return
	}
	if d.onIEEEByShort != nil {
		d.onIEEEByShort(ctx, a.Addr)
	}
}

func (d *device) neighborByIEEERsp(ctx context.Context, f protocol.Frame, _ int) {
	var n protocol.Neighbor
	if d.failed(f) || !d.decode(f, &n) {
		return
	}
	d.log.Info("neighbor %s short %#04x type %s relationship %s lqi %d",
		n.IEEE, n.ShortAddr, n.DeviceType, n.Relationship, n.LQI)
	d.send(d.s.GetShortByIEEE(ctx, n.IEEE))
}

func (d *device) shortByIEEERsp(ctx context.Context, f protocol.Frame, _ int) {
	var short protocol.Uint16
	if d.failed(f) || !d.decode(f, &short) {
		return
	}
	d.log.Info("short address %#04x", short.Value)
	if d.onShortByIEEE != nil {
		d.onShortByIEEE(ctx, short.Value)
	}
}

func (d *device) apsKeyRsp(ctx context.Context, f protocol.Frame, _ int) {
	var key protocol.APSKey
	if f.Header.Status.OK() && d.decode(f, &key) {
		d.log.Info("aps key %s", key.Key)
	}
	if d.keysAsked {
		d.log.Info("ZC ieee %s", d.zcIEEE)
		d.keysPending--
		return
	}
}

func (d *device) dataConf(ctx context.Context, f protocol.Frame, _ int) {
	if len(f.Body) == 0 {
		d.log.Info("apsde-data.conf status %s", f.Header.Status)
		return
	}
	var conf protocol.DataConf
	if !d.decode(f, &conf) {
		return
	}
	d.log.Info("apsde-data.conf to %s ep %d status %s",
		conf.DstAddr.Format(conf.AddrMode), conf.DstEP, f.Header.Status)
	if d.onDataConf != nil {
		d.onDataConf(ctx, conf)
	}
}

func (d *device) dataInd(ctx context.Context, f protocol.Frame, _ int) {
	var ind protocol.DataInd
	if !d.decode(f, &ind) {
		return
	}
	d.log.Info("  data: % x", ind.Data)
	d.echo(ctx, ind)
}

// echo sends the payload back to its source with endpoints swapped.
func (d *device) echo(ctx context.Context, ind protocol.DataInd) {
	if d.echoes >= d.p.EchoLimit {
		d.log.Verbose("echo limit %d reached", d.p.EchoLimit)
		return
	}
	d.echoes++
	req := protocol.DataReq{
		Params: protocol.DataReqParams{
			DstAddr:   protocol.ShortAddress(ind.SrcAddr),
			ProfileID: ind.ProfileID,
			ClusterID: ind.ClusterID,
			DstEP:     ind.SrcEP,
			SrcEP:     ind.DstEP,
			Radius:    echoRadius,
			AddrMode:  protocol.AddrMode16EndpPresent,
			TxOptions: protocol.TxSecurity | protocol.TxAck,
		},
		Data: ind.Data,
	}
	d.send(d.s.DataRequest(ctx, req))
}

// dumpKeys runs after every poll. Once the required calls were seen it asks
// for the network keys and the trust center link key.
func (d *device) dumpKeys(ctx context.Context) error {
	if d.p.SkipKeyDump || d.keysAsked || !d.s.Verifier().Done() {
		return nil
	}
	d.log.Info("asking keys after test complete")
	d.keysAsked = true
	d.keysPending = 2
	if err := d.s.GetNwkKeys(ctx); err != nil {
		return err
	}
	return d.s.GetIEEEByShort(ctx, 0)
}
