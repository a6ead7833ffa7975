package scenario

import (
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

// bringupCalls lists the calls every scenario sees before its own steps.
func bringupCalls(p Params) []spec.CallCode {
	calls := []spec.CallCode{spec.NCPReset}
	if p.EraseNVRAM {
		calls = append(calls, spec.NCPReset)
	}
	calls = append(calls,
		spec.GetModuleVersion,
		spec.GetLocalIEEEAddr,
		spec.SetZigbeeChannelMask,
		spec.GetZigbeeChannelMask,
		spec.GetZigbeeChannel,
	)
	if p.Role == protocol.RoleZC && p.PanID != 0 {
		calls = append(calls, spec.SetPanID)
	}
	calls = append(calls, spec.GetPanID, spec.SetZigbeeRole, spec.GetZigbeeRole)
	if p.AutoPoll {
		calls = append(calls, spec.PIMStartPoll)
	}
	return calls
}

// bringup configures the NCP and stops.
type bringup struct {
	*device
}

func newBringup(p Params) *bringup {
	return &bringup{device: newDevice(p)}
}

func (b *bringup) Name() string { return "bringup" }

func (b *bringup) Required() []verify.Entry { return verify.Calls(bringupCalls(b.p)...) }

func (b *bringup) Script() *transport.Script {
	s := bringupScript(b.p)
	keyDumpScript(s, b.p, simLocalIEEE)
	return s
}

func (b *bringup) Attach(s *session.Session) { b.attach(s) }

func (b *bringup) Done() bool { return b.done() }
