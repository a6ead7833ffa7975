package session

import (
	"context"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

// Typed request helpers. Each one sends a single request; the reply arrives
// through the response handler registered for the call.

func (s *Session) SendEmpty(ctx context.Context, call spec.CallCode) error {
	return s.Send(ctx, call, nil)
}

func (s *Session) SendUint8(ctx context.Context, call spec.CallCode, v uint8) error {
	return s.Send(ctx, call, &protocol.Uint8{Value: v})
}

func (s *Session) SendUint16(ctx context.Context, call spec.CallCode, v uint16) error {
	return s.Send(ctx, call, &protocol.Uint16{Value: v})
}

func (s *Session) SendUint32(ctx context.Context, call spec.CallCode, v uint32) error {
	return s.Send(ctx, call, &protocol.Uint32{Value: v})
}

func (s *Session) SendAddr64(ctx context.Context, call spec.CallCode, addr protocol.IEEEAddr) error {
	return s.Send(ctx, call, &protocol.Addr64{Addr: addr})
}

// Reset asks the NCP to reset with the given option.
func (s *Session) Reset(ctx context.Context, opt protocol.ResetOption) error {
	return s.SendUint8(ctx, spec.NCPReset, uint8(opt))
}

func (s *Session) GetModuleVersion(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetModuleVersion)
}

func (s *Session) GetLocalIEEEAddr(ctx context.Context, macIface uint8) error {
	return s.SendUint8(ctx, spec.GetLocalIEEEAddr, macIface)
}

func (s *Session) SetChannelMask(ctx context.Context, page uint8, mask uint32) error {
	return s.Send(ctx, spec.SetZigbeeChannelMask, &protocol.Uint8Uint32{U8: page, U32: mask})
}

func (s *Session) GetChannelMask(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetZigbeeChannelMask)
}

func (s *Session) GetChannel(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetZigbeeChannel)
}

func (s *Session) SetPanID(ctx context.Context, pan uint16) error {
	return s.SendUint16(ctx, spec.SetPanID, pan)
}

func (s *Session) GetPanID(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetPanID)
}

func (s *Session) SetRole(ctx context.Context, role protocol.Role) error {
	return s.SendUint8(ctx, spec.SetZigbeeRole, uint8(role))
}

func (s *Session) GetRole(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetZigbeeRole)
}

func (s *Session) SetNwkKey(ctx context.Context, key protocol.Key, number uint8) error {
	return s.Send(ctx, spec.SetNwkKey, &protocol.NwkKey{Key: key, Number: number})
}

func (s *Session) GetNwkKeys(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetNwkKeys)
}

func (s *Session) Formation(ctx context.Context, req protocol.Formation) error {
	return s.Send(ctx, spec.NwkFormation, &req)
}

func (s *Session) Discovery(ctx context.Context, req protocol.DiscoveryReq) error {
	return s.Send(ctx, spec.NwkDiscovery, &req)
}

func (s *Session) Join(ctx context.Context, req protocol.JoinReq) error {
	return s.Send(ctx, spec.NwkNLMEJoin, &req)
}

// NwkPermitJoining opens the local node for joining for duration seconds.
func (s *Session) NwkPermitJoining(ctx context.Context, duration uint8) error {
	return s.SendUint8(ctx, spec.NwkPermitJoining, duration)
}

// ZDOPermitJoining sends Mgmt_Permit_Joining_req to dst.
func (s *Session) ZDOPermitJoining(ctx context.Context, dst uint16, duration uint8) error {
	return s.Send(ctx, spec.ZDOPermitJoiningReq, &protocol.PermitJoiningReq{DstAddr: dst, Duration: duration})
}

func (s *Session) JoinUsesIC(ctx context.Context, on bool) error {
	v := protocol.Off
	if on {
		v = protocol.On
	}
	return s.SendUint8(ctx, spec.SecurJoinUsesIC, v)
}

func (s *Session) AddIC(ctx context.Context, ieee protocol.IEEEAddr, code []byte) error {
	return s.Send(ctx, spec.SecurAddIC, &protocol.InstallCode{IEEE: ieee, Code: code})
}

func (s *Session) GetIEEEByShort(ctx context.Context, short uint16) error {
	return s.SendUint16(ctx, spec.NwkGetIEEEByShort, short)
}

func (s *Session) GetShortByIEEE(ctx context.Context, ieee protocol.IEEEAddr) error {
	return s.SendAddr64(ctx, spec.NwkGetShortByIEEE, ieee)
}

func (s *Session) GetNeighborByIEEE(ctx context.Context, ieee protocol.IEEEAddr) error {
	return s.SendAddr64(ctx, spec.NwkGetNeighborByIEEE, ieee)
}

func (s *Session) GetAPSKeyByIEEE(ctx context.Context, ieee protocol.IEEEAddr) error {
	return s.SendAddr64(ctx, spec.GetAPSKeyByIEEE, ieee)
}

func (s *Session) DataRequest(ctx context.Context, req protocol.DataReq) error {
	return s.Send(ctx, spec.APSDEDataReq, &req)
}

func (s *Session) PIMStartPoll(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.PIMStartPoll)
}

func (s *Session) SetRxOnWhenIdle(ctx context.Context, on bool) error {
	v := protocol.Off
	if on {
		v = protocol.On
	}
	return s.SendUint8(ctx, spec.SetRxOnWhenIdle, v)
}

func (s *Session) GetRxOnWhenIdle(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.GetRxOnWhenIdle)
}

// Poll control. Intervals are in quarter seconds.

func (s *Session) PIMSetLongPollInterval(ctx context.Context, qs uint32) error {
	return s.SendUint32(ctx, spec.PIMSetLongPollInterval, qs)
}

func (s *Session) PIMSetFastPollInterval(ctx context.Context, qs uint16) error {
	return s.SendUint16(ctx, spec.PIMSetFastPollInterval, qs)
}

func (s *Session) PIMEnableTurboPoll(ctx context.Context, ms uint32) error {
	return s.SendUint32(ctx, spec.PIMEnableTurboPoll, ms)
}

func (s *Session) PIMDisableTurboPoll(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.PIMDisableTurboPoll)
}

func (s *Session) PIMStartFastPoll(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.PIMStartFastPoll)
}

func (s *Session) PIMStopFastPoll(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.PIMStopFastPoll)
}

func (s *Session) PIMStopPoll(ctx context.Context) error {
	return s.SendEmpty(ctx, spec.PIMStopPoll)
}
