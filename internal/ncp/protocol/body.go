package protocol

import (
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

type recordFactory func() Record

func newRecord[T any, P interface {
	*T
	Record
}]() recordFactory {
	return func() Record { return P(new(T)) }
}

var requestRecords = map[spec.CallCode]recordFactory{
	spec.NCPReset:                newRecord[Uint8](),
	spec.SetZigbeeRole:           newRecord[Uint8](),
	spec.SetZigbeeChannelMask:    newRecord[Uint8Uint32](),
	spec.SetPanID:                newRecord[Uint16](),
	spec.SetLocalIEEEAddr:        newRecord[LocalAddr](),
	spec.SetTrace:                newRecord[Uint32](),
	spec.SetKeepaliveTimeout:     newRecord[Uint32](),
	spec.SetTxPower:              newRecord[Uint32](),
	spec.SetRxOnWhenIdle:         newRecord[Uint8](),
	spec.SetEDTimeout:            newRecord[Uint8](),
	spec.AddVisibleDev:           newRecord[Addr64](),
	spec.AddInvisibleShort:       newRecord[Uint16](),
	spec.RmInvisibleShort:        newRecord[Uint16](),
	spec.SetNwkKey:               newRecord[NwkKey](),
	spec.GetAPSKeyByIEEE:         newRecord[Addr64](),
	spec.BigPktToNCP:             newRecord[LongPayload](),
	spec.AFSetSimpleDesc:         newRecord[SimpleDesc](),
	spec.AFDelEP:                 newRecord[Uint8](),
	spec.AFSetNodeDesc:           newRecord[AFNodeDesc](),
	spec.AFSetPowerDesc:          newRecord[AFPowerDesc](),
	spec.ZDONwkAddrReq:           newRecord[NwkAddrReq](),
	spec.ZDOIEEEAddrReq:          newRecord[IEEEAddrReq](),
	spec.ZDOPowerDescReq:         newRecord[Uint16](),
	spec.ZDONodeDescReq:          newRecord[Uint16](),
	spec.ZDOSimpleDescReq:        newRecord[Uint16Uint8](),
	spec.ZDOActiveEPReq:          newRecord[Uint16](),
	spec.ZDOMatchDescReq:         newRecord[MatchDescReq](),
	spec.ZDOBindReq:              newRecord[BindReq](),
	spec.ZDOUnbindReq:            newRecord[BindReq](),
	spec.ZDOMgmtLeaveReq:         newRecord[MgmtLeaveReq](),
	spec.ZDOPermitJoiningReq:     newRecord[PermitJoiningReq](),
	spec.ZDORejoin:               newRecord[RejoinReq](),
	spec.APSDEDataReq:            newRecord[DataReq](),
	spec.APSMEBind:               newRecord[Bind](),
	spec.APSMEUnbind:             newRecord[Bind](),
	spec.APSMEAddGroup:           newRecord[Group](),
	spec.APSMERmGroup:            newRecord[Group](),
	spec.APSMERmAllGroups:        newRecord[Uint8](),
	spec.NwkFormation:            newRecord[Formation](),
	spec.NwkDiscovery:            newRecord[DiscoveryReq](),
	spec.NwkNLMEJoin:             newRecord[JoinReq](),
	spec.NwkPermitJoining:        newRecord[Uint8](),
	spec.NwkGetIEEEByShort:       newRecord[Uint16](),
	spec.NwkGetShortByIEEE:       newRecord[Addr64](),
	spec.NwkGetNeighborByIEEE:    newRecord[Addr64](),
	spec.SetEDKeepaliveTimeout:   newRecord[Uint32](),
	spec.PIMSetFastPollInterval:  newRecord[Uint16](),
	spec.PIMSetLongPollInterval:  newRecord[Uint32](),
	spec.PIMEnableTurboPoll:      newRecord[Uint32](),
	spec.NwkPanIDConflictResolve: newRecord[PanIDConflict](),
	spec.SecurSetLocalIC:         newRecord[RawBytes](),
	spec.SecurAddIC:              newRecord[InstallCode](),
	spec.SecurDelIC:              newRecord[Addr64](),
	spec.SecurAddCert:            newRecord[Cert](),
	spec.SecurDelCert:            newRecord[CertRef](),
	spec.SecurStartKE:            newRecord[Uint8](),
	spec.SecurStartPartnerLK:     newRecord[Uint16](),
	spec.SecurJoinUsesIC:         newRecord[Uint8](),
	spec.SecurGetICByIEEE:        newRecord[Addr64](),
	spec.SecurGetCert:            newRecord[CertRef](),
	spec.ManufSetChannel:         newRecord[Uint8](),
	spec.ManufSetPower:           newRecord[Int8](),
	spec.ManufStartStreamRandom:  newRecord[Uint16](),
	spec.ManufSendSinglePacket:   newRecord[Payload](),
	spec.OTASendPortionFW:        newRecord[LongPayload](),
}

var responseRecords = map[spec.CallCode]recordFactory{
	spec.GetModuleVersion:      newRecord[ModuleVersion](),
	spec.GetZigbeeRole:         newRecord[Uint8](),
	spec.GetZigbeeChannelMask:  newRecord[ChannelList](),
	spec.GetZigbeeChannel:      newRecord[Channel](),
	spec.GetPanID:              newRecord[Uint16](),
	spec.GetLocalIEEEAddr:      newRecord[LocalAddr](),
	spec.GetKeepaliveTimeout:   newRecord[Uint32](),
	spec.GetRxOnWhenIdle:       newRecord[Uint8](),
	spec.GetJoined:             newRecord[Uint8](),
	spec.GetAuthenticated:      newRecord[Uint8](),
	spec.GetEDTimeout:          newRecord[Uint8](),
	spec.GetSerialNumber:       newRecord[SerialNumber](),
	spec.GetVendorData:         newRecord[Payload](),
	spec.GetNwkKeys:            newRecord[NwkKeys](),
	spec.GetAPSKeyByIEEE:       newRecord[APSKey](),
	spec.BigPktFromNCP:         newRecord[LongPayload](),
	spec.ZDONwkAddrReq:         newRecord[AddrRsp](),
	spec.ZDOIEEEAddrReq:        newRecord[AddrRsp](),
	spec.ZDOPowerDescReq:       newRecord[PowerDesc](),
	spec.ZDONodeDescReq:        newRecord[NodeDesc](),
	spec.ZDOSimpleDescReq:      newRecord[SimpleDesc](),
	spec.ZDOActiveEPReq:        newRecord[EndpointList](),
	spec.ZDOMatchDescReq:       newRecord[EndpointList](),
	spec.APSDEDataReq:          newRecord[DataConf](),
	spec.NwkDiscovery:          newRecord[DiscoveryRsp](),
	spec.NwkNLMEJoin:           newRecord[JoinRsp](),
	spec.NwkGetIEEEByShort:     newRecord[Addr64](),
	spec.NwkGetShortByIEEE:     newRecord[Uint16](),
	spec.NwkGetNeighborByIEEE:  newRecord[Neighbor](),
	spec.NwkGetFirstNbtEntry:   newRecord[Neighbor](),
	spec.NwkGetNextNbtEntry:    newRecord[Neighbor](),
	spec.GetEDKeepaliveTimeout: newRecord[Uint32](),
	spec.SecurGetICByIEEE:      newRecord[ICRsp](),
	spec.SecurGetLocalIC:       newRecord[ICRsp](),
	spec.SecurGetCert:          newRecord[Cert](),
	spec.ManufGetChannel:       newRecord[Uint8](),
	spec.ManufGetPower:         newRecord[Int8](),
}

var indicationRecords = map[spec.CallCode]recordFactory{
	spec.NCPReset:                  newRecord[Uint8](),
	spec.ZDODevAnnceInd:            newRecord[DevAnnce](),
	spec.APSDEDataInd:              newRecord[DataInd](),
	spec.NwkLeaveInd:               newRecord[LeaveInd](),
	spec.NwkPanIDConflictInd:       newRecord[PanIDConflict](),
	spec.NwkAddressUpdateInd:       newRecord[Uint16](),
	spec.SecurChildKEFinishedInd:   newRecord[KEFinishedInd](),
	spec.SecurPartnerLKFinishedInd: newRecord[Addr64](),
	spec.ManufRxPacketInd:          newRecord[RxPacket](),
	spec.OTAStartUpgradeInd:        newRecord[Uint8](),
}

// RequestRecord returns a fresh record for the request body of callID.
// Calls that take no arguments return (nil, false).
func RequestRecord(callID spec.CallCode) (Record, bool) {
	return lookupRecord(requestRecords, callID)
}

// ResponseRecord returns a fresh record for the response body of callID.
func ResponseRecord(callID spec.CallCode) (Record, bool) {
	return lookupRecord(responseRecords, callID)
}

// IndicationRecord returns a fresh record for the indication body of callID.
func IndicationRecord(callID spec.CallCode) (Record, bool) {
	return lookupRecord(indicationRecords, callID)
}

// RecordFor picks the table matching the header's control kind.
func RecordFor(h Header) (Record, bool) {
	switch h.Control {
	case ControlRequest:
		return RequestRecord(h.CallID)
	case ControlResponse:
		return ResponseRecord(h.CallID)
	case ControlIndication:
		return IndicationRecord(h.CallID)
	}
	return nil, false
}

func lookupRecord(table map[spec.CallCode]recordFactory, callID spec.CallCode) (Record, bool) {
	f, ok := table[callID]
	if !ok {
		return nil, false
	}
	return f(), true
}

// DecodeTyped decodes the frame body into the record selected by its call id
// and control kind. It returns (nil, nil) when the call has no typed body or
// the body is empty.
func DecodeTyped(f Frame) (Record, error) {
	if len(f.Body) == 0 {
		return nil, nil
	}
	rec, ok := RecordFor(f.Header)
	if !ok {
		return nil, nil
	}
	if err := DecodeBody(f.Body, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
