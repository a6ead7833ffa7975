package protocol

import "github.com/tonylturner/zbncp/internal/ncp/codec"

// DevAnnce is the ZDO device announcement indication.
type DevAnnce struct {
	ShortAddr  uint16
	IEEE       IEEEAddr
	Capability MACCapability
}

func (v *DevAnnce) EncodeTo(w *codec.Writer) {
	w.Uint16(v.ShortAddr)
	v.IEEE.put(w)
	w.Uint8(uint8(v.Capability))
}

func (v *DevAnnce) DecodeFrom(r *codec.Reader) {
	v.ShortAddr = r.Uint16()
	v.IEEE.get(r)
	v.Capability = MACCapability(r.Uint8())
}

// NwkAddrReq is the ZDO NWK_addr_req.
type NwkAddrReq struct {
	DstAddr     uint16
	IEEE        IEEEAddr
	RequestType AddrRequestType
	StartIndex  uint8
}

func (v *NwkAddrReq) EncodeTo(w *codec.Writer) {
	w.Uint16(v.DstAddr)
	v.IEEE.put(w)
	w.Uint8(uint8(v.RequestType))
	w.Uint8(v.StartIndex)
}

func (v *NwkAddrReq) DecodeFrom(r *codec.Reader) {
	v.DstAddr = r.Uint16()
	v.IEEE.get(r)
	v.RequestType = AddrRequestType(r.Uint8())
	v.StartIndex = r.Uint8()
}

// IEEEAddrReq is the ZDO IEEE_addr_req.
type IEEEAddrReq struct {
	DstAddr     uint16
	NwkAddr     uint16
	RequestType AddrRequestType
	StartIndex  uint8
}

func (v *IEEEAddrReq) EncodeTo(w *codec.Writer) {
	w.Uint16(v.DstAddr)
	w.Uint16(v.NwkAddr)
	w.Uint8(uint8(v.RequestType))
	w.Uint8(v.StartIndex)
}

func (v *IEEEAddrReq) DecodeFrom(r *codec.Reader) {
	v.DstAddr = r.Uint16()
	v.NwkAddr = r.Uint16()
	v.RequestType = AddrRequestType(r.Uint8())
	v.StartIndex = r.Uint8()
}

// AddrRsp answers both address requests. The associated device list is
// present only for extended requests.
type AddrRsp struct {
	IEEE       IEEEAddr
	ShortAddr  uint16
	StartIndex uint8
	Assoc      []uint16
}

func (v *AddrRsp) EncodeTo(w *codec.Writer) {
	v.IEEE.put(w)
	w.Uint16(v.ShortAddr)
	if len(v.Assoc) == 0 {
		return
	}
	w.Uint8(uint8(len(v.Assoc)))
	w.Uint8(v.StartIndex)
	for _, a := range v.Assoc {
		w.Uint16(a)
	}
}

func (v *AddrRsp) DecodeFrom(r *codec.Reader) {
	v.IEEE.get(r)
	v.ShortAddr = r.Uint16()
	if r.Remaining() < 2 {
		return
	}
	n := int(r.Uint8())
	v.StartIndex = r.Uint8()
	v.Assoc = make([]uint16, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		v.Assoc = append(v.Assoc, r.Uint16())
	}
}

// PowerDesc is the packed power descriptor word.
type PowerDesc struct{ Flags uint16 }

func (v *PowerDesc) EncodeTo(w *codec.Writer)   { w.Uint16(v.Flags) }
func (v *PowerDesc) DecodeFrom(r *codec.Reader) { v.Flags = r.Uint16() }

// NodeDesc is the node descriptor returned by ZDO_NODE_DESC_REQ.
type NodeDesc struct {
	Flags              uint16
	MACCapability      MACCapability
	ManufacturerCode   uint16
	MaxBufSize         uint8
	MaxIncomingSize    uint16
	ServerMask         uint16
	MaxOutgoingSize    uint16
	DescCapabilityFlag uint8
}

func (v *NodeDesc) EncodeTo(w *codec.Writer) {
	w.Uint16(v.Flags)
	w.Uint8(uint8(v.MACCapability))
	w.Uint16(v.ManufacturerCode)
	w.Uint8(v.MaxBufSize)
	w.Uint16(v.MaxIncomingSize)
	w.Uint16(v.ServerMask)
	w.Uint16(v.MaxOutgoingSize)
	w.Uint8(v.DescCapabilityFlag)
}

func (v *NodeDesc) DecodeFrom(r *codec.Reader) {
	v.Flags = r.Uint16()
	v.MACCapability = MACCapability(r.Uint8())
	v.ManufacturerCode = r.Uint16()
	v.MaxBufSize = r.Uint8()
	v.MaxIncomingSize = r.Uint16()
	v.ServerMask = r.Uint16()
	v.MaxOutgoingSize = r.Uint16()
	v.DescCapabilityFlag = r.Uint8()
}

// SimpleDesc is an endpoint's simple descriptor. It is both the
// AF_SET_SIMPLE_DESC request and the ZDO_SIMPLE_DESC_REQ response body.
type SimpleDesc struct {
	Endpoint      uint8
	ProfileID     uint16
	DeviceID      uint16
	DeviceVersion uint8
	InClusters    []uint16
	OutClusters   []uint16
}

func (v *SimpleDesc) EncodeTo(w *codec.Writer) {
	w.Uint8(v.Endpoint)
	w.Uint16(v.ProfileID)
	w.Uint16(v.DeviceID)
	w.Uint8(v.DeviceVersion)
	w.Uint8(uint8(len(v.InClusters)))
	w.Uint8(uint8(len(v.OutClusters)))
	putClusters(w, v.InClusters, v.OutClusters)
}

func (v *SimpleDesc) DecodeFrom(r *codec.Reader) {
	v.Endpoint = r.Uint8()
	v.ProfileID = r.Uint16()
	v.DeviceID = r.Uint16()
	v.DeviceVersion = r.Uint8()
	in := int(r.Uint8())
	out := int(r.Uint8())
	v.InClusters, v.OutClusters = getClusters(r, in, out)
}

// MatchDescReq is the ZDO Match_Desc_req.
type MatchDescReq struct {
	AddrOfInterest uint16
	ProfileID      uint16
	InClusters     []uint16
	OutClusters    []uint16
}

func (v *MatchDescReq) EncodeTo(w *codec.Writer) {
	w.Uint16(v.AddrOfInterest)
	w.Uint16(v.ProfileID)
	w.Uint8(uint8(len(v.InClusters)))
	w.Uint8(uint8(len(v.OutClusters)))
	putClusters(w, v.InClusters, v.OutClusters)
}

func (v *MatchDescReq) DecodeFrom(r *codec.Reader) {
	v.AddrOfInterest = r.Uint16()
	v.ProfileID = r.Uint16()
	in := int(r.Uint8())
	out := int(r.Uint8())
	v.InClusters, v.OutClusters = getClusters(r, in, out)
}

func putClusters(w *codec.Writer, in, out []uint16) {
	for _, c := range in {
		w.Uint16(c)
	}
	for _, c := range out {
		w.Uint16(c)
	}
}

func getClusters(r *codec.Reader, in, out int) ([]uint16, []uint16) {
	inList := make([]uint16, 0, in)
	for i := 0; i < in && r.Err() == nil; i++ {
		inList = append(inList, r.Uint16())
	}
	outList := make([]uint16, 0, out)
	for i := 0; i < out && r.Err() == nil; i++ {
		outList = append(outList, r.Uint16())
	}
	return inList, outList
}

// EndpointList is a counted endpoint list (active EP and match descriptor responses).
type EndpointList struct {
	Endpoints []uint8
}

func (v *EndpointList) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(len(v.Endpoints)))
	w.Bytes(v.Endpoints)
}

func (v *EndpointList) DecodeFrom(r *codec.Reader) {
	v.Endpoints = r.Bytes(int(r.Uint8()))
}

// BindReq is the ZDO Bind_req/Unbind_req sent to a remote device.
type BindReq struct {
	TargetAddr  uint16
	SrcAddr     IEEEAddr
	SrcEP       uint8
	ClusterID   uint16
	DstAddrMode AddrMode
	DstAddr     Address
	DstEP       uint8
}

func (v *BindReq) EncodeTo(w *codec.Writer) {
	w.Uint16(v.TargetAddr)
	v.SrcAddr.put(w)
	w.Uint8(v.SrcEP)
	w.Uint16(v.ClusterID)
	w.Uint8(uint8(v.DstAddrMode))
	w.Bytes(v.DstAddr[:])
	w.Uint8(v.DstEP)
}

func (v *BindReq) DecodeFrom(r *codec.Reader) {
	v.TargetAddr = r.Uint16()
	v.SrcAddr.get(r)
	v.SrcEP = r.Uint8()
	v.ClusterID = r.Uint16()
	v.DstAddrMode = AddrMode(r.Uint8())
	r.Fixed(v.DstAddr[:])
	v.DstEP = r.Uint8()
}

// Leave flags for MgmtLeaveReq.
const (
	LeaveRemoveChildren uint8 = 1 << 6
	LeaveRejoin         uint8 = 1 << 7
)

// MgmtLeaveReq is the ZDO Mgmt_Leave_req.
type MgmtLeaveReq struct {
	DstAddr    uint16
	DeviceAddr IEEEAddr
	Flags      uint8
}

func (v *MgmtLeaveReq) EncodeTo(w *codec.Writer) {
	w.Uint16(v.DstAddr)
	v.DeviceAddr.put(w)
	w.Uint8(v.Flags)
}

func (v *MgmtLeaveReq) DecodeFrom(r *codec.Reader) {
	v.DstAddr = r.Uint16()
	v.DeviceAddr.get(r)
	v.Flags = r.Uint8()
}

// PermitJoiningReq is the ZDO Mgmt_Permit_Joining_req.
type PermitJoiningReq struct {
	DstAddr  uint16
	Duration uint8
}

func (v *PermitJoiningReq) EncodeTo(w *codec.Writer) {
	w.Uint16(v.DstAddr)
	w.Uint8(v.Duration)
}

func (v *PermitJoiningReq) DecodeFrom(r *codec.Reader) {
	v.DstAddr = r.Uint16()
	v.Duration = r.Uint8()
}

// RejoinReq asks the NCP to rejoin a known network.
type RejoinReq struct {
	ExtPanID     ExtPanID
	ChannelMask  uint32
	SecureRejoin uint8
}

func (v *RejoinReq) EncodeTo(w *codec.Writer) {
	v.ExtPanID.put(w)
	w.Uint32(v.ChannelMask)
	w.Uint8(v.SecureRejoin)
}

func (v *RejoinReq) DecodeFrom(r *codec.Reader) {
	v.ExtPanID.get(r)
	v.ChannelMask = r.Uint32()
	v.SecureRejoin = r.Uint8()
}

// AFNodeDesc sets the local node descriptor.
type AFNodeDesc struct {
	DeviceType       DeviceType
	MACCapability    MACCapability
	ManufacturerCode uint16
}

func (v *AFNodeDesc) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(v.DeviceType))
	w.Uint8(uint8(v.MACCapability))
	w.Uint16(v.ManufacturerCode)
}

func (v *AFNodeDesc) DecodeFrom(r *codec.Reader) {
	v.DeviceType = DeviceType(r.Uint8())
	v.MACCapability = MACCapability(r.Uint8())
	v.ManufacturerCode = r.Uint16()
}

// AFPowerDesc sets the local power descriptor.
type AFPowerDesc struct {
	CurrentMode      uint8
	AvailableSources uint8
	CurrentSource    uint8
	CurrentLevel     uint8
}

func (v *AFPowerDesc) EncodeTo(w *codec.Writer) {
	w.Uint8(v.CurrentMode)
	w.Uint8(v.AvailableSources)
	w.Uint8(v.CurrentSource)
	w.Uint8(v.CurrentLevel)
}

func (v *AFPowerDesc) DecodeFrom(r *codec.Reader) {
	v.CurrentMode = r.Uint8()
	v.AvailableSources = r.Uint8()
	v.CurrentSource = r.Uint8()
	v.CurrentLevel = r.Uint8()
}
