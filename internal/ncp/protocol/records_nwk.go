package protocol

import "github.com/tonylturner/zbncp/internal/ncp/codec"

// Formation starts a new network as coordinator.
type Formation struct {
	Pages           uint8
	Page            uint8
	ChannelMask     uint32
	ScanDuration    uint8
	Distributed     uint8
	DistributedAddr uint16
}

func (v *Formation) EncodeTo(w *codec.Writer) {
	w.Uint8(v.Pages)
	w.Uint8(v.Page)
	w.Uint32(v.ChannelMask)
	w.Uint8(v.ScanDuration)
	w.Uint8(v.Distributed)
	w.Uint16(v.DistributedAddr)
}

func (v *Formation) DecodeFrom(r *codec.Reader) {
	v.Pages = r.Uint8()
	v.Page = r.Uint8()
	v.ChannelMask = r.Uint32()
	v.ScanDuration = r.Uint8()
	v.Distributed = r.Uint8()
	v.DistributedAddr = r.Uint16()
}

// DiscoveryReq scans for networks.
type DiscoveryReq struct {
	Pages        uint8
	Page         uint8
	ChannelMask  uint32
	ScanDuration uint8
}

func (v *DiscoveryReq) EncodeTo(w *codec.Writer) {
	w.Uint8(v.Pages)
	w.Uint8(v.Page)
	w.Uint32(v.ChannelMask)
	w.Uint8(v.ScanDuration)
}

func (v *DiscoveryReq) DecodeFrom(r *codec.Reader) {
	v.Pages = r.Uint8()
	v.Page = r.Uint8()
	v.ChannelMask = r.Uint32()
	v.ScanDuration = r.Uint8()
}

// NetworkDescriptor is one network found by discovery.
type NetworkDescriptor struct {
	ExtPanID ExtPanID
	PanID    uint16
	UpdateID uint8
	Page     uint8
	Channel  uint8
	Flags    uint8
}

func (d NetworkDescriptor) StackProfile() uint8     { return (d.Flags >> 4) & 0x0F }
func (d NetworkDescriptor) PermitJoining() bool     { return d.Flags&0x01 != 0 }
func (d NetworkDescriptor) RouterCapacity() bool    { return (d.Flags>>1)&0x01 != 0 }
func (d NetworkDescriptor) EndDeviceCapacity() bool { return (d.Flags>>2)&0x01 != 0 }

// DiscoveryRsp is a counted list of network descriptors.
type DiscoveryRsp struct {
	Networks []NetworkDescriptor
}

func (v *DiscoveryRsp) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(len(v.Networks)))
	for i := range v.Networks {
		d := &v.Networks[i]
		d.ExtPanID.put(w)
		w.Uint16(d.PanID)
		w.Uint8(d.UpdateID)
		w.Uint8(d.Page)
		w.Uint8(d.Channel)
		w.Uint8(d.Flags)
	}
}

func (v *DiscoveryRsp) DecodeFrom(r *codec.Reader) {
	n := int(r.Uint8())
	v.Networks = make([]NetworkDescriptor, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		var d NetworkDescriptor
		d.ExtPanID.get(r)
		d.PanID = r.Uint16()
		d.UpdateID = r.Uint8()
		d.Page = r.Uint8()
		d.Channel = r.Uint8()
		d.Flags = r.Uint8()
		v.Networks = append(v.Networks, d)
	}
}

// JoinReq asks the NCP to join (or rejoin) a network.
type JoinReq struct {
	ExtPanID       ExtPanID
	Rejoin         uint8
	Pages          uint8
	Page           uint8
	ChannelMask    uint32
	ScanDuration   uint8
	Capability     uint8
	SecurityEnable uint8
}

func (v *JoinReq) EncodeTo(w *codec.Writer) {
	v.ExtPanID.put(w)
	w.Uint8(v.Rejoin)
	w.Uint8(v.Pages)
	w.Uint8(v.Page)
	w.Uint32(v.ChannelMask)
	w.Uint8(v.ScanDuration)
	w.Uint8(v.Capability)
	w.Uint8(v.SecurityEnable)
}

func (v *JoinReq) DecodeFrom(r *codec.Reader) {
	v.ExtPanID.get(r)
	v.Rejoin = r.Uint8()
	v.Pages = r.Uint8()
	v.Page = r.Uint8()
	v.ChannelMask = r.Uint32()
	v.ScanDuration = r.Uint8()
	v.Capability = r.Uint8()
	v.SecurityEnable = r.Uint8()
}

// JoinRsp reports where the device joined.
type JoinRsp struct {
	ShortAddr  uint16
	ExtPanID   ExtPanID
	Page       uint8
	Channel    uint8
	EnhBeacon  uint8
	MACIfaceID uint8
}

func (v *JoinRsp) EncodeTo(w *codec.Writer) {
	w.Uint16(v.ShortAddr)
	v.ExtPanID.put(w)
	w.Uint8(v.Page)
	w.Uint8(v.Channel)
	w.Uint8(v.EnhBeacon)
	w.Uint8(v.MACIfaceID)
}

func (v *JoinRsp) DecodeFrom(r *codec.Reader) {
	v.ShortAddr = r.Uint16()
	v.ExtPanID.get(r)
	v.Page = r.Uint8()
	v.Channel = r.Uint8()
	v.EnhBeacon = r.Uint8()
	v.MACIfaceID = r.Uint8()
}

// Neighbor is one neighbor table entry.
type Neighbor struct {
	IEEE              IEEEAddr
	ShortAddr         uint16
	DeviceType        DeviceType
	RxOnWhenIdle      uint8
	EDConfig          uint16
	TimeoutCounter    uint32
	DeviceTimeout     uint32
	Relationship      Relationship
	TxFailureCount    uint8
	LQI               uint8
	OutgoingCost      uint8
	Age               uint8
	KeepaliveReceived uint8
	MACIfaceID        uint8
}

func (v *Neighbor) EncodeTo(w *codec.Writer) {
	v.IEEE.put(w)
	w.Uint16(v.ShortAddr)
	w.Uint8(uint8(v.DeviceType))
	w.Uint8(v.RxOnWhenIdle)
	w.Uint16(v.EDConfig)
	w.Uint32(v.TimeoutCounter)
	w.Uint32(v.DeviceTimeout)
	w.Uint8(uint8(v.Relationship))
	w.Uint8(v.TxFailureCount)
	w.Uint8(v.LQI)
	w.Uint8(v.OutgoingCost)
	w.Uint8(v.Age)
	w.Uint8(v.KeepaliveReceived)
	w.Uint8(v.MACIfaceID)
}

func (v *Neighbor) DecodeFrom(r *codec.Reader) {
	v.IEEE.get(r)
	v.ShortAddr = r.Uint16()
	v.DeviceType = DeviceType(r.Uint8())
	v.RxOnWhenIdle = r.Uint8()
	v.EDConfig = r.Uint16()
	v.TimeoutCounter = r.Uint32()
	v.DeviceTimeout = r.Uint32()
	v.Relationship = Relationship(r.Uint8())
	v.TxFailureCount = r.Uint8()
	v.LQI = r.Uint8()
	v.OutgoingCost = r.Uint8()
	v.Age = r.Uint8()
	v.KeepaliveReceived = r.Uint8()
	v.MACIfaceID = r.Uint8()
}

// LeaveInd reports a device leaving the network.
type LeaveInd struct {
	IEEE   IEEEAddr
	Rejoin uint8
}

func (v *LeaveInd) EncodeTo(w *codec.Writer) {
	v.IEEE.put(w)
	w.Uint8(v.Rejoin)
}

func (v *LeaveInd) DecodeFrom(r *codec.Reader) {
	v.IEEE.get(r)
	v.Rejoin = r.Uint8()
}

// PanIDConflict lists conflicting PAN ids. The same layout is used for the
// indication and the resolve request.
type PanIDConflict struct {
	PanIDs []uint16
}

func (v *PanIDConflict) EncodeTo(w *codec.Writer) {
	w.Uint16(uint16(len(v.PanIDs)))
	for _, id := range v.PanIDs {
		w.Uint16(id)
	}
}

func (v *PanIDConflict) DecodeFrom(r *codec.Reader) {
	n := int(r.Uint16())
	v.PanIDs = make([]uint16, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		v.PanIDs = append(v.PanIDs, r.Uint16())
	}
}
