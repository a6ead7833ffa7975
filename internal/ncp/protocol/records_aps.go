package protocol

import "github.com/tonylturner/zbncp/internal/ncp/codec"

// Address is the 8-byte destination union: a short address occupies the
// first two bytes, a long address all eight. AddrMode says which applies.
type Address [8]byte

// ShortAddress builds an Address holding a 16-bit short or group address.
func ShortAddress(a uint16) Address {
	var out Address
	currentByteOrder().PutUint16(out[:2], a)
	return out
}

// LongAddress builds an Address holding an IEEE address.
func LongAddress(a IEEEAddr) Address { return Address(a) }

func (a Address) Short() uint16  { return currentByteOrder().Uint16(a[:2]) }
func (a Address) Long() IEEEAddr { return IEEEAddr(a) }

// Format renders the address according to mode.
func (a Address) Format(mode AddrMode) string {
	if mode == AddrMode64EndpPresent {
		return a.Long().String()
	}
	return formatShort(a.Short())
}

// DataReqParamsSize is the packed size of DataReqParams.
const DataReqParamsSize = 21

// DataReqParams mirrors the APSDE-DATA.request parameter block.
type DataReqParams struct {
	DstAddr   Address
	ProfileID uint16
	ClusterID uint16
	DstEP     uint8
	SrcEP     uint8
	Radius    uint8
	AddrMode  AddrMode
	TxOptions TxOptions
	UseAlias  uint8
	AliasSrc  uint16
	AliasSeq  uint8
}

func (v *DataReqParams) EncodeTo(w *codec.Writer) {
	w.Bytes(v.DstAddr[:])
	w.Uint16(v.ProfileID)
	w.Uint16(v.ClusterID)
	w.Uint8(v.DstEP)
	w.Uint8(v.SrcEP)
	w.Uint8(v.Radius)
	w.Uint8(uint8(v.AddrMode))
	w.Uint8(uint8(v.TxOptions))
	w.Uint8(v.UseAlias)
	w.Uint16(v.AliasSrc)
	w.Uint8(v.AliasSeq)
}

func (v *DataReqParams) DecodeFrom(r *codec.Reader) {
	r.Fixed(v.DstAddr[:])
	v.ProfileID = r.Uint16()
	v.ClusterID = r.Uint16()
	v.DstEP = r.Uint8()
	v.SrcEP = r.Uint8()
	v.Radius = r.Uint8()
	v.AddrMode = AddrMode(r.Uint8())
	v.TxOptions = TxOptions(r.Uint8())
	v.UseAlias = r.Uint8()
	v.AliasSrc = r.Uint16()
	v.AliasSeq = r.Uint8()
}

// DataReq is an APSDE-DATA.request: parameter length, data length, parameters, data.
type DataReq struct {
	Params DataReqParams
	Data   []byte
}

func (v *DataReq) EncodeTo(w *codec.Writer) {
	w.Uint8(DataReqParamsSize)
	w.Uint16(uint16(len(v.Data)))
	v.Params.EncodeTo(w)
	w.Bytes(v.Data)
}

func (v *DataReq) DecodeFrom(r *codec.Reader) {
	paramLen := int(r.Uint8())
	dataLen := int(r.Uint16())
	start := r.Offset()
	v.Params.DecodeFrom(r)
	if extra := paramLen - (r.Offset() - start); extra > 0 {
		r.Skip(extra)
	}
	v.Data = r.Bytes(dataLen)
}

// DataConf is the APSDE-DATA.confirm carried in the APSDE_DATA_REQ response.
type DataConf struct {
	DstAddr  Address
	DstEP    uint8
	SrcEP    uint8
	TxTime   uint32
	AddrMode AddrMode
}

func (v *DataConf) EncodeTo(w *codec.Writer) {
	w.Bytes(v.DstAddr[:])
	w.Uint8(v.DstEP)
	w.Uint8(v.SrcEP)
	w.Uint32(v.TxTime)
	w.Uint8(uint8(v.AddrMode))
}

func (v *DataConf) DecodeFrom(r *codec.Reader) {
	r.Fixed(v.DstAddr[:])
	v.DstEP = r.Uint8()
	v.SrcEP = r.Uint8()
	v.TxTime = r.Uint32()
	v.AddrMode = AddrMode(r.Uint8())
}

// dataIndParamsSize is the packed size of the indication parameter block.
const dataIndParamsSize = 21

// DataInd is an APSDE-DATA.indication.
type DataInd struct {
	FC         uint8
	SrcAddr    uint16
	DstAddr    uint16
	GroupAddr  uint16
	DstEP      uint8
	SrcEP      uint8
	ClusterID  uint16
	ProfileID  uint16
	APSCounter uint8
	MACSrcAddr uint16
	MACDstAddr uint16
	LQI        uint8
	RSSI       int8
	KeyFlags   uint8
	Data       []byte
}

func (v *DataInd) EncodeTo(w *codec.Writer) {
	w.Uint8(dataIndParamsSize)
	w.Uint16(uint16(len(v.Data)))
	w.Uint8(v.FC)
	w.Uint16(v.SrcAddr)
	w.Uint16(v.DstAddr)
	w.Uint16(v.GroupAddr)
	w.Uint8(v.DstEP)
	w.Uint8(v.SrcEP)
	w.Uint16(v.ClusterID)
	w.Uint16(v.ProfileID)
	w.Uint8(v.APSCounter)
	w.Uint16(v.MACSrcAddr)
	w.Uint16(v.MACDstAddr)
	w.Uint8(v.LQI)
	w.Int8(v.RSSI)
	w.Uint8(v.KeyFlags)
	w.Bytes(v.Data)
}

func (v *DataInd) DecodeFrom(r *codec.Reader) {
	paramLen := int(r.Uint8())
	dataLen := int(r.Uint16())
	start := r.Offset()
	v.FC = r.Uint8()
	v.SrcAddr = r.Uint16()
	v.DstAddr = r.Uint16()
	v.GroupAddr = r.Uint16()
	v.DstEP = r.Uint8()
	v.SrcEP = r.Uint8()
	v.ClusterID = r.Uint16()
	v.ProfileID = r.Uint16()
	v.APSCounter = r.Uint8()
	v.MACSrcAddr = r.Uint16()
	v.MACDstAddr = r.Uint16()
	v.LQI = r.Uint8()
	v.RSSI = r.Int8()
	v.KeyFlags = r.Uint8()
	if extra := paramLen - (r.Offset() - start); extra > 0 {
		r.Skip(extra)
	}
	v.Data = r.Bytes(dataLen)
}

// Bind is the APSME-BIND/UNBIND request.
type Bind struct {
	SrcAddr     IEEEAddr
	SrcEP       uint8
	ClusterID   uint16
	DstAddrMode AddrMode
	DstAddr     Address
	DstEP       uint8
}

func (v *Bind) EncodeTo(w *codec.Writer) {
	v.SrcAddr.put(w)
	w.Uint8(v.SrcEP)
	w.Uint16(v.ClusterID)
	w.Uint8(uint8(v.DstAddrMode))
	w.Bytes(v.DstAddr[:])
	w.Uint8(v.DstEP)
}

func (v *Bind) DecodeFrom(r *codec.Reader) {
	v.SrcAddr.get(r)
	v.SrcEP = r.Uint8()
	v.ClusterID = r.Uint16()
	v.DstAddrMode = AddrMode(r.Uint8())
	r.Fixed(v.DstAddr[:])
	v.DstEP = r.Uint8()
}

// Group is the APSME add/remove group request.
type Group struct {
	GroupAddr uint16
	Endpoint  uint8
}

func (v *Group) EncodeTo(w *codec.Writer) {
	w.Uint16(v.GroupAddr)
	w.Uint8(v.Endpoint)
}

func (v *Group) DecodeFrom(r *codec.Reader) {
	v.GroupAddr = r.Uint16()
	v.Endpoint = r.Uint8()
}
