package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tonylturner/zbncp/internal/ncp/codec"
)

// ErrShortBody is returned when a body is shorter than the record decoded from it.
var ErrShortBody = errors.New("body shorter than record")

// Record is a fixed-layout body that can be written to and read from a frame.
type Record interface {
	EncodeTo(w *codec.Writer)
	DecodeFrom(r *codec.Reader)
}

// DecodeBody parses body into rec. Trailing bytes are ignored.
func DecodeBody(body []byte, rec Record) error {
	r := codec.NewReader(currentByteOrder(), body)
	rec.DecodeFrom(r)
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %T: %v", ErrShortBody, rec, err)
	}
	return nil
}

// EncodeBody serializes rec alone, without a header.
func EncodeBody(rec Record) ([]byte, error) {
	w := codec.NewWriter(currentByteOrder(), MaxBody)
	rec.EncodeTo(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Data(), nil
}

// IEEEAddr is a 64-bit address stored least significant byte first.
type IEEEAddr [8]byte

// ExtPanID shares the IEEE address layout.
type ExtPanID = IEEEAddr

// String renders the address most significant byte first.
func (a IEEEAddr) String() string {
	var sb strings.Builder
	for i := len(a) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%02x", a[i])
		if i > 0 {
			sb.WriteByte(':')
		}
	}
	return sb.String()
}

// ParseIEEEAddr parses 16 hex digits written most significant byte first.
// Colons are accepted as separators.
func ParseIEEEAddr(s string) (IEEEAddr, error) {
	var a IEEEAddr
	raw, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return a, fmt.Errorf("parse ieee address %q: %w", s, err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("parse ieee address %q: want 8 bytes, got %d", s, len(raw))
	}
	for i := range a {
		a[i] = raw[len(raw)-1-i]
	}
	return a, nil
}

func (a *IEEEAddr) put(w *codec.Writer) { w.Bytes(a[:]) }
func (a *IEEEAddr) get(r *codec.Reader) { r.Fixed(a[:]) }

// Key is a 128-bit network or link key.
type Key [16]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// Empty is a header-only body.
type Empty struct{}

func (*Empty) EncodeTo(*codec.Writer)   {}
func (*Empty) DecodeFrom(*codec.Reader) {}

type Uint8 struct{ Value uint8 }

func (v *Uint8) EncodeTo(w *codec.Writer)   { w.Uint8(v.Value) }
func (v *Uint8) DecodeFrom(r *codec.Reader) { v.Value = r.Uint8() }

type Int8 struct{ Value int8 }

func (v *Int8) EncodeTo(w *codec.Writer)   { w.Int8(v.Value) }
func (v *Int8) DecodeFrom(r *codec.Reader) { v.Value = r.Int8() }

type Uint16 struct{ Value uint16 }

func (v *Uint16) EncodeTo(w *codec.Writer)   { w.Uint16(v.Value) }
func (v *Uint16) DecodeFrom(r *codec.Reader) { v.Value = r.Uint16() }

type Uint32 struct{ Value uint32 }

func (v *Uint32) EncodeTo(w *codec.Writer)   { w.Uint32(v.Value) }
func (v *Uint32) DecodeFrom(r *codec.Reader) { v.Value = r.Uint32() }

// Uint8Uint32 carries a page and a channel mask.
type Uint8Uint32 struct {
	U8  uint8
	U32 uint32
}

func (v *Uint8Uint32) EncodeTo(w *codec.Writer) {
	w.Uint8(v.U8)
	w.Uint32(v.U32)
}

func (v *Uint8Uint32) DecodeFrom(r *codec.Reader) {
	v.U8 = r.Uint8()
	v.U32 = r.Uint32()
}

// Uint16Uint8 carries a short address and an endpoint.
type Uint16Uint8 struct {
	U16 uint16
	U8  uint8
}

func (v *Uint16Uint8) EncodeTo(w *codec.Writer) {
	w.Uint16(v.U16)
	w.Uint8(v.U8)
}

func (v *Uint16Uint8) DecodeFrom(r *codec.Reader) {
	v.U16 = r.Uint16()
	v.U8 = r.Uint8()
}

// Addr64 is an 8-byte body: an IEEE address, extended PAN id or raw 8 bytes.
type Addr64 struct{ Addr IEEEAddr }

func (v *Addr64) EncodeTo(w *codec.Writer)   { v.Addr.put(w) }
func (v *Addr64) DecodeFrom(r *codec.Reader) { v.Addr.get(r) }

// ModuleVersion is the firmware version word.
type ModuleVersion struct{ Version uint32 }

func (v *ModuleVersion) EncodeTo(w *codec.Writer)   { w.Uint32(v.Version) }
func (v *ModuleVersion) DecodeFrom(r *codec.Reader) { v.Version = r.Uint32() }

// ChannelPage is one page/mask pair of a channel list.
type ChannelPage struct {
	Page uint8
	Mask uint32
}

// ChannelList is a counted list of channel pages.
type ChannelList struct {
	Entries []ChannelPage
}

func (v *ChannelList) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(len(v.Entries)))
	for _, e := range v.Entries {
		w.Uint8(e.Page)
		w.Uint32(e.Mask)
	}
}

func (v *ChannelList) DecodeFrom(r *codec.Reader) {
	n := int(r.Uint8())
	v.Entries = make([]ChannelPage, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		v.Entries = append(v.Entries, ChannelPage{Page: r.Uint8(), Mask: r.Uint32()})
	}
}

// Channel is the current channel number.
type Channel struct{ Channel uint8 }

func (v *Channel) EncodeTo(w *codec.Writer)   { w.Uint8(v.Channel) }
func (v *Channel) DecodeFrom(r *codec.Reader) { v.Channel = r.Uint8() }

// LocalAddr is the IEEE address of one MAC interface.
type LocalAddr struct {
	MACIface uint8
	IEEE     IEEEAddr
}

func (v *LocalAddr) EncodeTo(w *codec.Writer) {
	w.Uint8(v.MACIface)
	v.IEEE.put(w)
}

func (v *LocalAddr) DecodeFrom(r *codec.Reader) {
	v.MACIface = r.Uint8()
	v.IEEE.get(r)
}

// NwkKey is a network key with its sequence number.
type NwkKey struct {
	Key    Key
	Number uint8
}

func (v *NwkKey) EncodeTo(w *codec.Writer) {
	w.Bytes(v.Key[:])
	w.Uint8(v.Number)
}

func (v *NwkKey) DecodeFrom(r *codec.Reader) {
	r.Fixed(v.Key[:])
	v.Number = r.Uint8()
}

// NwkKeys is the three-slot key table returned by GET_NWK_KEYS.
type NwkKeys struct {
	Keys [3]NwkKey
}

func (v *NwkKeys) EncodeTo(w *codec.Writer) {
	for i := range v.Keys {
		v.Keys[i].EncodeTo(w)
	}
}

func (v *NwkKeys) DecodeFrom(r *codec.Reader) {
	for i := range v.Keys {
		v.Keys[i].DecodeFrom(r)
	}
}

// APSKey is a link key.
type APSKey struct{ Key Key }

func (v *APSKey) EncodeTo(w *codec.Writer)   { w.Bytes(v.Key[:]) }
func (v *APSKey) DecodeFrom(r *codec.Reader) { r.Fixed(v.Key[:]) }

// SerialNumber is the 16-byte device serial.
type SerialNumber struct{ Serial [16]byte }

func (v *SerialNumber) EncodeTo(w *codec.Writer)   { w.Bytes(v.Serial[:]) }
func (v *SerialNumber) DecodeFrom(r *codec.Reader) { r.Fixed(v.Serial[:]) }

// Payload is a short length-prefixed buffer used by manufacturing test calls.
type Payload struct{ Data []byte }

func (v *Payload) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(len(v.Data)))
	w.Bytes(v.Data)
}

func (v *Payload) DecodeFrom(r *codec.Reader) {
	v.Data = r.Bytes(int(r.Uint8()))
}

// LongPayload is a uint16 length-prefixed buffer (OTA portions, big packets).
type LongPayload struct{ Data []byte }

func (v *LongPayload) EncodeTo(w *codec.Writer) {
	w.Uint16(uint16(len(v.Data)))
	w.Bytes(v.Data)
}

func (v *LongPayload) DecodeFrom(r *codec.Reader) {
	v.Data = r.Bytes(int(r.Uint16()))
}

// RxPacket is a received manufacturing test packet.
type RxPacket struct {
	LQI  uint8
	RSSI int8
	Data []byte
}

func (v *RxPacket) EncodeTo(w *codec.Writer) {
	w.Uint16(uint16(len(v.Data)))
	w.Uint8(v.LQI)
	w.Int8(v.RSSI)
	w.Bytes(v.Data)
}

func (v *RxPacket) DecodeFrom(r *codec.Reader) {
	n := int(r.Uint16())
	v.LQI = r.Uint8()
	v.RSSI = r.Int8()
	v.Data = r.Bytes(n)
}
