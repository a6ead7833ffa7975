package protocol

import (
	"errors"
	"fmt"

	"github.com/tonylturner/zbncp/internal/ncp/codec"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

// Control is the frame kind carried in the second header byte.
type Control uint8

const (
	ControlRequest    Control = 0
	ControlResponse   Control = 1
	ControlIndication Control = 2
)

func (c Control) String() string {
	switch c {
	case ControlRequest:
		return "REQUEST"
	case ControlResponse:
		return "RESPONSE"
	case ControlIndication:
		return "INDICATION"
	}
	return fmt.Sprintf("CONTROL(%d)", uint8(c))
}

const (
	// ProtocolVersion is the only high-level protocol version in use.
	ProtocolVersion uint8 = 0

	// MaxBody is the body capacity of every frame kind.
	MaxBody = 8192

	CommonHeaderSize     = 4
	RequestHeaderSize    = 5
	ResponseHeaderSize   = 7
	IndicationHeaderSize = 4

	// MaxFrame is the largest frame the host ever sends or accepts.
	MaxFrame = ResponseHeaderSize + MaxBody

	// IndicationTSN is reserved for unsolicited frames and never assigned to a request.
	IndicationTSN uint8 = 0xFF
)

// ErrMalformedFrame is returned when a buffer is too short for its declared
// kind or carries an unknown control value.
var ErrMalformedFrame = errors.New("malformed frame")

// Header is the decoded form of all three header kinds. TSN is meaningful for
// requests and responses; Status only for responses.
type Header struct {
	Version uint8
	Control Control
	CallID  spec.CallCode
	TSN     uint8
	Status  spec.StatusID
}

// Size returns the encoded header length for the header's control kind.
func (h Header) Size() int {
	return headerSize(h.Control)
}

func headerSize(c Control) int {
	switch c {
	case ControlRequest:
		return RequestHeaderSize
	case ControlResponse:
		return ResponseHeaderSize
	case ControlIndication:
		return IndicationHeaderSize
	}
	return 0
}

// Frame is a header plus the written prefix of its body.
type Frame struct {
	Header Header
	Body   []byte
}

// BodyEncoder writes a frame body. Records implement it.
type BodyEncoder interface {
	EncodeTo(w *codec.Writer)
}

// BodyFunc adapts a function to BodyEncoder.
type BodyFunc func(w *codec.Writer)

func (f BodyFunc) EncodeTo(w *codec.Writer) { f(w) }

// EncodeRequest builds a request frame. A nil body produces a header-only frame.
func EncodeRequest(callID spec.CallCode, tsn uint8, body BodyEncoder) ([]byte, error) {
	return encode(Header{Control: ControlRequest, CallID: callID, TSN: tsn}, body)
}

// EncodeResponse builds a response frame.
func EncodeResponse(callID spec.CallCode, tsn uint8, status spec.StatusID, body BodyEncoder) ([]byte, error) {
	return encode(Header{Control: ControlResponse, CallID: callID, TSN: tsn, Status: status}, body)
}

// EncodeIndication builds an indication frame.
func EncodeIndication(callID spec.CallCode, body BodyEncoder) ([]byte, error) {
	return encode(Header{Control: ControlIndication, CallID: callID}, body)
}

// Encode serializes the frame with its existing body bytes.
func (f Frame) Encode() ([]byte, error) {
	var body BodyEncoder
	if len(f.Body) > 0 {
		body = BodyFunc(func(w *codec.Writer) { w.Bytes(f.Body) })
	}
	return encodeWithVersion(f.Header, body, f.Header.Version)
}

func encode(h Header, body BodyEncoder) ([]byte, error) {
	return encodeWithVersion(h, body, CurrentOptions().Version)
}

func encodeWithVersion(h Header, body BodyEncoder, version uint8) ([]byte, error) {
	size := headerSize(h.Control)
	if size == 0 {
		return nil, fmt.Errorf("encode %s: unknown control %d", h.CallID, uint8(h.Control))
	}
	order := currentByteOrder()

	out := make([]byte, size, size+64)
	out[0] = version
	out[1] = uint8(h.Control)
	codec.PutUint16(order, out[2:4], uint16(h.CallID))
	switch h.Control {
	case ControlRequest:
		out[4] = h.TSN
	case ControlResponse:
		out[4] = h.TSN
		cat, code := h.Status.Decompose()
		out[5] = uint8(cat)
		out[6] = code
	}

	if body == nil {
		return out, nil
	}
	w := codec.NewWriter(order, MaxBody)
	body.EncodeTo(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("encode %s body: %w", h.CallID, err)
	}
	return append(out, w.Data()...), nil
}

// DecodeHeader reads the header of any frame kind.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < CommonHeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedFrame, len(b), CommonHeaderSize)
	}
	order := currentByteOrder()
	h := Header{
		Version: b[0],
		Control: Control(b[1]),
		CallID:  spec.CallCode(order.Uint16(b[2:4])),
	}
	size := headerSize(h.Control)
	if size == 0 {
		return Header{}, fmt.Errorf("%w: unknown control %d for %s", ErrMalformedFrame, b[1], h.CallID)
	}
	if len(b) < size {
		return Header{}, fmt.Errorf("%w: %s %s has %d bytes, header needs %d", ErrMalformedFrame, h.Control, h.CallID, len(b), size)
	}
	switch h.Control {
	case ControlRequest:
		h.TSN = b[4]
	case ControlResponse:
		h.TSN = b[4]
		h.Status = spec.StatusIDOf(spec.StatusCategory(b[5]), b[6])
	}
	return h, nil
}

// Decode splits a buffer into header and a copy of its body.
func Decode(b []byte) (Frame, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Frame{}, err
	}
	rest := b[h.Size():]
	if len(rest) > MaxBody {
		return Frame{}, fmt.Errorf("%w: body of %d bytes exceeds %d", ErrMalformedFrame, len(rest), MaxBody)
	}
	body := make([]byte, len(rest))
	copy(body, rest)
	return Frame{Header: h, Body: body}, nil
}

// BodyReader returns a reader over the frame body using the active byte order.
func (f Frame) BodyReader() *codec.Reader {
	return codec.NewReader(currentByteOrder(), f.Body)
}
