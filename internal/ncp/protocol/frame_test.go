package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/tonylturner/zbncp/internal/ncp/codec"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

func withByteOrder(t *testing.T, order binary.ByteOrder) {
	t.Helper()
	prev := CurrentOptions()
	SetOptions(Options{ByteOrder: order, Version: prev.Version})
	t.Cleanup(func() { SetOptions(prev) })
}

func TestEncodeRequestLayout(t *testing.T) {
	out, err := EncodeRequest(spec.SetZigbeeChannelMask, 7, &Uint8Uint32{U8: 0, U32: 0x00080000})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	want := []byte{0x00, 0x00, 0x07, 0x00, 0x07, 0x00, 0x00, 0x00, 0x08, 0x00}
	if !bytes.Equal(out, want) {
		t.Fatalf("frame = % X, want % X", out, want)
	}
}

func TestEncodeResponseLayout(t *testing.T) {
	status := spec.StatusIDOf(spec.StatusGeneric, 1)
	out, err := EncodeResponse(spec.GetPanID, 3, status, &Uint16{Value: 0x5043})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	want := []byte{0x00, 0x01, 0x09, 0x00, 0x03, 0x00, 0x01, 0x43, 0x50}
	if !bytes.Equal(out, want) {
		t.Fatalf("frame = % X, want % X", out, want)
	}
}

func TestEncodeIndicationLayout(t *testing.T) {
	out, err := EncodeIndication(spec.ZDODevAnnceInd, nil)
	if err != nil {
		t.Fatalf("EncodeIndication: %v", err)
	}
	want := []byte{0x00, 0x02, 0x0C, 0x02}
	if !bytes.Equal(out, want) {
		t.Fatalf("frame = % X, want % X", out, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		h    Header
	}{
		{"request", Header{Control: ControlRequest, CallID: spec.NwkFormation, TSN: 42}},
		{"response", Header{Control: ControlResponse, CallID: spec.GetNwkKeys, TSN: 254, Status: spec.StatusIDOf(spec.StatusAPS, 0xA3)}},
		{"response ok", Header{Control: ControlResponse, CallID: spec.NCPReset, TSN: 0}},
		{"indication", Header{Control: ControlIndication, CallID: spec.APSDEDataInd}},
	}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		withByteOrder(t, order)
		for _, tt := range tests {
			t.Run(order.String()+"/"+tt.name, func(t *testing.T) {
				out, err := Frame{Header: tt.h, Body: []byte{1, 2, 3}}.Encode()
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				if len(out) != tt.h.Size()+3 {
					t.Fatalf("len = %d, want %d", len(out), tt.h.Size()+3)
				}
				f, err := Decode(out)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if f.Header != tt.h {
					t.Errorf("header = %+v, want %+v", f.Header, tt.h)
				}
				if !bytes.Equal(f.Body, []byte{1, 2, 3}) {
					t.Errorf("body = % X", f.Body)
				}
			})
		}
	}
}

func TestBigEndianCallID(t *testing.T) {
	withByteOrder(t, binary.BigEndian)
	out, err := EncodeIndication(spec.ZDODevAnnceInd, nil)
	if err != nil {
		t.Fatalf("EncodeIndication: %v", err)
	}
	if out[2] != 0x02 || out[3] != 0x0C {
		t.Fatalf("call id bytes = % X, want 02 0C", out[2:4])
	}
}

func TestDecodeHeaderMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"short common", []byte{0, 0, 1}},
		{"short request", []byte{0, 0, 1, 0}},
		{"short response", []byte{0, 1, 1, 0, 5, 0}},
		{"unknown control", []byte{0, 9, 1, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeHeader(tt.in); !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("err = %v, want ErrMalformedFrame", err)
			}
		})
	}
}

func TestDecodeIndicationMinimal(t *testing.T) {
	h, err := DecodeHeader([]byte{0, 2, 0x06, 0x03})
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Control != ControlIndication || h.CallID != spec.APSDEDataInd {
		t.Fatalf("header = %+v", h)
	}
}

func TestDecodeCopiesBody(t *testing.T) {
	in := []byte{0, 2, 0x06, 0x03, 0xAA}
	f, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	in[4] = 0x00
	if f.Body[0] != 0xAA {
		t.Fatalf("body aliases input")
	}
}

func TestBodyOverflow(t *testing.T) {
	big := make([]byte, MaxBody+1)
	_, err := EncodeRequest(spec.BigPktToNCP, 1, &RawBytes{Data: big})
	if !errors.Is(err, codec.ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}

	exact := make([]byte, MaxBody)
	out, err := EncodeRequest(spec.BigPktToNCP, 1, &RawBytes{Data: exact})
	if err != nil {
		t.Fatalf("EncodeRequest at capacity: %v", err)
	}
	if len(out) != RequestHeaderSize+MaxBody {
		t.Fatalf("len = %d", len(out))
	}
}

func TestDecodeOversizedBody(t *testing.T) {
	in := make([]byte, IndicationHeaderSize+MaxBody+1)
	in[1] = byte(ControlIndication)
	if _, err := Decode(in); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("err = %v, want ErrMalformedFrame", err)
	}
}

func TestControlString(t *testing.T) {
	if ControlResponse.String() != "RESPONSE" {
		t.Errorf("ControlResponse = %q", ControlResponse.String())
	}
	if Control(7).String() != "CONTROL(7)" {
		t.Errorf("Control(7) = %q", Control(7).String())
	}
}

func TestParseByteOrder(t *testing.T) {
	tests := []struct {
		in   string
		want binary.ByteOrder
		ok   bool
	}{
		{"", binary.LittleEndian, true},
		{"little", binary.LittleEndian, true},
		{"be", binary.BigEndian, true},
		{"big-endian", binary.BigEndian, true},
		{"middle", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseByteOrder(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseByteOrder(%q) = %v, %v", tt.in, got, ok)
		}
	}
}
