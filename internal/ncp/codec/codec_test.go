package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestPutUint16(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		value uint16
		want  []byte
	}{
		{"little endian zero", binary.LittleEndian, 0x0000, []byte{0x00, 0x00}},
		{"little endian", binary.LittleEndian, 0x0102, []byte{0x02, 0x01}},
		{"big endian", binary.BigEndian, 0x0102, []byte{0x01, 0x02}},
		{"pan id", binary.LittleEndian, 0x6D42, []byte{0x42, 0x6D}},
		{"call code formation", binary.LittleEndian, 0x0401, []byte{0x01, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 2)
			PutUint16(tt.order, buf, tt.value)
			if !bytes.Equal(buf, tt.want) {
				t.Errorf("PutUint16() = %v, want %v", buf, tt.want)
			}
		})
	}
}

func TestAppendUint32(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		value uint32
		want  []byte
	}{
		{"little endian", binary.LittleEndian, 0x01020304, []byte{0x04, 0x03, 0x02, 0x01}},
		{"big endian", binary.BigEndian, 0x01020304, []byte{0x01, 0x02, 0x03, 0x04}},
		{"channel 19 mask", binary.LittleEndian, 0x00080000, []byte{0x00, 0x00, 0x08, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendUint32(tt.order, []byte{0xAA}, tt.value)
			want := append([]byte{0xAA}, tt.want...)
			if !bytes.Equal(got, want) {
				t.Errorf("AppendUint32() = %v, want %v", got, want)
			}
		})
	}
}

func TestWriterLimit(t *testing.T) {
	w := NewWriter(binary.LittleEndian, 3)
	w.Uint16(0x1234)
	w.Uint16(0x5678)
	if !errors.Is(w.Err(), ErrOverflow) {
		t.Fatalf("Err() = %v, want ErrOverflow", w.Err())
	}
	w.Uint8(1)
	if w.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (writes after overflow are dropped)", w.Len())
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		w := NewWriter(order, 64)
		w.Uint8(0x11)
		w.Int8(-5)
		w.Uint16(0xBEEF)
		w.Uint32(0xDEADBEEF)
		w.Bytes([]byte{1, 2, 3})
		w.Zero(2)
		if err := w.Err(); err != nil {
			t.Fatalf("%v: write error: %v", order, err)
		}

		r := NewReader(order, w.Data())
		if got := r.Uint8(); got != 0x11 {
			t.Errorf("%v: Uint8 = %#x", order, got)
		}
		if got := r.Int8(); got != -5 {
			t.Errorf("%v: Int8 = %d", order, got)
		}
		if got := r.Uint16(); got != 0xBEEF {
			t.Errorf("%v: Uint16 = %#x", order, got)
		}
		if got := r.Uint32(); got != 0xDEADBEEF {
			t.Errorf("%v: Uint32 = %#x", order, got)
		}
		if got := r.Bytes(3); !bytes.Equal(got, []byte{1, 2, 3}) {
			t.Errorf("%v: Bytes = %v", order, got)
		}
		r.Skip(2)
		if r.Remaining() != 0 || r.Err() != nil {
			t.Errorf("%v: remaining=%d err=%v", order, r.Remaining(), r.Err())
		}
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewReader(binary.LittleEndian, []byte{0x01})
	if got := r.Uint16(); got != 0 {
		t.Errorf("Uint16 on short buffer = %#x, want 0", got)
	}
	if !errors.Is(r.Err(), ErrShortBuffer) {
		t.Fatalf("Err() = %v, want ErrShortBuffer", r.Err())
	}
	if got := r.Uint8(); got != 0 {
		t.Errorf("reads after failure should return zero, got %#x", got)
	}
}
