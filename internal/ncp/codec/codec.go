package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer is returned when a field read runs past the end of the data.
	ErrShortBuffer = errors.New("short buffer")
	// ErrOverflow is returned when a write would exceed the writer's limit.
	ErrOverflow = errors.New("body overflow")
)

// PutUint16 writes a uint16 to dst using the provided byte order.
func PutUint16(order binary.ByteOrder, dst []byte, value uint16) {
	order.PutUint16(dst, value)
}

// PutUint32 writes a uint32 to dst using the provided byte order.
func PutUint32(order binary.ByteOrder, dst []byte, value uint32) {
	order.PutUint32(dst, value)
}

// AppendUint16 appends a uint16 to dst using the provided byte order.
func AppendUint16(order binary.ByteOrder, dst []byte, value uint16) []byte {
	var buf [2]byte
	order.PutUint16(buf[:], value)
	return append(dst, buf[:]...)
}

// AppendUint32 appends a uint32 to dst using the provided byte order.
func AppendUint32(order binary.ByteOrder, dst []byte, value uint32) []byte {
	var buf [4]byte
	order.PutUint32(buf[:], value)
	return append(dst, buf[:]...)
}

// Writer appends packed fields to a buffer bounded by a byte limit.
// The first failed write is sticky; later writes are no-ops.
type Writer struct {
	order binary.ByteOrder
	buf   []byte
	limit int
	err   error
}

// NewWriter returns a writer that refuses to grow past limit bytes.
func NewWriter(order binary.ByteOrder, limit int) *Writer {
	return &Writer{order: order, limit: limit}
}

func (w *Writer) reserve(n int) bool {
	if w.err != nil {
		return false
	}
	if len(w.buf)+n > w.limit {
		w.err = fmt.Errorf("%w: %d bytes would exceed limit %d", ErrOverflow, len(w.buf)+n, w.limit)
		return false
	}
	return true
}

func (w *Writer) Uint8(v uint8) {
	if w.reserve(1) {
		w.buf = append(w.buf, v)
	}
}

func (w *Writer) Int8(v int8) {
	w.Uint8(uint8(v))
}

func (w *Writer) Uint16(v uint16) {
	if w.reserve(2) {
		w.buf = AppendUint16(w.order, w.buf, v)
	}
}

func (w *Writer) Uint32(v uint32) {
	if w.reserve(4) {
		w.buf = AppendUint32(w.order, w.buf, v)
	}
}

// Bytes appends b verbatim.
func (w *Writer) Bytes(b []byte) {
	if w.reserve(len(b)) {
		w.buf = append(w.buf, b...)
	}
}

// Zero appends n zero bytes.
func (w *Writer) Zero(n int) {
	if w.reserve(n) {
		w.buf = append(w.buf, make([]byte, n)...)
	}
}

// Len reports the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Data returns the written prefix.
func (w *Writer) Data() []byte { return w.buf }

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

// Order returns the writer's byte order.
func (w *Writer) Order() binary.ByteOrder { return w.order }

// Reader consumes packed fields from a byte slice with bounds checks.
// After the first short read every accessor returns zero values.
type Reader struct {
	order binary.ByteOrder
	data  []byte
	off   int
	err   error
}

// NewReader returns a reader over data.
func NewReader(order binary.ByteOrder, data []byte) *Reader {
	return &Reader{order: order, data: data}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.off, len(r.data)-r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) Int8() int8 {
	return int8(r.Uint8())
}

func (r *Reader) Uint16() uint16 {
	if b := r.take(2); b != nil {
		return r.order.Uint16(b)
	}
	return 0
}

func (r *Reader) Uint32() uint32 {
	if b := r.take(4); b != nil {
		return r.order.Uint32(b)
	}
	return 0
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Fixed fills dst from the next len(dst) bytes.
func (r *Reader) Fixed(dst []byte) {
	if b := r.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}

// Remaining reports unread bytes.
func (r *Reader) Remaining() int {
	if r.err != nil {
		return 0
	}
	return len(r.data) - r.off
}

// Offset reports the number of bytes consumed.
func (r *Reader) Offset() int { return r.off }

// Err returns the first read error, if any.
func (r *Reader) Err() error { return r.err }
