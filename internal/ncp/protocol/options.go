package protocol

import (
	"encoding/binary"
	"sync"
)

// Options controls NCP high-level framing.
type Options struct {
	// ByteOrder applies to every multi-byte header and body field.
	ByteOrder binary.ByteOrder
	// Version is stamped into the first byte of outgoing frames.
	Version uint8
}

var (
	optionsMu      sync.RWMutex
	currentOptions = Options{
		ByteOrder: binary.LittleEndian,
		Version:   ProtocolVersion,
	}
)

// SetOptions sets the global NCP framing options.
func SetOptions(opts Options) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	currentOptions = opts
}

// CurrentOptions returns the active NCP framing options.
func CurrentOptions() Options {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return currentOptions
}

func currentByteOrder() binary.ByteOrder {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	if currentOptions.ByteOrder == nil {
		return binary.LittleEndian
	}
	return currentOptions.ByteOrder
}

// ParseByteOrder maps "little"/"big" (and their "-endian" forms) to a byte order.
func ParseByteOrder(name string) (binary.ByteOrder, bool) {
	switch name {
	case "", "little", "little-endian", "le":
		return binary.LittleEndian, true
	case "big", "big-endian", "be":
		return binary.BigEndian, true
	}
	return nil, false
}
