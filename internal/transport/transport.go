// Package transport carries NCP frames between the host and the co-processor.
//
// The physical link is out of scope. Implementations here are a scripted
// loopback double, a capture replay source and a recording wrapper.
package transport

import (
	"context"
	"errors"
	"time"
)

// Transport is the byte-level exchange the session drives.
type Transport interface {
	// Init registers the data-ready callback. The callback may run on any
	// goroutine and must not block.
	Init(onDataReady func()) error

	// Exchange sends out (when non-empty) and copies at most one received
	// frame into in. It returns the received length and how long the caller
	// should wait before polling again.
	Exchange(ctx context.Context, out []byte, in []byte) (received int, wait time.Duration, err error)

	// Close releases any held resources.
	Close() error

	// String returns a human-readable description of the transport.
	String() string
}

var (
	// ErrClosed is returned by Exchange after Close.
	ErrClosed = errors.New("transport closed")
	// ErrNotInitialized is returned by Exchange before Init.
	ErrNotInitialized = errors.New("transport not initialized")
	// ErrExhausted is returned by sources that have no more frames to deliver.
	ErrExhausted = errors.New("transport has no more frames")
	// ErrBufferTooSmall is returned when a frame does not fit the receive buffer.
	ErrBufferTooSmall = errors.New("receive buffer too small")
)

// Options configures transport behavior.
type Options struct {
	IdleWait time.Duration // Suggested wait when nothing is pending
	Script   *Script       // Loopback replies; nil uses an empty script
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		IdleWait: 20 * time.Millisecond,
	}
}

func (o Options) idleWait() time.Duration {
	if o.IdleWait <= 0 {
		return DefaultOptions().IdleWait
	}
	return o.IdleWait
}

func copyFrame(in, frame []byte) (int, error) {
	if len(frame) > len(in) {
		return 0, ErrBufferTooSmall
	}
	return copy(in, frame), nil
}
