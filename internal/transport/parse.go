package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// Parse parses a transport string such as "loopback" or "replay:run.pcap".
// Supported formats:
//   - "loopback" or "" -> Loopback with an empty script
//   - "replay:run.pcap" or "replay:///abs/run.pcap" -> Replay of a capture file
func Parse(spec string) (Transport, error) {
	return ParseWithOptions(spec, DefaultOptions())
}

// ParseWithOptions parses a transport string with custom options.
func ParseWithOptions(spec string, opts Options) (Transport, error) {
	if IsLoopback(spec) {
		return NewLoopback(opts), nil
	}

	if strings.Contains(spec, "://") {
		return parseURL(spec, opts)
	}

	if path, ok := strings.CutPrefix(spec, "replay:"); ok {
		if path == "" {
			return nil, fmt.Errorf("replay transport needs a capture path")
		}
		return OpenReplay(path, opts)
	}

	return nil, fmt.Errorf("unsupported transport %q", spec)
}

// parseURL parses a URL-style transport spec.
func parseURL(spec string, opts Options) (Transport, error) {
	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	switch u.Scheme {
	case "loopback":
		return NewLoopback(opts), nil
	case "replay":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			return nil, fmt.Errorf("replay transport needs a capture path")
		}
		return OpenReplay(path, opts)
	default:
		return nil, fmt.Errorf("unsupported transport scheme: %s", u.Scheme)
	}
}

// MustParse parses a transport spec and panics on error.
// Useful for tests and initialization.
func MustParse(spec string) Transport {
	t, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// IsLoopback returns true if the transport spec refers to the scripted loopback.
func IsLoopback(spec string) bool {
	return spec == "" || spec == "loopback"
}

// IsReplay returns true if the transport spec replays a capture file.
func IsReplay(spec string) bool {
	return strings.HasPrefix(spec, "replay:")
}
