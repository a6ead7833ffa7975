package app

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tonylturner/zbncp/internal/capture"
	"github.com/tonylturner/zbncp/internal/config"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

// DecodeOptions controls `zbncp decode`.
type DecodeOptions struct {
	Hex       string
	ByteOrder string
	Out       io.Writer
}

// CaptureDumpOptions controls `zbncp capture dump`.
type CaptureDumpOptions struct {
	Path       string
	Call       string
	MaxEntries int
	ShowBody   bool
	ByteOrder  string
	Out        io.Writer
}

// setByteOrder applies a byte order name for offline decoding.
func setByteOrder(name string) error {
	if name == "" {
		return nil
	}
	order, ok := protocol.ParseByteOrder(name)
	if !ok {
		return fmt.Errorf("unknown byte order %q (want little or big)", name)
	}
	opts := protocol.CurrentOptions()
	opts.ByteOrder = order
	protocol.SetOptions(opts)
	return nil
}

// DescribeFrame renders one frame as a header line and, when the call has a
// typed body, the decoded record.
func DescribeFrame(frame []byte) (string, error) {
	f, err := protocol.Decode(frame)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	h := f.Header
	fmt.Fprintf(&b, "%s %s (0x%04x) version %d", h.Control, h.CallID, uint16(h.CallID), h.Version)
	if h.Control != protocol.ControlIndication {
		fmt.Fprintf(&b, " tsn %d", h.TSN)
	}
	if h.Control == protocol.ControlResponse {
		fmt.Fprintf(&b, " status %s", h.Status)
	}
	fmt.Fprintf(&b, " body %d bytes", len(f.Body))

	rec, err := protocol.DecodeTyped(f)
	switch {
	case err != nil:
		fmt.Fprintf(&b, "\n  body error: %v", err)
	case rec != nil:
		fmt.Fprintf(&b, "\n  %T %+v", rec, rec)
	}
	return b.String(), nil
}

// RunDecode decodes one hex-encoded frame.
func RunDecode(opts DecodeOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if err := setByteOrder(opts.ByteOrder); err != nil {
		return err
	}
	data, err := config.DecodeHex(opts.Hex)
	if err != nil {
		return fmt.Errorf("parse frame: %w", err)
	}
	desc, err := DescribeFrame(data)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	fmt.Fprintln(out, desc)
	return nil
}

// RunCaptureDump prints the frames of a capture file, optionally only those
// carrying one call.
func RunCaptureDump(opts CaptureDumpOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if err := setByteOrder(opts.ByteOrder); err != nil {
		return err
	}
	var filter spec.CallCode
	if opts.Call != "" {
		code, ok := spec.LookupCall(strings.ToUpper(opts.Call))
		if !ok {
			return fmt.Errorf("unknown call %q", opts.Call)
		}
		filter = code
	}

	records, err := capture.ReadFile(opts.Path)
	if err != nil {
		return err
	}

	count := 0
	for idx, rec := range records {
		if filter != 0 {
			h, err := protocol.DecodeHeader(rec.Frame)
			if err != nil || h.CallID != filter {
				continue
			}
		}
		count++
		desc, err := DescribeFrame(rec.Frame)
		if err != nil {
			desc = fmt.Sprintf("undecodable: %v", err)
		}
		fmt.Fprintf(out, "#%d %s %s %s\n", idx+1, rec.Time.Format("15:04:05.000000"), rec.Direction, desc)
		if opts.ShowBody {
			fmt.Fprintf(out, "  frame: %s\n", hex.EncodeToString(rec.Frame))
		}
		if opts.MaxEntries > 0 && count >= opts.MaxEntries {
			break
		}
	}

	if count == 0 {
		if filter != 0 {
			fmt.Fprintf(out, "No frames for %s found.\n", filter)
		} else {
			fmt.Fprintln(out, "Capture is empty.")
		}
		return nil
	}
	fmt.Fprintf(out, "\n%d of %d frames shown\n", count, len(records))
	return nil
}
