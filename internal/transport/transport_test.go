package transport

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tonylturner/zbncp/internal/capture"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

func mustRequest(t *testing.T, call spec.CallCode, tsn uint8, body protocol.BodyEncoder) []byte {
	t.Helper()
	out, err := protocol.EncodeRequest(call, tsn, body)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	return out
}

func TestLoopbackNotInitialized(t *testing.T) {
	l := NewLoopback(DefaultOptions())
	buf := make([]byte, protocol.MaxFrame)
	if _, _, err := l.Exchange(context.Background(), nil, buf); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestLoopbackBootAndReply(t *testing.T) {
	script := NewScript().
		BootResponse(spec.NCPReset, 0, nil).
		On(spec.GetPanID, Reply{Body: &protocol.Uint16{Value: 0x5043}})
	l := NewLoopback(Options{Script: script})

	hints := 0
	if err := l.Init(func() { hints++ }); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if hints != 1 {
		t.Fatalf("boot hints = %d, want 1", hints)
	}

	ctx := context.Background()
	buf := make([]byte, protocol.MaxFrame)
	n, _, err := l.Exchange(ctx, nil, buf)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	h, err := protocol.DecodeHeader(buf[:n])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Control != protocol.ControlResponse || h.CallID != spec.NCPReset || h.TSN != 0 {
		t.Fatalf("boot header = %+v", h)
	}

	n, _, err = l.Exchange(ctx, mustRequest(t, spec.GetPanID, 9, nil), buf)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	f, err := protocol.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Header.CallID != spec.GetPanID || f.Header.TSN != 9 || !f.Header.Status.OK() {
		t.Fatalf("reply header = %+v", f.Header)
	}
	var pan protocol.Uint16
	if err := protocol.DecodeBody(f.Body, &pan); err != nil || pan.Value != 0x5043 {
		t.Fatalf("pan = %#x, err %v", pan.Value, err)
	}
}

func TestLoopbackDefaultReplyAndIndications(t *testing.T) {
	script := NewScript().On(spec.NwkFormation, Reply{
		Indications: []Indication{{Call: spec.ZDODevAnnceInd, Body: &protocol.DevAnnce{ShortAddr: 0x1234}}},
	})
	l := NewLoopback(Options{Script: script})
	if err := l.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := context.Background()
	buf := make([]byte, protocol.MaxFrame)

	n, wait, err := l.Exchange(ctx, mustRequest(t, spec.NwkFormation, 1, &protocol.Formation{}), buf)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if wait != 0 {
		t.Errorf("wait = %v, want 0 while frames are pending", wait)
	}
	if h, _ := protocol.DecodeHeader(buf[:n]); h.CallID != spec.NwkFormation {
		t.Fatalf("first frame = %+v", h)
	}
	n, _, err = l.Exchange(ctx, nil, buf)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if h, _ := protocol.DecodeHeader(buf[:n]); h.Control != protocol.ControlIndication || h.CallID != spec.ZDODevAnnceInd {
		t.Fatalf("second frame = %+v", h)
	}

	// Unscripted call gets an empty OK response.
	n, _, err = l.Exchange(ctx, mustRequest(t, spec.GetJoined, 2, nil), buf)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if n != protocol.ResponseHeaderSize {
		t.Fatalf("default reply length = %d", n)
	}

	n, wait, err = l.Exchange(ctx, nil, buf)
	if err != nil || n != 0 || wait != DefaultOptions().IdleWait {
		t.Fatalf("idle exchange = %d, %v, %v", n, wait, err)
	}

	calls := l.RequestCalls()
	if len(calls) != 2 || calls[0] != spec.NwkFormation || calls[1] != spec.GetJoined {
		t.Fatalf("requests = %v", calls)
	}
}

func TestLoopbackRepliesInOrder(t *testing.T) {
	fail := spec.StatusIDOf(spec.StatusGeneric, 1)
	script := NewScript().On(spec.NCPReset, Reply{Status: fail}, Reply{})
	l := NewLoopback(Options{Script: script})
	if err := l.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := context.Background()
	buf := make([]byte, protocol.MaxFrame)
	var statuses []spec.StatusID
	for i := 0; i < 3; i++ {
		n, _, err := l.Exchange(ctx, mustRequest(t, spec.NCPReset, uint8(i+1), &protocol.Uint8{}), buf)
		if err != nil {
			t.Fatalf("Exchange: %v", err)
		}
		h, _ := protocol.DecodeHeader(buf[:n])
		statuses = append(statuses, h.Status)
	}
	if statuses[0] != fail || statuses[1] != 0 || statuses[2] != 0 {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestLoopbackRejectsGarbage(t *testing.T) {
	l := NewLoopback(DefaultOptions())
	if err := l.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	buf := make([]byte, protocol.MaxFrame)
	if _, _, err := l.Exchange(context.Background(), []byte{1, 2}, buf); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if l.Rejected() != 1 || len(l.Requests()) != 0 {
		t.Fatalf("rejected = %d requests = %d", l.Rejected(), len(l.Requests()))
	}
}

func TestLoopbackClosed(t *testing.T) {
	l := NewLoopback(DefaultOptions())
	_ = l.Init(nil)
	_ = l.Close()
	if _, _, err := l.Exchange(context.Background(), nil, make([]byte, 16)); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestLoopbackCancelled(t *testing.T) {
	l := NewLoopback(DefaultOptions())
	_ = l.Init(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := l.Exchange(ctx, nil, make([]byte, 16)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestRecordingAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.pcap")
	w, err := capture.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	script := NewScript().
		BootResponse(spec.NCPReset, 0, nil).
		On(spec.GetModuleVersion, Reply{Body: &protocol.ModuleVersion{Version: 0x01020304}})
	rec := NewRecording(NewLoopback(Options{Script: script}), w)
	if err := rec.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := context.Background()
	buf := make([]byte, protocol.MaxFrame)
	var received [][]byte
	for _, out := range [][]byte{nil, mustRequest(t, spec.GetModuleVersion, 1, nil)} {
		n, _, err := rec.Exchange(ctx, out, buf)
		if err != nil {
			t.Fatalf("Exchange: %v", err)
		}
		received = append(received, append([]byte(nil), buf[:n]...))
	}
	_ = rec.Close()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Count() != 3 {
		t.Fatalf("records = %d, want 3", w.Count())
	}

	tr, err := Parse("replay:" + path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	replay := tr.(*Replay)
	if replay.Remaining() != 2 {
		t.Fatalf("remaining = %d", replay.Remaining())
	}
	if err := replay.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i, want := range received {
		n, _, err := replay.Exchange(ctx, []byte{0}, buf)
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if !bytes.Equal(buf[:n], want) {
			t.Fatalf("replay %d = % X, want % X", i, buf[:n], want)
		}
	}
	if _, _, err := replay.Exchange(ctx, nil, buf); !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if replay.Sent() != 2 {
		t.Errorf("sent = %d", replay.Sent())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		want    string
		wantErr bool
	}{
		{"", "loopback", false},
		{"loopback", "loopback", false},
		{"loopback://", "loopback", false},
		{"replay:", "", true},
		{"serial:/dev/ttyACM0", "", true},
		{"tcp://host:1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			tr, err := Parse(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if err == nil && tr.String() != tt.want {
				t.Errorf("String() = %q, want %q", tr.String(), tt.want)
			}
		})
	}
	if !IsReplay("replay:x.pcap") || IsReplay("loopback") {
		t.Errorf("IsReplay wrong")
	}
}
