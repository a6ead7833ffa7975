package scenario

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

var testICIEEE = protocol.IEEEAddr{0x11, 0x11, 0xef, 0xcd, 0xab, 0x50, 0x50, 0x50}

func testParams(role protocol.Role, echoes int) Params {
	p := Params{
		Role:        role,
		ChannelMask: 1 << 11,
		NwkKey:      protocol.Key{0x11, 0xaa, 0x22, 0xbb, 0x33, 0xcc, 0x44, 0xdd},
		InstallCode: []byte{
			0x83, 0xFE, 0xD3, 0x40, 0x7A, 0x93, 0x97, 0x23, 0xA5,
			0xC6, 0x39, 0xB2, 0x69, 0x16, 0xD5, 0x05, 0xC3, 0xB5,
		},
		ICIEEE:     testICIEEE,
		EraseNVRAM: true,
		AutoPoll:   true,
		EchoLimit:  echoes,
	}
	if role == protocol.RoleZC {
		p.PanID = 0x6D42
	}
	return p
}

type run struct {
	s    *session.Session
	lb   *transport.Loopback
	logs *logging.Capture
	err  error
}

// runScenario plays sc against its own script until it reports done or
// the deadline passes.
func runScenario(t *testing.T, sc Scenario, script *transport.Script) run {
	t.Helper()
	logger, logs := logging.NewCaptureLogger(logging.LogLevelInfo)
	lb := transport.NewLoopback(transport.Options{Script: script, IdleWait: time.Millisecond})
	s, err := session.New(session.Config{
		Transport: lb,
		Logger:    logger,
		Verifier:  verify.New(sc.Required(), nil, logger),
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	sc.Attach(s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return run{s: s, lb: lb, logs: logs, err: s.Run(ctx, sc.Done)}
}

func mustComplete(t *testing.T, name string, p Params) (Scenario, run) {
	t.Helper()
	sc, err := GetScenario(name, p)
	if err != nil {
		t.Fatalf("GetScenario(%s): %v", name, err)
	}
	r := runScenario(t, sc, sc.Script())
	if r.err != nil {
		t.Fatalf("%s did not complete: %v, pending %v", name, r.err, r.s.Verifier().Pending())
	}
	stats := r.s.Verifier().Stats()
	if stats.Matched != len(sc.Required()) || stats.Remaining != 0 {
		t.Fatalf("%s verifier stats = %+v, required %d", name, stats, len(sc.Required()))
	}
	if n := r.logs.Count("ERROR", ""); n != 0 {
		t.Errorf("%s logged %d errors: %v", name, n, r.logs.Entries())
	}
	return sc, r
}

func requests(lb *transport.Loopback, call spec.CallCode) []protocol.Frame {
	var out []protocol.Frame
	for _, f := range lb.Requests() {
		if f.Header.CallID == call {
			out = append(out, f)
		}
	}
	return out
}

// after returns the calls following the first occurrence of from.
func after(calls []spec.CallCode, from spec.CallCode) []spec.CallCode {
	for i, c := range calls {
		if c == from {
			return calls[i+1:]
		}
	}
	return nil
}

func sameCalls(t *testing.T, got, want []spec.CallCode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("calls = %v\nwant   %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d = %s, want %s\ncalls = %v", i, got[i], want[i], got)
		}
	}
}

func TestGetScenario(t *testing.T) {
	for _, name := range Names() {
		p := testParams(protocol.RoleZC, 1)
		switch name {
		case "zr":
			p.Role = protocol.RoleZR
		case "zed":
			p.Role = protocol.RoleZED
		}
		sc, err := GetScenario(name, p)
		if err != nil {
			t.Fatalf("GetScenario(%s) error: %v", name, err)
		}
		if sc.Name() != name {
			t.Errorf("Name() = %q, want %q", sc.Name(), name)
		}
	}
	if _, err := GetScenario("unknown_scenario", testParams(protocol.RoleZC, 1)); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
	_, err := GetScenario("zed", testParams(protocol.RoleZC, 1))
	if err == nil || !strings.Contains(err.Error(), "runs as ZED") {
		t.Fatalf("role mismatch error = %v", err)
	}
}

func TestBringupSequence(t *testing.T) {
	tests := []struct {
		name  string
		erase bool
		poll  bool
		want  []spec.CallCode
	}{
		{
			name:  "erase and auto poll",
			erase: true,
			poll:  true,
			want: []spec.CallCode{
				spec.NCPReset, spec.GetModuleVersion, spec.GetLocalIEEEAddr,
				spec.SetZigbeeChannelMask, spec.GetZigbeeChannelMask, spec.GetZigbeeChannel,
				spec.SetPanID, spec.GetPanID, spec.SetZigbeeRole, spec.GetZigbeeRole,
				spec.PIMStartPoll,
				spec.GetNwkKeys, spec.NwkGetIEEEByShort, spec.GetAPSKeyByIEEE,
			},
		},
		{
			name: "keep nvram",
			want: []spec.CallCode{
				spec.GetModuleVersion, spec.GetLocalIEEEAddr,
				spec.SetZigbeeChannelMask, spec.GetZigbeeChannelMask, spec.GetZigbeeChannel,
				spec.SetPanID, spec.GetPanID, spec.SetZigbeeRole, spec.GetZigbeeRole,
				spec.GetNwkKeys, spec.NwkGetIEEEByShort, spec.GetAPSKeyByIEEE,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(protocol.RoleZC, 0)
			p.EraseNVRAM, p.AutoPoll = tt.erase, tt.poll
			_, r := mustComplete(t, "bringup", p)
			sameCalls(t, r.lb.RequestCalls(), tt.want)

			reset := requests(r.lb, spec.NCPReset)
			if tt.erase {
				var opt protocol.Uint8
				if len(reset) != 1 || protocol.DecodeBody(reset[0].Body, &opt) != nil || opt.Value != uint8(protocol.ResetNVRAMErase) {
					t.Fatalf("reset requests = %+v", reset)
				}
			}
			pan := requests(r.lb, spec.SetPanID)
			var v protocol.Uint16
			if len(pan) != 1 || protocol.DecodeBody(pan[0].Body, &v) != nil || v.Value != 0x6D42 {
				t.Fatalf("SET_PAN_ID = %+v", pan)
			}
		})
	}
}

func TestBringupRouterSkipsPanID(t *testing.T) {
	p := testParams(protocol.RoleZR, 0)
	p.PanID = 0x1234
	sc := newBringup(p)
	r := runScenario(t, sc, sc.Script())
	if r.err != nil {
		t.Fatalf("Run: %v", r.err)
	}
	if got := requests(r.lb, spec.SetPanID); len(got) != 0 {
		t.Fatalf("router sent SET_PAN_ID")
	}
}

func TestSkipKeyDump(t *testing.T) {
	p := testParams(protocol.RoleZC, 0)
	p.SkipKeyDump = true
	_, r := mustComplete(t, "bringup", p)
	if got := requests(r.lb, spec.GetAPSKeyByIEEE); len(got) != 0 {
		t.Fatalf("key dump ran with SkipKeyDump")
	}
}

func TestCoordinatorFormsNetwork(t *testing.T) {
	p := testParams(protocol.RoleZC, 0)
	_, r := mustComplete(t, "zc", p)

	sameCalls(t, after(r.lb.RequestCalls(), spec.PIMStartPoll), []spec.CallCode{
		spec.SetNwkKey, spec.GetNwkKeys, spec.NwkFormation, spec.ZDOPermitJoiningReq,
		spec.SecurJoinUsesIC, spec.SecurAddIC, spec.GetZigbeeRole,
		spec.GetNwkKeys, spec.NwkGetIEEEByShort, spec.GetAPSKeyByIEEE,
	})

	var form protocol.Formation
	if err := protocol.DecodeBody(requests(r.lb, spec.NwkFormation)[0].Body, &form); err != nil {
		t.Fatalf("decode formation: %v", err)
	}
	if form.Pages != 1 || form.ChannelMask != p.ChannelMask || form.ScanDuration != scanDuration {
		t.Errorf("formation = %+v", form)
	}

	var pj protocol.PermitJoiningReq
	if err := protocol.DecodeBody(requests(r.lb, spec.ZDOPermitJoiningReq)[0].Body, &pj); err != nil {
		t.Fatalf("decode permit joining: %v", err)
	}
	if pj.DstAddr != 0x0000 || pj.Duration != 0xFE {
		t.Errorf("permit joining = %+v", pj)
	}

	var ic protocol.InstallCode
	if err := protocol.DecodeBody(requests(r.lb, spec.SecurAddIC)[0].Body, &ic); err != nil {
		t.Fatalf("decode install code: %v", err)
	}
	if ic.IEEE != testICIEEE || len(ic.Code) != 18 || ic.Code[17] != 0xB5 {
		t.Errorf("install code = %s % X", ic.IEEE, ic.Code)
	}

	var key protocol.NwkKey
	if err := protocol.DecodeBody(requests(r.lb, spec.SetNwkKey)[0].Body, &key); err != nil {
		t.Fatalf("decode key: %v", err)
	}
	if key.Key != p.NwkKey || key.Number != 0 {
		t.Errorf("nwk key = %+v", key)
	}
}

func TestCoordinatorEcho(t *testing.T) {
	const echoes = 10
	p := testParams(protocol.RoleZC, echoes)
	_, r := mustComplete(t, "zc_echo", p)

	calls := after(r.lb.RequestCalls(), spec.SecurAddIC)
	if len(calls) < 5 {
		t.Fatalf("calls after install code = %v", calls)
	}
	sameCalls(t, calls[:5], []spec.CallCode{
		spec.GetZigbeeRole, spec.NwkGetIEEEByShort, spec.NwkGetNeighborByIEEE,
		spec.NwkGetShortByIEEE, spec.GetAPSKeyByIEEE,
	})

	data := requests(r.lb, spec.APSDEDataReq)
	if len(data) != echoes {
		t.Fatalf("echoes = %d, want %d", len(data), echoes)
	}
	for i, f := range data {
		var req protocol.DataReq
		if err := protocol.DecodeBody(f.Body, &req); err != nil {
			t.Fatalf("decode echo %d: %v", i, err)
		}
		pr := req.Params
		if pr.DstAddr.Short() != simJoinedShort || pr.AddrMode != protocol.AddrMode16EndpPresent {
			t.Errorf("echo %d dst = %s", i, pr.DstAddr.Format(pr.AddrMode))
		}
		if pr.Radius != echoRadius || pr.TxOptions != protocol.TxSecurity|protocol.TxAck {
			t.Errorf("echo %d radius %d options %#x", i, pr.Radius, pr.TxOptions)
		}
		if pr.ProfileID != echoProfile || pr.ClusterID != echoCluster {
			t.Errorf("echo %d profile %#04x cluster %#04x", i, pr.ProfileID, pr.ClusterID)
		}
		if want := fmt.Sprintf("echo #%d", i+1); string(req.Data) != want {
			t.Errorf("echo %d data %q, want %q", i, req.Data, want)
		}
	}

	// key dump reads the coordinator's own address after the echoes
	keyReqs := requests(r.lb, spec.GetAPSKeyByIEEE)
	if len(keyReqs) != 2 {
		t.Fatalf("aps key requests = %d", len(keyReqs))
	}
	var a protocol.Addr64
	if err := protocol.DecodeBody(keyReqs[1].Body, &a); err != nil || a.Addr != simLocalIEEE {
		t.Fatalf("key dump address = %s, %v", a.Addr, err)
	}
}

func TestRouterJoinsAndEchoes(t *testing.T) {
	const echoes = 10
	p := testParams(protocol.RoleZR, echoes)
	_, r := mustComplete(t, "zr", p)

	calls := after(r.lb.RequestCalls(), spec.PIMStartPoll)
	if len(calls) < 2 || calls[0] != spec.NwkDiscovery || calls[1] != spec.NwkNLMEJoin {
		t.Fatalf("calls after bring-up = %v", calls)
	}

	var join protocol.JoinReq
	if err := protocol.DecodeBody(requests(r.lb, spec.NwkNLMEJoin)[0].Body, &join); err != nil {
		t.Fatalf("decode join: %v", err)
	}
	if join.ChannelMask != 1<<11 || join.Capability != uint8(protocol.CapRouter|protocol.CapAllocateAddress) {
		t.Errorf("join = %+v", join)
	}
	if join.ExtPanID != mustIEEE(simExtPanID) {
		t.Errorf("join ext pan id = %s", join.ExtPanID)
	}
	if n := len(requests(r.lb, spec.APSDEDataReq)); n != echoes {
		t.Fatalf("echoes = %d, want %d", n, echoes)
	}
}

func TestRouterStopsWhenDiscoveryFails(t *testing.T) {
	p := testParams(protocol.RoleZR, 3)
	sc := newRouter(p)
	script := sc.Script()
	script.Replies[spec.NwkDiscovery] = []transport.Reply{{Status: spec.StatusError}}

	logger, _ := logging.NewCaptureLogger(logging.LogLevelInfo)
	lb := transport.NewLoopback(transport.Options{Script: script, IdleWait: time.Millisecond})
	s, err := session.New(session.Config{Transport: lb, Logger: logger, Verifier: verify.New(sc.Required(), nil, logger)})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	sc.Attach(s)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx, sc.Done); err == nil {
		t.Fatalf("Run completed after failed discovery")
	}
	if sc.Done() {
		t.Fatalf("Done() after failed discovery")
	}
	if got := requests(lb, spec.NwkNLMEJoin); len(got) != 0 {
		t.Fatalf("join sent after failed discovery")
	}
	if head := s.Verifier().Pending()[0]; head.Call != spec.NwkNLMEJoin {
		t.Fatalf("pending head = %s", head)
	}
}

func TestEndDevicePollTransitions(t *testing.T) {
	const echoes = 15
	p := testParams(protocol.RoleZED, echoes)
	_, r := mustComplete(t, "zed", p)

	dr := spec.APSDEDataReq
	want := []spec.CallCode{
		spec.PIMSetLongPollInterval, spec.PIMSetFastPollInterval, spec.PIMEnableTurboPoll,
		dr, dr, dr, spec.PIMDisableTurboPoll,
		dr, dr, dr, spec.PIMStartFastPoll,
		dr, dr, dr, spec.PIMStopFastPoll,
		dr, dr, dr, spec.PIMStopPoll, spec.PIMStartPoll,
		dr, dr, dr,
		spec.GetNwkKeys, spec.NwkGetIEEEByShort, spec.GetAPSKeyByIEEE,
	}
	sameCalls(t, after(r.lb.RequestCalls(), spec.NwkNLMEJoin), want)

	var rx protocol.Uint8
	if err := protocol.DecodeBody(requests(r.lb, spec.SetRxOnWhenIdle)[0].Body, &rx); err != nil || rx.Value != protocol.Off {
		t.Fatalf("rx on when idle = %d, %v", rx.Value, err)
	}
	var join protocol.JoinReq
	if err := protocol.DecodeBody(requests(r.lb, spec.NwkNLMEJoin)[0].Body, &join); err != nil {
		t.Fatalf("decode join: %v", err)
	}
	if join.Capability != uint8(protocol.CapAllocateAddress) {
		t.Errorf("end device capability = %#x", join.Capability)
	}
	var long protocol.Uint32
	if err := protocol.DecodeBody(requests(r.lb, spec.PIMSetLongPollInterval)[0].Body, &long); err != nil || long.Value != longPollInterval {
		t.Fatalf("long poll interval = %d, %v", long.Value, err)
	}
}

func TestEndDeviceShortRun(t *testing.T) {
	p := testParams(protocol.RoleZED, 4)
	p.AutoPoll = false
	_, r := mustComplete(t, "zed", p)
	if n := len(requests(r.lb, spec.APSDEDataReq)); n != 4 {
		t.Fatalf("echoes = %d", n)
	}
	if n := len(requests(r.lb, spec.PIMStartPoll)); n != 0 {
		t.Fatalf("PIM_START_POLL sent %d times without auto poll", n)
	}
}
