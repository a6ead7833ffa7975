package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

func TestValidateRunConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr string
	}{
		{name: "default is valid"},
		{
			name:    "unknown role",
			mutate:  func(c *RunConfig) { c.Network.Role = "hub" },
			wantErr: "network.role",
		},
		{
			name:    "empty channel mask",
			mutate:  func(c *RunConfig) { c.Network.ChannelMask = 0 },
			wantErr: "channel_mask",
		},
		{
			name:    "channel outside band",
			mutate:  func(c *RunConfig) { c.Network.ChannelMask = 1 << 5 },
			wantErr: "outside 11-26",
		},
		{
			name:    "reserved pan id",
			mutate:  func(c *RunConfig) { c.Network.PanID = 0xFFFF },
			wantErr: "reserved",
		},
		{
			name:    "short network key",
			mutate:  func(c *RunConfig) { c.Network.NwkKey = "11aa" },
			wantErr: "nwk_key must be 16 bytes",
		},
		{
			name:    "bad install code length",
			mutate:  func(c *RunConfig) { c.Network.InstallCode = "0102030405" },
			wantErr: "install_code must be",
		},
		{
			name:    "bad install code address",
			mutate:  func(c *RunConfig) { c.Network.InstallCodeIEEE = "zz" },
			wantErr: "install_code_ieee",
		},
		{
			name:    "bad byte order",
			mutate:  func(c *RunConfig) { c.Protocol.ByteOrder = "middle" },
			wantErr: "byte_order",
		},
		{
			name:    "unknown required call",
			mutate:  func(c *RunConfig) { c.Verify.Required = []string{"NCP_RESET", "NOT_A_CALL"} },
			wantErr: "verify.required[1]",
		},
		{
			name:    "unknown ignored call",
			mutate:  func(c *RunConfig) { c.Verify.Ignore = []string{"BOGUS"} },
			wantErr: "verify.ignore[0]",
		},
		{
			name: "loopback reply with unknown status",
			mutate: func(c *RunConfig) {
				c.Loopback.Replies = []LoopbackReply{{Call: "GET_PAN_ID", Status: "NOPE"}}
			},
			wantErr: "loopback.replies[0]",
		},
		{
			name: "loopback indication marked response",
			mutate: func(c *RunConfig) {
				c.Loopback.Replies = []LoopbackReply{{
					Call:        "NWK_FORMATION",
					Indications: []LoopbackFrame{{Kind: "response", Call: "GET_PAN_ID"}},
				}}
			},
			wantErr: "indications[0]",
		},
		{
			name: "bad boot body",
			mutate: func(c *RunConfig) {
				c.Loopback.Boot = []LoopbackFrame{{Kind: "response", Call: "NCP_RESET", Body: "0g"}}
			},
			wantErr: "loopback.boot[0]",
		},
		{
			name:    "bad log level",
			mutate:  func(c *RunConfig) { c.Output.LogLevel = "chatty" },
			wantErr: "log_level",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *RunConfig) { c.TimeoutSec = -1 },
			wantErr: "timeout_sec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CreateDefaultRunConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := ValidateRunConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateRunConfig() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidateRunConfig() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRunConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
scenario: zc_echo
network:
  channel_mask: 0x800
  erase_nvram: false
protocol:
  byte_order: big
verify:
  required: ["NCP_RESET", "GET_MODULE_VERSION=OK"]
  ignore: ["APSDE_DATA_IND"]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadRunConfig(path, false)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Network.Role != "zc" || cfg.Network.PanID != DefaultEchoPanID {
		t.Errorf("scenario defaults not applied: %+v", cfg.Network)
	}
	if cfg.Network.ChannelMask != 0x800 {
		t.Errorf("channel mask = %#x", cfg.Network.ChannelMask)
	}
	if cfg.EraseNVRAM() || !cfg.AutoPoll() {
		t.Errorf("erase %v auto poll %v", cfg.EraseNVRAM(), cfg.AutoPoll())
	}
	if order, _ := cfg.ByteOrder(); order != binary.BigEndian {
		t.Errorf("byte order = %v", order)
	}
	req, err := cfg.RequiredEntries()
	if err != nil || len(req) != 2 || req[1].Call != spec.GetModuleVersion || req[1].Status == nil {
		t.Fatalf("required = %+v, %v", req, err)
	}
	ign, err := cfg.IgnoredCalls()
	if err != nil || len(ign) != 1 || ign[0] != spec.APSDEDataInd {
		t.Fatalf("ignore = %v, %v", ign, err)
	}
	if cfg.Transport != DefaultTransport || cfg.Output.LogLevel != DefaultLogLevel {
		t.Errorf("defaults missing: transport %q level %q", cfg.Transport, cfg.Output.LogLevel)
	}
}

func TestLoadRunConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	data := `
scenario = "zed"
timeout_sec = 5

[network]
nwk_key = "00112233445566778899aabbccddeeff"

[[loopback.replies]]
call = "GET_PAN_ID"
body = "43 50"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadRunConfig(path, false)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if role, _ := cfg.Role(); role != protocol.RoleZED {
		t.Errorf("role = %v", role)
	}
	if cfg.TimeoutSec != 5 {
		t.Errorf("timeout = %d", cfg.TimeoutSec)
	}
	key, err := cfg.NwkKeyBytes()
	if err != nil || key[0] != 0x00 || key[15] != 0xff {
		t.Fatalf("key = %v, %v", key, err)
	}
	if len(cfg.Loopback.Replies) != 1 || cfg.Loopback.Replies[0].Body != "43 50" {
		t.Fatalf("replies = %+v", cfg.Loopback.Replies)
	}
}

func TestLoadRunConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := LoadRunConfig(path, false); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
	cfg, err := LoadRunConfig(path, true)
	if err != nil {
		t.Fatalf("LoadRunConfig autoCreate: %v", err)
	}
	if cfg.Scenario != DefaultScenario {
		t.Errorf("scenario = %q", cfg.Scenario)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default file not written: %v", err)
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	for _, name := range []string{"default.yaml", "default.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteDefaultRunConfig(path); err != nil {
				t.Fatalf("WriteDefaultRunConfig: %v", err)
			}
			cfg, err := LoadRunConfig(path, false)
			if err != nil {
				t.Fatalf("LoadRunConfig: %v", err)
			}
			want := CreateDefaultRunConfig()
			if cfg.Network != want.Network || cfg.Scenario != want.Scenario || cfg.TimeoutSec != want.TimeoutSec {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", cfg, want)
			}
		})
	}
}

func TestInstallCodeDefaults(t *testing.T) {
	cfg := CreateDefaultRunConfig()
	code, err := cfg.InstallCodeBytes()
	if err != nil || len(code) != 18 || code[0] != 0x83 || code[17] != 0xB5 {
		t.Fatalf("install code = % X, %v", code, err)
	}
	addr, err := cfg.InstallCodeAddr()
	if err != nil {
		t.Fatalf("InstallCodeAddr: %v", err)
	}
	want := protocol.IEEEAddr{0x11, 0x11, 0xef, 0xcd, 0xab, 0x50, 0x50, 0x50}
	if addr != want {
		t.Fatalf("addr = % X, want % X", addr[:], want[:])
	}
}

func TestEnrichForScenario(t *testing.T) {
	for _, name := range ScenarioNames() {
		cfg := &RunConfig{}
		EnrichForScenario(cfg, name)
		if cfg.Network.Role == "" || cfg.Network.ChannelMask == 0 || cfg.TimeoutSec == 0 {
			t.Errorf("%s: incomplete defaults %+v", name, cfg)
		}
	}
	cfg := &RunConfig{Network: NetworkConfig{Role: "zr", PanID: 0x1234}}
	EnrichForScenario(cfg, "zc_echo")
	if cfg.Network.Role != "zr" || cfg.Network.PanID != 0x1234 {
		t.Errorf("enrich overwrote explicit values: %+v", cfg.Network)
	}
	cfg = &RunConfig{}
	EnrichForScenario(cfg, "nope")
	if cfg.Network.Role != "" {
		t.Errorf("unknown scenario filled values")
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"", "", false},
		{"0x0102", "\x01\x02", false},
		{"01 02:03", "\x01\x02\x03", false},
		{"abc", "", true},
		{"01 0g", "", true},
	}
	for _, tt := range tests {
		got, err := DecodeHex(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("DecodeHex(%q) err = %v", tt.in, err)
			continue
		}
		if err != nil && got != nil {
			t.Errorf("DecodeHex(%q) returned % X with its error", tt.in, got)
		}
		if string(got) != tt.want {
			t.Errorf("DecodeHex(%q) = % X", tt.in, got)
		}
	}
}
