package config

// Run configuration loading and validation for zbncp

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tonylturner/zbncp/internal/errors"
	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/verify"
)

// NetworkConfig describes the network the scenario brings up or joins.
type NetworkConfig struct {
	Role            string `yaml:"role" toml:"role"`
	ChannelPage     uint8  `yaml:"channel_page" toml:"channel_page"`
	ChannelMask     uint32 `yaml:"channel_mask" toml:"channel_mask"`
	PanID           uint16 `yaml:"pan_id" toml:"pan_id"`
	NwkKey          string `yaml:"nwk_key" toml:"nwk_key"`                     // 16 bytes hex
	InstallCode     string `yaml:"install_code" toml:"install_code"`           // hex, 8/10/14/18 bytes
	InstallCodeIEEE string `yaml:"install_code_ieee" toml:"install_code_ieee"` // MSB first
	EraseNVRAM      *bool  `yaml:"erase_nvram,omitempty" toml:"erase_nvram,omitempty"`
	AutoPoll        *bool  `yaml:"auto_poll,omitempty" toml:"auto_poll,omitempty"`
	EchoLimit       int    `yaml:"echo_limit" toml:"echo_limit"`
	SkipKeyDump     bool   `yaml:"skip_key_dump" toml:"skip_key_dump"`
}

// ProtocolConfig controls framing.
type ProtocolConfig struct {
	ByteOrder string `yaml:"byte_order" toml:"byte_order"`
	Version   uint8  `yaml:"version" toml:"version"`
}

// VerifyConfig overrides the scenario's required call list.
type VerifyConfig struct {
	// Required entries are "CALL_NAME" or "CALL_NAME=STATUS". Empty keeps the
	// scenario's own list.
	Required []string `yaml:"required,omitempty" toml:"required,omitempty"`
	Ignore   []string `yaml:"ignore,omitempty" toml:"ignore,omitempty"`
}

// LoopbackFrame is one scripted frame.
type LoopbackFrame struct {
	Kind   string `yaml:"kind,omitempty" toml:"kind,omitempty"` // response or indication
	Call   string `yaml:"call" toml:"call"`
	Status string `yaml:"status,omitempty" toml:"status,omitempty"`
	Body   string `yaml:"body,omitempty" toml:"body,omitempty"` // hex
}

// LoopbackReply replaces the scripted answers to one call.
type LoopbackReply struct {
	Call        string          `yaml:"call" toml:"call"`
	Status      string          `yaml:"status,omitempty" toml:"status,omitempty"`
	Body        string          `yaml:"body,omitempty" toml:"body,omitempty"`
	NoResponse  bool            `yaml:"no_response,omitempty" toml:"no_response,omitempty"`
	Indications []LoopbackFrame `yaml:"indications,omitempty" toml:"indications,omitempty"`
}

// LoopbackConfig tunes the loopback transport.
type LoopbackConfig struct {
	IdleWaitMs int             `yaml:"idle_wait_ms" toml:"idle_wait_ms"`
	Boot       []LoopbackFrame `yaml:"boot,omitempty" toml:"boot,omitempty"`
	Replies    []LoopbackReply `yaml:"replies,omitempty" toml:"replies,omitempty"`
}

// OutputConfig names the run's output files. Empty paths disable the output.
type OutputConfig struct {
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	LogFile     string `yaml:"log_file,omitempty" toml:"log_file,omitempty"`
	CaptureFile string `yaml:"capture_file,omitempty" toml:"capture_file,omitempty"`
	MetricsCSV  string `yaml:"metrics_csv,omitempty" toml:"metrics_csv,omitempty"`
	MetricsJSON string `yaml:"metrics_json,omitempty" toml:"metrics_json,omitempty"`
}

// RunConfig represents one zbncp run
type RunConfig struct {
	Scenario   string         `yaml:"scenario" toml:"scenario"`
	Transport  string         `yaml:"transport" toml:"transport"`
	TimeoutSec int            `yaml:"timeout_sec" toml:"timeout_sec"`
	Network    NetworkConfig  `yaml:"network" toml:"network"`
	Protocol   ProtocolConfig `yaml:"protocol" toml:"protocol"`
	Verify     VerifyConfig   `yaml:"verify" toml:"verify"`
	Loopback   LoopbackConfig `yaml:"loopback" toml:"loopback"`
	Output     OutputConfig   `yaml:"output" toml:"output"`
}

// Default values shared by the loader and the wizard.
const (
	DefaultScenario    = "zc"
	DefaultTransport   = "loopback"
	DefaultTimeoutSec  = 30
	DefaultNwkKey      = "11aa22bb33cc44dd0000000000000000"
	DefaultInstallCode = "83fed3407a939723a5c639b26916d505c3b5"
	DefaultICIEEE      = "50:50:50:ab:cd:ef:11:11"
	DefaultIdleWaitMs  = 20
	DefaultLogLevel    = "info"
)

// CreateDefaultRunConfig creates a default run configuration
func CreateDefaultRunConfig() *RunConfig {
	cfg := &RunConfig{
		Scenario:   DefaultScenario,
		Transport:  DefaultTransport,
		TimeoutSec: DefaultTimeoutSec,
		Network: NetworkConfig{
			NwkKey:          DefaultNwkKey,
			InstallCode:     DefaultInstallCode,
			InstallCodeIEEE: DefaultICIEEE,
		},
		Protocol: ProtocolConfig{ByteOrder: "little"},
		Loopback: LoopbackConfig{IdleWaitMs: DefaultIdleWaitMs},
		Output:   OutputConfig{LogLevel: DefaultLogLevel},
	}
	EnrichForScenario(cfg, cfg.Scenario)
	return cfg
}

// WriteDefaultRunConfig writes a default run configuration to a file.
// A .toml extension selects TOML, anything else YAML.
func WriteDefaultRunConfig(path string) error {
	return WriteRunConfig(path, CreateDefaultRunConfig())
}

// WriteRunConfig writes cfg in the format chosen by the path's extension.
func WriteRunConfig(path string, cfg *RunConfig) error {
	data, err := MarshalRunConfig(cfg, isTOML(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// MarshalRunConfig encodes cfg as TOML or YAML.
func MarshalRunConfig(cfg *RunConfig, asTOML bool) ([]byte, error) {
	if asTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadRunConfig loads a run configuration from a YAML or TOML file.
// If the file doesn't exist and autoCreate is true, a default file is written first.
func LoadRunConfig(path string, autoCreate bool) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case os.IsNotExist(err) && autoCreate:
			if err := WriteDefaultRunConfig(path); err != nil {
				return nil, fmt.Errorf("create default config: %w", err)
			}
			if data, err = os.ReadFile(path); err != nil {
				return nil, errors.WrapConfigError(fmt.Errorf("read created config file: %w", err), path)
			}
		case os.IsNotExist(err):
			return nil, errors.WrapConfigError(fmt.Errorf("config file not found: %s", path), path)
		default:
			return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
		}
	}

	cfg, err := ParseRunConfig(data, isTOML(path))
	if err != nil {
		return nil, errors.WrapConfigError(err, path)
	}
	return cfg, nil
}

// ParseRunConfig decodes, defaults and validates a run configuration.
func ParseRunConfig(data []byte, asTOML bool) (*RunConfig, error) {
	var cfg RunConfig
	if asTOML {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	applyDefaults(&cfg)
	if err := ValidateRunConfig(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *RunConfig) {
	if cfg.Scenario == "" {
		cfg.Scenario = DefaultScenario
	}
	if cfg.Transport == "" {
		cfg.Transport = DefaultTransport
	}
	if cfg.Protocol.ByteOrder == "" {
		cfg.Protocol.ByteOrder = "little"
	}
	if cfg.Loopback.IdleWaitMs == 0 {
		cfg.Loopback.IdleWaitMs = DefaultIdleWaitMs
	}
	if cfg.Output.LogLevel == "" {
		cfg.Output.LogLevel = DefaultLogLevel
	}
	if cfg.Network.NwkKey == "" {
		cfg.Network.NwkKey = DefaultNwkKey
	}
	if cfg.Network.InstallCode == "" {
		cfg.Network.InstallCode = DefaultInstallCode
	}
	if cfg.Network.InstallCodeIEEE == "" {
		cfg.Network.InstallCodeIEEE = DefaultICIEEE
	}
	EnrichForScenario(cfg, cfg.Scenario)
}

// ValidateRunConfig validates a run configuration
func ValidateRunConfig(cfg *RunConfig) error {
	if strings.TrimSpace(cfg.Scenario) == "" {
		return fmt.Errorf("scenario is required")
	}
	if cfg.TimeoutSec < 0 {
		return fmt.Errorf("timeout_sec must be >= 0")
	}
	if _, err := cfg.Role(); err != nil {
		return err
	}
	if cfg.Network.ChannelMask == 0 {
		return fmt.Errorf("network.channel_mask must select at least one channel")
	}
	if cfg.Network.ChannelMask&^0x07FFF800 != 0 {
		return fmt.Errorf("network.channel_mask 0x%08x selects channels outside 11-26", cfg.Network.ChannelMask)
	}
	if cfg.Network.PanID == 0xFFFF {
		return fmt.Errorf("network.pan_id 0xffff is reserved")
	}
	if _, err := cfg.NwkKeyBytes(); err != nil {
		return err
	}
	if _, err := cfg.InstallCodeBytes(); err != nil {
		return err
	}
	if _, err := cfg.InstallCodeAddr(); err != nil {
		return err
	}
	if cfg.Network.EchoLimit < 0 {
		return fmt.Errorf("network.echo_limit must be >= 0")
	}
	if _, err := cfg.ByteOrder(); err != nil {
		return err
	}
	if _, err := cfg.RequiredEntries(); err != nil {
		return err
	}
	if _, err := cfg.IgnoredCalls(); err != nil {
		return err
	}
	if cfg.Loopback.IdleWaitMs < 0 {
		return fmt.Errorf("loopback.idle_wait_ms must be >= 0")
	}
	for i, f := range cfg.Loopback.Boot {
		if err := validateLoopbackFrame(f, true); err != nil {
			return fmt.Errorf("loopback.boot[%d]: %w", i, err)
		}
	}
	for i, r := range cfg.Loopback.Replies {
		if err := validateLoopbackReply(r); err != nil {
			return fmt.Errorf("loopback.replies[%d]: %w", i, err)
		}
	}
	if cfg.Output.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.Output.LogLevel); !ok {
			return fmt.Errorf("output.log_level %q is not one of silent, error, info, verbose, debug", cfg.Output.LogLevel)
		}
	}
	return nil
}

func validateLoopbackFrame(f LoopbackFrame, allowResponse bool) error {
	if _, ok := spec.LookupCall(f.Call); !ok {
		return fmt.Errorf("unknown call %q", f.Call)
	}
	switch strings.ToLower(f.Kind) {
	case "", "indication":
	case "response":
		if !allowResponse {
			return fmt.Errorf("kind response is only allowed in boot frames")
		}
	default:
		return fmt.Errorf("kind %q must be response or indication", f.Kind)
	}
	if f.Status != "" {
		if _, ok := spec.LookupStatus(f.Status); !ok {
			return fmt.Errorf("unknown status %q", f.Status)
		}
	}
	if _, err := DecodeHex(f.Body); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	return nil
}

func validateLoopbackReply(r LoopbackReply) error {
	if _, ok := spec.LookupCall(r.Call); !ok {
		return fmt.Errorf("unknown call %q", r.Call)
	}
	if r.Status != "" {
		if _, ok := spec.LookupStatus(r.Status); !ok {
			return fmt.Errorf("unknown status %q", r.Status)
		}
	}
	if _, err := DecodeHex(r.Body); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	for i, ind := range r.Indications {
		if err := validateLoopbackFrame(ind, false); err != nil {
			return fmt.Errorf("indications[%d]: %w", i, err)
		}
	}
	return nil
}

// DecodeHex decodes hex with optional spaces, colons and a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Role returns the configured device role.
func (c *RunConfig) Role() (protocol.Role, error) {
	r, ok := protocol.ParseRole(c.Network.Role)
	if !ok {
		return 0, fmt.Errorf("network.role %q must be zc, zr or zed", c.Network.Role)
	}
	return r, nil
}

// NwkKeyBytes returns the network key.
func (c *RunConfig) NwkKeyBytes() (protocol.Key, error) {
	var k protocol.Key
	raw, err := DecodeHex(c.Network.NwkKey)
	if err != nil {
		return k, fmt.Errorf("network.nwk_key: %w", err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("network.nwk_key must be %d bytes, got %d", len(k), len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

// InstallCodeBytes returns the install code, CRC included.
func (c *RunConfig) InstallCodeBytes() ([]byte, error) {
	raw, err := DecodeHex(c.Network.InstallCode)
	if err != nil {
		return nil, fmt.Errorf("network.install_code: %w", err)
	}
	switch len(raw) {
	case 8, 10, 14, 18:
		return raw, nil
	}
	return nil, fmt.Errorf("network.install_code must be 8, 10, 14 or 18 bytes, got %d", len(raw))
}

// InstallCodeAddr returns the IEEE address the install code belongs to.
func (c *RunConfig) InstallCodeAddr() (protocol.IEEEAddr, error) {
	a, err := protocol.ParseIEEEAddr(c.Network.InstallCodeIEEE)
	if err != nil {
		return a, fmt.Errorf("network.install_code_ieee: %w", err)
	}
	return a, nil
}

// ByteOrder returns the configured frame byte order.
func (c *RunConfig) ByteOrder() (binary.ByteOrder, error) {
	order, ok := protocol.ParseByteOrder(strings.ToLower(c.Protocol.ByteOrder))
	if !ok {
		return nil, fmt.Errorf("protocol.byte_order %q must be little or big", c.Protocol.ByteOrder)
	}
	return order, nil
}

// RequiredEntries parses verify.required. A nil result means the scenario
// keeps its own list.
func (c *RunConfig) RequiredEntries() ([]verify.Entry, error) {
	if len(c.Verify.Required) == 0 {
		return nil, nil
	}
	out := make([]verify.Entry, 0, len(c.Verify.Required))
	for i, s := range c.Verify.Required {
		e, err := verify.ParseEntry(s)
		if err != nil {
			return nil, fmt.Errorf("verify.required[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// IgnoredCalls parses verify.ignore.
func (c *RunConfig) IgnoredCalls() ([]spec.CallCode, error) {
	out := make([]spec.CallCode, 0, len(c.Verify.Ignore))
	for i, name := range c.Verify.Ignore {
		call, ok := spec.LookupCall(name)
		if !ok {
			return nil, fmt.Errorf("verify.ignore[%d]: unknown call %q", i, name)
		}
		out = append(out, call)
	}
	return out, nil
}

// EraseNVRAM reports whether the bring-up erases NVRAM first.
func (c *RunConfig) EraseNVRAM() bool { return boolPtrDefault(c.Network.EraseNVRAM, true) }

// AutoPoll reports whether the bring-up starts automatic polling.
func (c *RunConfig) AutoPoll() bool { return boolPtrDefault(c.Network.AutoPoll, true) }

func boolPtrDefault(value *bool, def bool) bool {
	if value == nil {
		return def
	}
	return *value
}
