package config

import "sort"

// ScenarioMeta holds per-scenario network defaults.
type ScenarioMeta struct {
	Role        string
	ChannelMask uint32
	PanID       uint16
	EchoLimit   int
	TimeoutSec  int
	Description string
}

// Channel 19, as used by the echo tests.
const defaultChannelMask uint32 = 0x80000

// Default PAN ids.
const (
	DefaultPanID     uint16 = 0x5043
	DefaultEchoPanID uint16 = 0x6D42
)

// ScenarioMetaMap returns defaults for the known scenarios.
func ScenarioMetaMap() map[string]ScenarioMeta {
	return map[string]ScenarioMeta{
		"bringup": {Role: "zc", ChannelMask: defaultChannelMask, PanID: DefaultPanID, TimeoutSec: 10,
			Description: "Reset with NVRAM erase and configure channel, PAN and role"},
		"zc": {Role: "zc", ChannelMask: defaultChannelMask, PanID: DefaultPanID, TimeoutSec: 20,
			Description: "Form a network as coordinator and register an install code"},
		"zc_echo": {Role: "zc", ChannelMask: defaultChannelMask, PanID: DefaultEchoPanID, EchoLimit: 10, TimeoutSec: 30,
			Description: "Coordinator that identifies a joining device and echoes its APS data"},
		"zr": {Role: "zr", ChannelMask: defaultChannelMask, PanID: DefaultPanID, EchoLimit: 10, TimeoutSec: 30,
			Description: "Discover and join a network as router, echo APS data"},
		"zed": {Role: "zed", ChannelMask: defaultChannelMask, PanID: DefaultPanID, EchoLimit: 15, TimeoutSec: 30,
			Description: "Join as sleepy end device and walk the poll control states while echoing"},
	}
}

// ScenarioNames returns the known scenario names in sorted order.
func ScenarioNames() []string {
	m := ScenarioMetaMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnrichForScenario fills network settings the config left empty with the
// scenario's defaults. This is additive only.
func EnrichForScenario(cfg *RunConfig, scenario string) {
	meta, ok := ScenarioMetaMap()[scenario]
	if !ok {
		return
	}
	if cfg.Network.Role == "" {
		cfg.Network.Role = meta.Role
	}
	if cfg.Network.ChannelMask == 0 {
		cfg.Network.ChannelMask = meta.ChannelMask
	}
	if cfg.Network.PanID == 0 {
		cfg.Network.PanID = meta.PanID
	}
	if cfg.Network.EchoLimit == 0 {
		cfg.Network.EchoLimit = meta.EchoLimit
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = meta.TimeoutSec
	}
}
