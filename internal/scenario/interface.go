package scenario

// Scenario interface and common types

import (
	"fmt"
	"sort"

	"github.com/tonylturner/zbncp/internal/config"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/session"
	"github.com/tonylturner/zbncp/internal/transport"
	"github.com/tonylturner/zbncp/internal/verify"
)

// Params contains the network settings a scenario runs with
type Params struct {
	Role        protocol.Role
	ChannelPage uint8
	ChannelMask uint32
	PanID       uint16
	NwkKey      protocol.Key
	InstallCode []byte
	ICIEEE      protocol.IEEEAddr
	EraseNVRAM  bool
	AutoPoll    bool
	EchoLimit   int
	SkipKeyDump bool
}

// ParamsFromConfig extracts scenario parameters from a validated run config.
func ParamsFromConfig(cfg *config.RunConfig) (Params, error) {
	role, err := cfg.Role()
	if err != nil {
		return Params{}, err
	}
	key, err := cfg.NwkKeyBytes()
	if err != nil {
		return Params{}, err
	}
	code, err := cfg.InstallCodeBytes()
	if err != nil {
		return Params{}, err
	}
	icAddr, err := cfg.InstallCodeAddr()
	if err != nil {
		return Params{}, err
	}
	return Params{
		Role:        role,
		ChannelPage: cfg.Network.ChannelPage,
		ChannelMask: cfg.Network.ChannelMask,
		PanID:       cfg.Network.PanID,
		NwkKey:      key,
		InstallCode: code,
		ICIEEE:      icAddr,
		EraseNVRAM:  cfg.EraseNVRAM(),
		AutoPoll:    cfg.AutoPoll(),
		EchoLimit:   cfg.Network.EchoLimit,
		SkipKeyDump: cfg.Network.SkipKeyDump,
	}, nil
}

// Scenario defines the interface for all scenarios. A scenario registers
// its handlers on a session and drives the NCP through a fixed call
// sequence; Required lists the calls a successful run observes.
type Scenario interface {
	Name() string
	Required() []verify.Entry
	// Script plays the NCP side of the scenario on the loopback transport.
	Script() *transport.Script
	Attach(s *session.Session)
	Done() bool
}

type factory struct {
	role *protocol.Role
	new  func(p Params) Scenario
}

func roleOf(r protocol.Role) *protocol.Role { return &r }

var registry = map[string]factory{
	"bringup": {new: func(p Params) Scenario { return newBringup(p) }},
	"zc":      {role: roleOf(protocol.RoleZC), new: func(p Params) Scenario { return newCoordinator(p, false) }},
	"zc_echo": {role: roleOf(protocol.RoleZC), new: func(p Params) Scenario { return newCoordinator(p, true) }},
	"zr":      {role: roleOf(protocol.RoleZR), new: func(p Params) Scenario { return newRouter(p) }},
	"zed":     {role: roleOf(protocol.RoleZED), new: func(p Params) Scenario { return newEndDevice(p) }},
}

// GetScenario returns a scenario implementation by name
func GetScenario(name string, p Params) (Scenario, error) {
	f, ok := registry[name]
	if !ok {
		return nil, &UnknownScenarioError{Name: name}
	}
	if f.role != nil && p.Role != *f.role {
		return nil, fmt.Errorf("scenario %s runs as %s, config has role %s", name, *f.role, p.Role)
	}
	return f.new(p), nil
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownScenarioError represents an error for unknown scenario names
type UnknownScenarioError struct {
	Name string
}

func (e *UnknownScenarioError) Error() string {
	return "unknown scenario: " + e.Name
}
