package spec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateCallCode marks a call table with two entries sharing a value.
var ErrDuplicateCallCode = errors.New("duplicate call code")

// DuplicateCallCodeError names the colliding entries.
type DuplicateCallCodeError struct {
	Code   CallCode
	First  string
	Second string
}

func (e *DuplicateCallCodeError) Error() string {
	return fmt.Sprintf("duplicate call code 0x%04x: %s and %s", uint16(e.Code), e.First, e.Second)
}

func (e *DuplicateCallCodeError) Is(target error) bool {
	return target == ErrDuplicateCallCode
}

// CallRegistry holds the authoritative call definitions.
type CallRegistry struct {
	byCode map[CallCode]CallDef
	byName map[string]CallDef
	order  []CallDef
}

// NewCallRegistry builds a registry from defs, rejecting numeric or name collisions.
func NewCallRegistry(defs []CallDef) (*CallRegistry, error) {
	r := &CallRegistry{
		byCode: make(map[CallCode]CallDef, len(defs)),
		byName: make(map[string]CallDef, len(defs)),
		order:  make([]CallDef, 0, len(defs)),
	}
	for _, d := range defs {
		if prev, ok := r.byCode[d.Code]; ok {
			return nil, &DuplicateCallCodeError{Code: d.Code, First: prev.Name, Second: d.Name}
		}
		if prev, ok := r.byName[d.Name]; ok {
			return nil, fmt.Errorf("duplicate call name %s (0x%04x and 0x%04x)", d.Name, uint16(prev.Code), uint16(d.Code))
		}
		r.byCode[d.Code] = d
		r.byName[d.Name] = d
		r.order = append(r.order, d)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i].Code < r.order[j].Code })
	return r, nil
}

// Lookup finds a call definition by numeric value.
func (r *CallRegistry) Lookup(code CallCode) (CallDef, bool) {
	d, ok := r.byCode[code]
	return d, ok
}

// LookupName finds a call definition by protocol name. A leading "NCP_HL_"
// prefix is accepted.
func (r *CallRegistry) LookupName(name string) (CallDef, bool) {
	name = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "NCP_HL_")
	d, ok := r.byName[name]
	return d, ok
}

// Calls returns every definition sorted by code.
func (r *CallRegistry) Calls() []CallDef {
	out := make([]CallDef, len(r.order))
	copy(out, r.order)
	return out
}

// InCategory returns the definitions belonging to one band.
func (r *CallRegistry) InCategory(cat CallCategory) []CallDef {
	var out []CallDef
	for _, d := range r.order {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

func mustCallRegistry(defs []CallDef) *CallRegistry {
	r, err := NewCallRegistry(defs)
	if err != nil {
		panic(fmt.Sprintf("ncp call table: %v", err))
	}
	return r
}

var defaultCalls = mustCallRegistry(callTable)

// DefaultCallRegistry returns the shared call registry built at init.
func DefaultCallRegistry() *CallRegistry {
	return defaultCalls
}

// LookupCall resolves a call by name against the default registry.
func LookupCall(name string) (CallCode, bool) {
	d, ok := defaultCalls.LookupName(name)
	return d.Code, ok
}

// Calls lists the default call table.
func Calls() []CallDef {
	return defaultCalls.Calls()
}
