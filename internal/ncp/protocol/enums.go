package protocol

import "fmt"

// Role is the Zigbee device role.
type Role uint8

const (
	RoleZC  Role = 0
	RoleZR  Role = 1
	RoleZED Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleZC:
		return "ZC"
	case RoleZR:
		return "ZR"
	case RoleZED:
		return "ZED"
	}
	return fmt.Sprintf("ROLE(%d)", uint8(r))
}

// ParseRole accepts "zc", "zr", "zed" and their upper-case forms.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "zc", "ZC", "coordinator":
		return RoleZC, true
	case "zr", "ZR", "router":
		return RoleZR, true
	case "zed", "ZED", "end-device":
		return RoleZED, true
	}
	return 0, false
}

// DeviceType is the neighbor table device type.
type DeviceType uint8

const (
	DeviceZC      DeviceType = 0
	DeviceZR      DeviceType = 1
	DeviceZED     DeviceType = 2
	DeviceUnknown DeviceType = 3
)

func (d DeviceType) String() string {
	switch d {
	case DeviceZC:
		return "ZC"
	case DeviceZR:
		return "ZR"
	case DeviceZED:
		return "ZED"
	}
	return "UNKNOWN"
}

// Relationship is the neighbor relationship.
type Relationship uint8

const (
	RelParent Relationship = iota
	RelChild
	RelSibling
	RelNone
	RelPrevChild
	RelUnauthChild
)

var relationshipNames = [...]string{"PARENT", "CHILD", "SIBLING", "NONE", "PREV_CHILD", "UNAUTH_CHILD"}

func (r Relationship) String() string {
	if int(r) < len(relationshipNames) {
		return relationshipNames[r]
	}
	return fmt.Sprintf("REL(%d)", uint8(r))
}

// ResetOption is the argument of NCP_RESET.
type ResetOption uint8

const (
	ResetNoOptions    ResetOption = 0
	ResetNVRAMErase   ResetOption = 1
	ResetFactoryReset ResetOption = 2
)

// ResetState is reported by the NCP after reset.
type ResetState uint8

const (
	ResetStateTurnedOn ResetState = iota
	ResetStateNVRAMErase
	ResetStateNVRAMHasErased
	ResetStateFactoryReset
	ResetStateFactoryResetDone
	ResetStateWithoutOptions
	ResetStateWithoutOptionsDone
)

// Power descriptor values for AFPowerDesc.
const (
	PowerModeSyncOnWhenIdle       uint8 = 0
	PowerModeComeOnPeriodically   uint8 = 1
	PowerModeComeOnWhenStimulated uint8 = 2

	PowerSourceConstant            uint8 = 1
	PowerSourceRechargeableBattery uint8 = 1 << 1
	PowerSourceDisposableBattery   uint8 = 1 << 2

	PowerLevelCritical uint8 = 0
	PowerLevel33       uint8 = 4
	PowerLevel66       uint8 = 8
	PowerLevel100      uint8 = 12
)

// AddrMode selects which part of an Address is valid.
type AddrMode uint8

const (
	AddrModeDstAddrEndpNotPresent AddrMode = 0
	AddrMode16GroupEndpNotPresent AddrMode = 1
	AddrMode16EndpPresent         AddrMode = 2
	AddrMode64EndpPresent         AddrMode = 3
)

// TxOptions is the APSDE transmit options bitmask.
type TxOptions uint8

const (
	TxSecurity    TxOptions = 0x01
	TxAck         TxOptions = 0x04
	TxFrag        TxOptions = 0x08
	TxIncExtNonce TxOptions = 0x10
)

// MACCapability is the MAC capability flags byte.
type MACCapability uint8

const (
	CapDeviceType      MACCapability = 1 << 1
	CapPowerSource     MACCapability = 1 << 2
	CapRxOnWhenIdle    MACCapability = 1 << 3
	CapAllocateAddress MACCapability = 1 << 7

	CapRouter = CapDeviceType | CapPowerSource | CapRxOnWhenIdle
)

// AddrRequestType selects single or extended ZDO address responses.
type AddrRequestType uint8

const (
	AddrReqSingle   AddrRequestType = 0
	AddrReqExtended AddrRequestType = 1
)

// OnOff values used by boolean setters.
const (
	Off uint8 = 0
	On  uint8 = 1
)

func formatShort(a uint16) string { return fmt.Sprintf("0x%04x", a) }
