package spec

import "fmt"

// CallCode identifies an NCP high-level call. The numeric values are a wire
// contract shared with the NCP firmware.
type CallCode uint16

// CallCategory is the band a call code belongs to.
type CallCategory uint8

const (
	CategoryConfiguration CallCategory = iota
	CategoryAF
	CategoryZDO
	CategoryAPS
	CategoryNwkMgmt
	CategorySecur
	CategoryManufTest
	CategoryOTA
)

// CategoryInterval is the width of one call or status category band.
const CategoryInterval = 256

const (
	configurationBase CallCode = CallCode(CategoryConfiguration) * CategoryInterval
	afBase            CallCode = CallCode(CategoryAF) * CategoryInterval
	zdoBase           CallCode = CallCode(CategoryZDO) * CategoryInterval
	apsBase           CallCode = CallCode(CategoryAPS) * CategoryInterval
	nwkBase           CallCode = CallCode(CategoryNwkMgmt) * CategoryInterval
	securBase         CallCode = CallCode(CategorySecur) * CategoryInterval
	manufBase         CallCode = CallCode(CategoryManufTest) * CategoryInterval
	otaBase           CallCode = CallCode(CategoryOTA) * CategoryInterval
)

// CallCodeOf composes a call code from its category and offset.
func CallCodeOf(category CallCategory, offset uint8) CallCode {
	return CallCode(category)*CategoryInterval + CallCode(offset)
}

// Category returns the band of the call code.
func (c CallCode) Category() CallCategory {
	return CallCategory(uint16(c) / CategoryInterval)
}

// Offset returns the position of the call code inside its band.
func (c CallCode) Offset() uint8 {
	return uint8(uint16(c) % CategoryInterval)
}

// Configuration calls.
const (
	GetModuleVersion CallCode = configurationBase + iota + 1
	NCPReset
	NCPFactoryReset
	GetZigbeeRole
	SetZigbeeRole
	GetZigbeeChannelMask
	SetZigbeeChannelMask
	GetZigbeeChannel
	GetPanID
	SetPanID
	GetLocalIEEEAddr
	SetLocalIEEEAddr
	SetTrace
	GetKeepaliveTimeout
	SetKeepaliveTimeout
	GetTxPower
	SetTxPower
	GetRxOnWhenIdle
	SetRxOnWhenIdle
	GetJoined
	GetAuthenticated
	GetEDTimeout
	SetEDTimeout
	AddVisibleDev
	AddInvisibleShort
	RmInvisibleShort
	SetNwkKey
	GetSerialNumber
	GetVendorData
	GetNwkKeys
	GetAPSKeyByIEEE
	BigPktToNCP
	BigPktFromNCP
)

// AF calls.
const (
	AFSetSimpleDesc CallCode = afBase + iota + 1
	AFDelEP
	AFSetNodeDesc
	AFSetPowerDesc
)

// ZDO calls.
const (
	ZDONwkAddrReq CallCode = zdoBase + iota + 1
	ZDOIEEEAddrReq
	ZDOPowerDescReq
	ZDONodeDescReq
	ZDOSimpleDescReq
	ZDOActiveEPReq
	ZDOMatchDescReq
	ZDOBindReq
	ZDOUnbindReq
	ZDOMgmtLeaveReq
	ZDOPermitJoiningReq
	ZDODevAnnceInd
	ZDORejoin
)

// APS calls.
const (
	APSDEDataReq CallCode = apsBase + iota + 1
	APSMEBind
	APSMEUnbind
	APSMEAddGroup
	APSMERmGroup
	APSDEDataInd
	APSMERmAllGroups
)

// Network management calls.
const (
	NwkFormation CallCode = nwkBase + iota + 1
	NwkDiscovery
	NwkNLMEJoin
	NwkPermitJoining
	NwkGetIEEEByShort
	NwkGetShortByIEEE
	NwkGetNeighborByIEEE
	NwkStartedInd
	NwkJoinedInd
	NwkJoinFailedInd
	NwkLeaveInd
	GetEDKeepaliveTimeout
	SetEDKeepaliveTimeout
	PIMSetFastPollInterval
	PIMSetLongPollInterval
	PIMStartFastPoll
	PIMStartLongPoll
	PIMStartPoll
	PIMSetAdaptivePoll
	PIMStopFastPoll
	PIMStopPoll
	PIMEnableTurboPoll
	PIMDisableTurboPoll
	NwkGetFirstNbtEntry
	NwkGetNextNbtEntry
	NwkPanIDConflictResolve
	NwkPanIDConflictInd
	NwkAddressUpdateInd
	NwkStartWithoutFormation
)

// Security calls.
const (
	SecurSetLocalIC CallCode = securBase + iota + 1
	SecurAddIC
	SecurDelIC
	SecurAddCert
	SecurDelCert
	SecurStartKE
	SecurStartPartnerLK
	SecurChildKEFinishedInd
	SecurPartnerLKFinishedInd
	SecurJoinUsesIC
	SecurGetICByIEEE
	SecurGetCert
	SecurGetLocalIC
)

// Manufacturing test calls.
const (
	ManufModeStart CallCode = manufBase + iota + 1
	ManufModeEnd
	ManufSetChannel
	ManufGetChannel
	ManufSetPower
	ManufGetPower
	ManufStartTone
	ManufStopTone
	ManufStartStreamRandom
	ManufStopStreamRandom
	ManufSendSinglePacket
	ManufStartTestRx
	ManufStopTestRx
	ManufRxPacketInd
	ManufCalibration
)

// OTA calls.
const (
	OTARunBootloader CallCode = otaBase + iota + 1
	OTAStartUpgradeInd
	OTASendPortionFW
)

// CallDef describes one entry of the call table.
type CallDef struct {
	Code     CallCode
	Name     string
	Category CallCategory
}

var categoryNames = map[CallCategory]string{
	CategoryConfiguration: "CONFIGURATION",
	CategoryAF:            "AF",
	CategoryZDO:           "ZDO",
	CategoryAPS:           "APS",
	CategoryNwkMgmt:       "NWKMGMT",
	CategorySecur:         "SECUR",
	CategoryManufTest:     "MANUF_TEST",
	CategoryOTA:           "OTA",
}

func (c CallCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CATEGORY_%d", uint8(c))
}

// ParseCallCategory resolves a category by its upper-case name.
func ParseCallCategory(name string) (CallCategory, bool) {
	for cat, n := range categoryNames {
		if n == name {
			return cat, true
		}
	}
	return 0, false
}

func def(code CallCode, name string) CallDef {
	return CallDef{Code: code, Name: name, Category: code.Category()}
}

// callTable is the closed list of every call the host knows about.
var callTable = []CallDef{
	def(GetModuleVersion, "GET_MODULE_VERSION"),
	def(NCPReset, "NCP_RESET"),
	def(NCPFactoryReset, "NCP_FACTORY_RESET"),
	def(GetZigbeeRole, "GET_ZIGBEE_ROLE"),
	def(SetZigbeeRole, "SET_ZIGBEE_ROLE"),
	def(GetZigbeeChannelMask, "GET_ZIGBEE_CHANNEL_MASK"),
	def(SetZigbeeChannelMask, "SET_ZIGBEE_CHANNEL_MASK"),
	def(GetZigbeeChannel, "GET_ZIGBEE_CHANNEL"),
	def(GetPanID, "GET_PAN_ID"),
	def(SetPanID, "SET_PAN_ID"),
	def(GetLocalIEEEAddr, "GET_LOCAL_IEEE_ADDR"),
	def(SetLocalIEEEAddr, "SET_LOCAL_IEEE_ADDR"),
	def(SetTrace, "SET_TRACE"),
	def(GetKeepaliveTimeout, "GET_KEEPALIVE_TIMEOUT"),
	def(SetKeepaliveTimeout, "SET_KEEPALIVE_TIMEOUT"),
	def(GetTxPower, "GET_TX_POWER"),
	def(SetTxPower, "SET_TX_POWER"),
	def(GetRxOnWhenIdle, "GET_RX_ON_WHEN_IDLE"),
	def(SetRxOnWhenIdle, "SET_RX_ON_WHEN_IDLE"),
	def(GetJoined, "GET_JOINED"),
	def(GetAuthenticated, "GET_AUTHENTICATED"),
	def(GetEDTimeout, "GET_ED_TIMEOUT"),
	def(SetEDTimeout, "SET_ED_TIMEOUT"),
	def(AddVisibleDev, "ADD_VISIBLE_DEV"),
	def(AddInvisibleShort, "ADD_INVISIBLE_SHORT"),
	def(RmInvisibleShort, "RM_INVISIBLE_SHORT"),
	def(SetNwkKey, "SET_NWK_KEY"),
	def(GetSerialNumber, "GET_SERIAL_NUMBER"),
	def(GetVendorData, "GET_VENDOR_DATA"),
	def(GetNwkKeys, "GET_NWK_KEYS"),
	def(GetAPSKeyByIEEE, "GET_APS_KEY_BY_IEEE"),
	def(BigPktToNCP, "BIG_PKT_TO_NCP"),
	def(BigPktFromNCP, "BIG_PKT_FROM_NCP"),

	def(AFSetSimpleDesc, "AF_SET_SIMPLE_DESC"),
	def(AFDelEP, "AF_DEL_EP"),
	def(AFSetNodeDesc, "AF_SET_NODE_DESC"),
	def(AFSetPowerDesc, "AF_SET_POWER_DESC"),

	def(ZDONwkAddrReq, "ZDO_NWK_ADDR_REQ"),
	def(ZDOIEEEAddrReq, "ZDO_IEEE_ADDR_REQ"),
	def(ZDOPowerDescReq, "ZDO_POWER_DESC_REQ"),
	def(ZDONodeDescReq, "ZDO_NODE_DESC_REQ"),
	def(ZDOSimpleDescReq, "ZDO_SIMPLE_DESC_REQ"),
	def(ZDOActiveEPReq, "ZDO_ACTIVE_EP_REQ"),
	def(ZDOMatchDescReq, "ZDO_MATCH_DESC_REQ"),
	def(ZDOBindReq, "ZDO_BIND_REQ"),
	def(ZDOUnbindReq, "ZDO_UNBIND_REQ"),
	def(ZDOMgmtLeaveReq, "ZDO_MGMT_LEAVE_REQ"),
	def(ZDOPermitJoiningReq, "ZDO_PERMIT_JOINING_REQ"),
	def(ZDODevAnnceInd, "ZDO_DEV_ANNCE_IND"),
	def(ZDORejoin, "ZDO_REJOIN"),

	def(APSDEDataReq, "APSDE_DATA_REQ"),
	def(APSMEBind, "APSME_BIND"),
	def(APSMEUnbind, "APSME_UNBIND"),
	def(APSMEAddGroup, "APSME_ADD_GROUP"),
	def(APSMERmGroup, "APSME_RM_GROUP"),
	def(APSDEDataInd, "APSDE_DATA_IND"),
	def(APSMERmAllGroups, "APSME_RM_ALL_GROUPS"),

	def(NwkFormation, "NWK_FORMATION"),
	def(NwkDiscovery, "NWK_DISCOVERY"),
	def(NwkNLMEJoin, "NWK_NLME_JOIN"),
	def(NwkPermitJoining, "NWK_PERMIT_JOINING"),
	def(NwkGetIEEEByShort, "NWK_GET_IEEE_BY_SHORT"),
	def(NwkGetShortByIEEE, "NWK_GET_SHORT_BY_IEEE"),
	def(NwkGetNeighborByIEEE, "NWK_GET_NEIGHBOR_BY_IEEE"),
	def(NwkStartedInd, "NWK_STARTED_IND"),
	def(NwkJoinedInd, "NWK_JOINED_IND"),
	def(NwkJoinFailedInd, "NWK_JOIN_FAILED_IND"),
	def(NwkLeaveInd, "NWK_LEAVE_IND"),
	def(GetEDKeepaliveTimeout, "GET_ED_KEEPALIVE_TIMEOUT"),
	def(SetEDKeepaliveTimeout, "SET_ED_KEEPALIVE_TIMEOUT"),
	def(PIMSetFastPollInterval, "PIM_SET_FAST_POLL_INTERVAL"),
	def(PIMSetLongPollInterval, "PIM_SET_LONG_POLL_INTERVAL"),
	def(PIMStartFastPoll, "PIM_START_FAST_POLL"),
	def(PIMStartLongPoll, "PIM_START_LONG_POLL"),
	def(PIMStartPoll, "PIM_START_POLL"),
	def(PIMSetAdaptivePoll, "PIM_SET_ADAPTIVE_POLL"),
	def(PIMStopFastPoll, "PIM_STOP_FAST_POLL"),
	def(PIMStopPoll, "PIM_STOP_POLL"),
	def(PIMEnableTurboPoll, "PIM_ENABLE_TURBO_POLL"),
	def(PIMDisableTurboPoll, "PIM_DISABLE_TURBO_POLL"),
	def(NwkGetFirstNbtEntry, "NWK_GET_FIRST_NBT_ENTRY"),
	def(NwkGetNextNbtEntry, "NWK_GET_NEXT_NBT_ENTRY"),
	def(NwkPanIDConflictResolve, "NWK_PAN_ID_CONFLICT_RESOLVE"),
	def(NwkPanIDConflictInd, "NWK_PAN_ID_CONFLICT_IND"),
	def(NwkAddressUpdateInd, "NWK_ADDRESS_UPDATE_IND"),
	def(NwkStartWithoutFormation, "NWK_START_WITHOUT_FORMATION"),

	def(SecurSetLocalIC, "SECUR_SET_LOCAL_IC"),
	def(SecurAddIC, "SECUR_ADD_IC"),
	def(SecurDelIC, "SECUR_DEL_IC"),
	def(SecurAddCert, "SECUR_ADD_CERT"),
	def(SecurDelCert, "SECUR_DEL_CERT"),
	def(SecurStartKE, "SECUR_START_KE"),
	def(SecurStartPartnerLK, "SECUR_START_PARTNER_LK"),
	def(SecurChildKEFinishedInd, "SECUR_CHILD_KE_FINISHED_IND"),
	def(SecurPartnerLKFinishedInd, "SECUR_PARTNER_LK_FINISHED_IND"),
	def(SecurJoinUsesIC, "SECUR_JOIN_USES_IC"),
	def(SecurGetICByIEEE, "SECUR_GET_IC_BY_IEEE"),
	def(SecurGetCert, "SECUR_GET_CERT"),
	def(SecurGetLocalIC, "SECUR_GET_LOCAL_IC"),

	def(ManufModeStart, "MANUF_MODE_START"),
	def(ManufModeEnd, "MANUF_MODE_END"),
	def(ManufSetChannel, "MANUF_SET_CHANNEL"),
	def(ManufGetChannel, "MANUF_GET_CHANNEL"),
	def(ManufSetPower, "MANUF_SET_POWER"),
	def(ManufGetPower, "MANUF_GET_POWER"),
	def(ManufStartTone, "MANUF_START_TONE"),
	def(ManufStopTone, "MANUF_STOP_TONE"),
	def(ManufStartStreamRandom, "MANUF_START_STREAM_RANDOM"),
	def(ManufStopStreamRandom, "MANUF_STOP_STREAM_RANDOM"),
	def(ManufSendSinglePacket, "MANUF_SEND_SINGLE_PACKET"),
	def(ManufStartTestRx, "MANUF_START_TEST_RX"),
	def(ManufStopTestRx, "MANUF_STOP_TEST_RX"),
	def(ManufRxPacketInd, "MANUF_RX_PACKET_IND"),
	def(ManufCalibration, "MANUF_CALIBRATION"),

	def(OTARunBootloader, "OTA_RUN_BOOTLOADER"),
	def(OTAStartUpgradeInd, "OTA_START_UPGRADE_IND"),
	def(OTASendPortionFW, "OTA_SEND_PORTION_FW"),
}

// String returns the protocol name of the call or a hex fallback.
func (c CallCode) String() string {
	if d, ok := defaultCalls.Lookup(c); ok {
		return d.Name
	}
	return fmt.Sprintf("#E-UNDEFINED(0x%04x)", uint16(c))
}
