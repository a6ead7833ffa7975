package spec

import (
	"fmt"
	"sort"
	"strings"
)

// StatusCategory is the band of a response status.
type StatusCategory uint8

const (
	StatusGeneric StatusCategory = iota
	StatusSystem
	StatusMAC
	StatusNWK
	StatusAPS
	StatusZDO
	StatusCBKE
)

var statusCategoryNames = [...]string{"GENERIC", "SYSTEM", "MAC", "NWK", "APS", "ZDO", "CBKE"}

func (c StatusCategory) String() string {
	if int(c) < len(statusCategoryNames) {
		return statusCategoryNames[c]
	}
	return fmt.Sprintf("#E-UNDEFINED(%d)", uint8(c))
}

// StatusID is a composed response status: category*256 + code.
type StatusID uint16

// StatusIDOf composes a status id. It is the inverse of Decompose.
func StatusIDOf(category StatusCategory, code uint8) StatusID {
	return StatusID(category)*CategoryInterval + StatusID(code)
}

// Decompose splits a status id into its category and code.
func (s StatusID) Decompose() (StatusCategory, uint8) {
	return StatusCategory(uint16(s) / CategoryInterval), uint8(uint16(s) % CategoryInterval)
}

// OK reports whether the status is the generic success value.
func (s StatusID) OK() bool { return s == StatusOK }

// Name returns the bare status name without its category, or "" when the
// code is not named.
func (s StatusID) Name() string {
	return statusNames[s]
}

// String renders "OK" for success and "CATEGORY:NAME" for everything else.
// Unnamed codes render as "CATEGORY:#E-UNDEFINED(code)".
func (s StatusID) String() string {
	if s == StatusOK {
		return "OK"
	}
	cat, code := s.Decompose()
	if name, ok := statusNames[s]; ok {
		return cat.String() + ":" + name
	}
	return fmt.Sprintf("%s:#E-UNDEFINED(%d)", cat, code)
}

const (
	genericBase StatusID = StatusID(StatusGeneric) * CategoryInterval
	macBase     StatusID = StatusID(StatusMAC) * CategoryInterval
	apsBaseSt   StatusID = StatusID(StatusAPS) * CategoryInterval
	zdoBaseSt   StatusID = StatusID(StatusZDO) * CategoryInterval
)

// Generic statuses.
const (
	StatusOK                       StatusID = genericBase + 0
	StatusError                    StatusID = genericBase + 1
	StatusBlocked                  StatusID = genericBase + 2
	StatusExit                     StatusID = genericBase + 3
	StatusBusy                     StatusID = genericBase + 4
	StatusEOF                      StatusID = genericBase + 5
	StatusOutOfRange               StatusID = genericBase + 6
	StatusEmpty                    StatusID = genericBase + 7
	StatusCancelled                StatusID = genericBase + 8
	StatusInvalidParameter1        StatusID = genericBase + 10
	StatusInvalidParameter11OrMore StatusID = genericBase + 20
	StatusPending                  StatusID = genericBase + 21
	StatusNoMemory                 StatusID = genericBase + 22
	StatusInvalidParameter         StatusID = genericBase + 23
	StatusOperationFailed          StatusID = genericBase + 24
	StatusBufferTooSmall           StatusID = genericBase + 25
	StatusEndOfList                StatusID = genericBase + 26
	StatusAlreadyExists            StatusID = genericBase + 27
	StatusNotFound                 StatusID = genericBase + 28
	StatusOverflow                 StatusID = genericBase + 29
	StatusTimeout                  StatusID = genericBase + 30
	StatusNotImplemented           StatusID = genericBase + 31
	StatusNoResources              StatusID = genericBase + 32
	StatusUninitialized            StatusID = genericBase + 33
	StatusNoServer                 StatusID = genericBase + 34
	StatusInvalidState             StatusID = genericBase + 35
	StatusConnectionFailed         StatusID = genericBase + 37
	StatusConnectionLost           StatusID = genericBase + 38
	StatusUnauthorized             StatusID = genericBase + 40
	StatusConflict                 StatusID = genericBase + 41
	StatusInvalidFormat            StatusID = genericBase + 42
	StatusNoMatch                  StatusID = genericBase + 43
	StatusProtocolError            StatusID = genericBase + 44
	StatusVersion                  StatusID = genericBase + 45
	StatusMalformedAddress         StatusID = genericBase + 46
	StatusCouldNotReadFile         StatusID = genericBase + 47
	StatusFileNotFound             StatusID = genericBase + 48
	StatusDirectoryNotFound        StatusID = genericBase + 49
	StatusConversionError          StatusID = genericBase + 50
	StatusIncompatibleTypes        StatusID = genericBase + 51
	StatusFileCorrupted            StatusID = genericBase + 56
	StatusPageNotFound             StatusID = genericBase + 57
	StatusIllegalRequest           StatusID = genericBase + 62
	StatusInvalidGroup             StatusID = genericBase + 64
	StatusTableFull                StatusID = genericBase + 65
	StatusIgnore                   StatusID = genericBase + 69
	StatusAgain                    StatusID = genericBase + 70
	StatusDeviceNotFound           StatusID = genericBase + 71
	StatusObsolete                 StatusID = genericBase + 72
)

// ZDO statuses.
const (
	StatusZDPInvRequestType    StatusID = zdoBaseSt + 0x80
	StatusZDPDeviceNotFound    StatusID = zdoBaseSt + 0x81
	StatusZDPInvalidEP         StatusID = zdoBaseSt + 0x82
	StatusZDPNotActive         StatusID = zdoBaseSt + 0x83
	StatusZDPNotSupported      StatusID = zdoBaseSt + 0x84
	StatusZDPTimeout           StatusID = zdoBaseSt + 0x85
	StatusZDPNoMatch           StatusID = zdoBaseSt + 0x86
	StatusZDPNoEntry           StatusID = zdoBaseSt + 0x88
	StatusZDPNoDescriptor      StatusID = zdoBaseSt + 0x89
	StatusZDPInsufficientSpace StatusID = zdoBaseSt + 0x8a
	StatusZDPNotPermitted      StatusID = zdoBaseSt + 0x8b
	StatusZDPTableFull         StatusID = zdoBaseSt + 0x8c
	StatusZDPNotAuthorized     StatusID = zdoBaseSt + 0x8d
	StatusZDPInvalidIndex      StatusID = zdoBaseSt + 0x8f
)

// APS statuses.
const (
	StatusAPSIllegalRequest       StatusID = apsBaseSt + 0xa3
	StatusAPSInvalidBinding       StatusID = apsBaseSt + 0xa4
	StatusAPSInvalidGroup         StatusID = apsBaseSt + 0xa5
	StatusAPSInvalidParameter     StatusID = apsBaseSt + 0xa6
	StatusAPSNoAck                StatusID = apsBaseSt + 0xa7
	StatusAPSNoBoundDevice        StatusID = apsBaseSt + 0xa8
	StatusAPSNoShortAddress       StatusID = apsBaseSt + 0xa9
	StatusAPSNotSupported         StatusID = apsBaseSt + 0xaa
	StatusAPSSecuredLinkKey       StatusID = apsBaseSt + 0xab
	StatusAPSSecuredNwkKey        StatusID = apsBaseSt + 0xac
	StatusAPSSecurityFail         StatusID = apsBaseSt + 0xad
	StatusAPSTableFull            StatusID = apsBaseSt + 0xae
	StatusAPSUnsecured            StatusID = apsBaseSt + 0xaf
	StatusAPSUnsupportedAttribute StatusID = apsBaseSt + 0xb0
)

// MAC statuses.
const (
	StatusMACPanAtCapacity         StatusID = macBase + 0x01
	StatusMACPanAccessDenied       StatusID = macBase + 0x02
	StatusMACPending               StatusID = macBase + 0xC0
	StatusMACFailure               StatusID = macBase + 0xC1
	StatusMACCounterError          StatusID = macBase + 0xDB
	StatusMACImproperKeyType       StatusID = macBase + 0xDC
	StatusMACImproperSecurityLevel StatusID = macBase + 0xDD
	StatusMACUnsupportedLegacy     StatusID = macBase + 0xDE
	StatusMACUnsupportedSecurity   StatusID = macBase + 0xDF
	StatusMACBeaconLoss            StatusID = macBase + 0xE0
	StatusMACChannelAccessFailure  StatusID = macBase + 0xE1
	StatusMACDisableTrxFailure     StatusID = macBase + 0xE3
	StatusMACSecurityError         StatusID = macBase + 0xE4
	StatusMACFrameTooLong          StatusID = macBase + 0xE5
	StatusMACInvalidGTS            StatusID = macBase + 0xE6
	StatusMACInvalidHandle         StatusID = macBase + 0xE7
	StatusMACInvalidParameter      StatusID = macBase + 0xE8
	StatusMACNoAck                 StatusID = macBase + 0xE9
	StatusMACNoBeacon              StatusID = macBase + 0xEA
	StatusMACNoData                StatusID = macBase + 0xEB
	StatusMACNoShortAddr           StatusID = macBase + 0xEC
	StatusMACOutOfCap              StatusID = macBase + 0xED
	StatusMACPanIDConflict         StatusID = macBase + 0xEE
	StatusMACRealignment           StatusID = macBase + 0xEF
	StatusMACTransactionExpired    StatusID = macBase + 0xF0
	StatusMACTransactionOverflow   StatusID = macBase + 0xF1
	StatusMACTxActive              StatusID = macBase + 0xF2
	StatusMACUnavailableKey        StatusID = macBase + 0xF3
	StatusMACUnsupportedAttribute  StatusID = macBase + 0xF4
	StatusMACInvalidAddr           StatusID = macBase + 0xF5
	StatusMACPastTime              StatusID = macBase + 0xF7
	StatusMACInvalidIndex          StatusID = macBase + 0xF9
	StatusMACLimitReached          StatusID = macBase + 0xFA
	StatusMACReadOnly              StatusID = macBase + 0xFB
	StatusMACScanInProgress        StatusID = macBase + 0xFC
	StatusMACUnknownFrameType      StatusID = macBase + 0xFD
)

var statusNames = map[StatusID]string{
	StatusOK:                       "OK",
	StatusError:                    "ERROR",
	StatusBlocked:                  "BLOCKED",
	StatusExit:                     "EXIT",
	StatusBusy:                     "BUSY",
	StatusEOF:                      "EOF",
	StatusOutOfRange:               "OUT_OF_RANGE",
	StatusEmpty:                    "EMPTY",
	StatusCancelled:                "CANCELLED",
	StatusInvalidParameter11OrMore: "INVALID_PARAMETER_11_OR_MORE",
	StatusPending:                  "PENDING",
	StatusNoMemory:                 "NO_MEMORY",
	StatusInvalidParameter:         "INVALID_PARAMETER",
	StatusOperationFailed:          "OPERATION_FAILED",
	StatusBufferTooSmall:           "BUFFER_TOO_SMALL",
	StatusEndOfList:                "END_OF_LIST",
	StatusAlreadyExists:            "ALREADY_EXISTS",
	StatusNotFound:                 "NOT_FOUND",
	StatusOverflow:                 "OVERFLOW",
	StatusTimeout:                  "TIMEOUT",
	StatusNotImplemented:           "NOT_IMPLEMENTED",
	StatusNoResources:              "NO_RESOURCES",
	StatusUninitialized:            "UNINITIALIZED",
	StatusNoServer:                 "NO_SERVER",
	StatusInvalidState:             "INVALID_STATE",
	StatusConnectionFailed:         "CONNECTION_FAILED",
	StatusConnectionLost:           "CONNECTION_LOST",
	StatusUnauthorized:             "UNAUTHORIZED",
	StatusConflict:                 "CONFLICT",
	StatusInvalidFormat:            "INVALID_FORMAT",
	StatusNoMatch:                  "NO_MATCH",
	StatusProtocolError:            "PROTOCOL_ERROR",
	StatusVersion:                  "VERSION",
	StatusMalformedAddress:         "MALFORMED_ADDRESS",
	StatusCouldNotReadFile:         "COULD_NOT_READ_FILE",
	StatusFileNotFound:             "FILE_NOT_FOUND",
	StatusDirectoryNotFound:        "DIRECTORY_NOT_FOUND",
	StatusConversionError:          "CONVERSION_ERROR",
	StatusIncompatibleTypes:        "INCOMPATIBLE_TYPES",
	StatusFileCorrupted:            "FILE_CORRUPTED",
	StatusPageNotFound:             "PAGE_NOT_FOUND",
	StatusIllegalRequest:           "ILLEGAL_REQUEST",
	StatusInvalidGroup:             "INVALID_GROUP",
	StatusTableFull:                "TABLE_FULL",
	StatusIgnore:                   "IGNORE",
	StatusAgain:                    "AGAIN",
	StatusDeviceNotFound:           "DEVICE_NOT_FOUND",
	StatusObsolete:                 "OBSOLETE",

	StatusZDPInvRequestType:    "INV_REQUESTTYPE",
	StatusZDPDeviceNotFound:    "DEVICE_NOT_FOUND",
	StatusZDPInvalidEP:         "INVALID_EP",
	StatusZDPNotActive:         "NOT_ACTIVE",
	StatusZDPNotSupported:      "NOT_SUPPORTED",
	StatusZDPTimeout:           "TIMEOUT",
	StatusZDPNoMatch:           "NO_MATCH",
	StatusZDPNoEntry:           "NO_ENTRY",
	StatusZDPNoDescriptor:      "NO_DESCRIPTOR",
	StatusZDPInsufficientSpace: "INSUFFICIENT_SPACE",
	StatusZDPNotPermitted:      "NOT_PERMITTED",
	StatusZDPTableFull:         "TABLE_FULL",
	StatusZDPNotAuthorized:     "NOT_AUTHORIZED",
	StatusZDPInvalidIndex:      "INVALID_INDEX",

	StatusAPSIllegalRequest:       "ILLEGAL_REQUEST",
	StatusAPSInvalidBinding:       "INVALID_BINDING",
	StatusAPSInvalidGroup:         "INVALID_GROUP",
	StatusAPSInvalidParameter:     "INVALID_PARAMETER",
	StatusAPSNoAck:                "NO_ACK",
	StatusAPSNoBoundDevice:        "NO_BOUND_DEVICE",
	StatusAPSNoShortAddress:       "NO_SHORT_ADDRESS",
	StatusAPSNotSupported:         "NOT_SUPPORTED",
	StatusAPSSecuredLinkKey:       "SECURED_LINK_KEY",
	StatusAPSSecuredNwkKey:        "SECURED_NWK_KEY",
	StatusAPSSecurityFail:         "SECURITY_FAIL",
	StatusAPSTableFull:            "TABLE_FULL",
	StatusAPSUnsecured:            "UNSECURED",
	StatusAPSUnsupportedAttribute: "UNSUPPORTED_ATTRIBUTE",

	StatusMACPanAtCapacity:         "PAN_AT_CAPACITY",
	StatusMACPanAccessDenied:       "PAN_ACCESS_DENIED",
	StatusMACPending:               "PENDING",
	StatusMACFailure:               "FAILURE",
	StatusMACCounterError:          "COUNTER_ERROR",
	StatusMACImproperKeyType:       "IMPROPER_KEY_TYPE",
	StatusMACImproperSecurityLevel: "IMPROPER_SECURITY_LEVEL",
	StatusMACUnsupportedLegacy:     "UNSUPPORTED_LEGACY",
	StatusMACUnsupportedSecurity:   "UNSUPPORTED_SECURITY",
	StatusMACBeaconLoss:            "BEACON_LOSS",
	StatusMACChannelAccessFailure:  "CHANNEL_ACCESS_FAILURE",
	StatusMACDisableTrxFailure:     "DISABLE_TRX_FAILURE",
	StatusMACSecurityError:         "SECURITY_ERROR",
	StatusMACFrameTooLong:          "FRAME_TOO_LONG",
	StatusMACInvalidGTS:            "INVALID_GTS",
	StatusMACInvalidHandle:         "INVALID_HANDLE",
	StatusMACInvalidParameter:      "INVALID_PARAMETER",
	StatusMACNoAck:                 "NO_ACK",
	StatusMACNoBeacon:              "NO_BEACON",
	StatusMACNoData:                "NO_DATA",
	StatusMACNoShortAddr:           "NO_SHORT_ADDR",
	StatusMACOutOfCap:              "OUT_OF_CAP",
	StatusMACPanIDConflict:         "PAN_ID_CONFLICT",
	StatusMACRealignment:           "REALIGNMENT",
	StatusMACTransactionExpired:    "TRANSACTION_EXPIRED",
	StatusMACTransactionOverflow:   "TRANSACTION_OVERFLOW",
	StatusMACTxActive:              "TX_ACTIVE",
	StatusMACUnavailableKey:        "UNAVAILABLE_KEY",
	StatusMACUnsupportedAttribute:  "UNSUPPORTED_ATTRIBUTE",
	StatusMACInvalidAddr:           "INVALID_ADDR",
	StatusMACPastTime:              "PAST_TIME",
	StatusMACInvalidIndex:          "INVALID_INDEX",
	StatusMACLimitReached:          "LIMIT_REACHED",
	StatusMACReadOnly:              "READ_ONLY",
	StatusMACScanInProgress:        "SCAN_IN_PROGRESS",
	StatusMACUnknownFrameType:      "UNKNOWN_FRAME_TYPE",
}

func init() {
	for i := 0; i < 10; i++ {
		statusNames[StatusInvalidParameter1+StatusID(i)] = fmt.Sprintf("INVALID_PARAMETER_%d", i+1)
	}
}

// LookupStatus resolves "CATEGORY:NAME" (or a bare generic name) to a status id.
func LookupStatus(name string) (StatusID, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "OK" {
		return StatusOK, true
	}
	cat := StatusGeneric
	if i := strings.IndexByte(name, ':'); i >= 0 {
		c, ok := ParseStatusCategory(name[:i])
		if !ok {
			return 0, false
		}
		cat, name = c, name[i+1:]
	}
	for id, n := range statusNames {
		if n != name {
			continue
		}
		if c, _ := id.Decompose(); c == cat {
			return id, true
		}
	}
	return 0, false
}

// ParseStatusCategory resolves a category name such as "MAC".
func ParseStatusCategory(name string) (StatusCategory, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range statusCategoryNames {
		if n == name {
			return StatusCategory(i), true
		}
	}
	return 0, false
}

// Statuses returns every named status id in ascending order.
func Statuses() []StatusID {
	out := make([]StatusID, 0, len(statusNames))
	for id := range statusNames {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
