package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

func TestIEEEAddrString(t *testing.T) {
	a := IEEEAddr{0x11, 0x11, 0xef, 0xcd, 0xab, 0x50, 0x50, 0x50}
	if got, want := a.String(), "50:50:50:ab:cd:ef:11:11"; got != want {
		t.Fatalf("String = %q, want %q", got, want)
	}
	parsed, err := ParseIEEEAddr("505050abcdef1111")
	if err != nil {
		t.Fatalf("ParseIEEEAddr: %v", err)
	}
	if parsed != a {
		t.Fatalf("parsed = %v, want %v", parsed, a)
	}
	if _, err := ParseIEEEAddr("5050"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	ieee := IEEEAddr{1, 2, 3, 4, 5, 6, 7, 8}
	tests := []struct {
		name string
		in   Record
		out  Record
	}{
		{"formation", &Formation{Pages: 1, ChannelMask: 0x80000, ScanDuration: 5}, &Formation{}},
		{"channel list", &ChannelList{Entries: []ChannelPage{{0, 0x07FFF800}, {2, 0x1}}}, &ChannelList{}},
		{"local addr", &LocalAddr{MACIface: 0, IEEE: ieee}, &LocalAddr{}},
		{"nwk keys", &NwkKeys{Keys: [3]NwkKey{{Key: Key{0x11, 0xaa}, Number: 0}, {Number: 1}, {Number: 2}}}, &NwkKeys{}},
		{"dev annce", &DevAnnce{ShortAddr: 0x1234, IEEE: ieee, Capability: CapAllocateAddress}, &DevAnnce{}},
		{"join req", &JoinReq{ExtPanID: ieee, Pages: 1, ChannelMask: 1 << 11, ScanDuration: 5, Capability: uint8(CapRouter | CapAllocateAddress)}, &JoinReq{}},
		{"join rsp", &JoinRsp{ShortAddr: 0x4567, ExtPanID: ieee, Channel: 11}, &JoinRsp{}},
		{"discovery", &DiscoveryRsp{Networks: []NetworkDescriptor{{ExtPanID: ieee, PanID: 0x5043, Channel: 19, Flags: 0x27}}}, &DiscoveryRsp{}},
		{"neighbor", &Neighbor{IEEE: ieee, ShortAddr: 0x1, DeviceType: DeviceZED, DeviceTimeout: 0x100, Relationship: RelChild, LQI: 200}, &Neighbor{}},
		{"data req", &DataReq{Params: DataReqParams{DstAddr: ShortAddress(0x1234), ProfileID: 0x0104, DstEP: 1, SrcEP: 2, Radius: 30, AddrMode: AddrMode16EndpPresent, TxOptions: TxSecurity | TxAck}, Data: []byte("echo")}, &DataReq{}},
		{"data conf", &DataConf{DstAddr: ShortAddress(0x1234), DstEP: 1, SrcEP: 2, TxTime: 99, AddrMode: AddrMode16EndpPresent}, &DataConf{}},
		{"data ind", &DataInd{SrcAddr: 0x1234, DstEP: 2, SrcEP: 1, ProfileID: 0x0104, RSSI: -40, LQI: 255, Data: []byte{1, 2, 3}}, &DataInd{}},
		{"simple desc", &SimpleDesc{Endpoint: 1, ProfileID: 0x0104, DeviceID: 0x0100, InClusters: []uint16{0, 6}, OutClusters: []uint16{}}, &SimpleDesc{}},
		{"addr rsp extended", &AddrRsp{IEEE: ieee, ShortAddr: 0x0000, Assoc: []uint16{0x1, 0x2}}, &AddrRsp{}},
		{"install code", &InstallCode{IEEE: ieee, Code: []byte{0x83, 0xFE, 0xD3}}, &InstallCode{}},
		{"pan conflict", &PanIDConflict{PanIDs: []uint16{0x1111, 0x2222}}, &PanIDConflict{}},
		{"rx packet", &RxPacket{LQI: 5, RSSI: -90, Data: []byte{9, 9}}, &RxPacket{}},
		{"long payload", &LongPayload{Data: bytes.Repeat([]byte{7}, 300)}, &LongPayload{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := EncodeBody(tt.in)
			if err != nil {
				t.Fatalf("EncodeBody: %v", err)
			}
			if err := DecodeBody(body, tt.out); err != nil {
				t.Fatalf("DecodeBody: %v", err)
			}
			if !reflect.DeepEqual(tt.in, tt.out) {
				t.Fatalf("round trip = %+v, want %+v", tt.out, tt.in)
			}
		})
	}
}

func TestDataReqParamsSize(t *testing.T) {
	body, err := EncodeBody(&DataReq{Data: []byte{1}})
	if err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	if body[0] != DataReqParamsSize {
		t.Fatalf("param_len = %d, want %d", body[0], DataReqParamsSize)
	}
	if len(body) != 3+DataReqParamsSize+1 {
		t.Fatalf("len = %d", len(body))
	}
}

func TestDataIndParamsSize(t *testing.T) {
	in := &DataInd{SrcAddr: 0x1234, ClusterID: 0x0006, Data: []byte{1, 2, 3, 4}}
	body, err := EncodeBody(in)
	if err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	if body[0] != 21 {
		t.Fatalf("param_len = %d, want 21", body[0])
	}
	if len(body) != 3+21+4 {
		t.Fatalf("len = %d", len(body))
	}

	// a longer parameter block from newer firmware is skipped
	longer := append([]byte{}, body[:3+21]...)
	longer[0] = 23
	longer = append(longer, 0xAA, 0xBB)
	longer = append(longer, body[3+21:]...)
	var out DataInd
	if err := DecodeBody(longer, &out); err != nil {
		t.Fatalf("DecodeBody: %v", err)
	}
	if !bytes.Equal(out.Data, in.Data) || out.SrcAddr != 0x1234 || out.ClusterID != 0x0006 {
		t.Fatalf("decoded = %+v", out)
	}
}

func TestDecodeBodyShort(t *testing.T) {
	err := DecodeBody([]byte{1, 2, 3}, &Neighbor{})
	if !errors.Is(err, ErrShortBody) {
		t.Fatalf("err = %v, want ErrShortBody", err)
	}
}

func TestDiscoveryFlags(t *testing.T) {
	d := NetworkDescriptor{Flags: 0x25}
	if d.StackProfile() != 2 || !d.PermitJoining() || d.RouterCapacity() || !d.EndDeviceCapacity() {
		t.Fatalf("flags decode wrong: %+v", d)
	}
}

func TestCertValidate(t *testing.T) {
	good := &Cert{Suite: SuiteCS1, CAPublicKey: make([]byte, 22), Certificate: make([]byte, 48), PrivateKey: make([]byte, 21)}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	bad := &Cert{Suite: SuiteCS2, CAPublicKey: make([]byte, 22)}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected width error")
	}
	body, err := EncodeBody(good)
	if err != nil {
		t.Fatalf("EncodeBody: %v", err)
	}
	if len(body) != 1+22+48+21 {
		t.Fatalf("len = %d", len(body))
	}
}

func TestRecordTables(t *testing.T) {
	rec, ok := ResponseRecord(spec.GetNwkKeys)
	if !ok {
		t.Fatalf("no response record for GET_NWK_KEYS")
	}
	if _, isKeys := rec.(*NwkKeys); !isKeys {
		t.Fatalf("record = %T", rec)
	}
	a, _ := IndicationRecord(spec.APSDEDataInd)
	b, _ := IndicationRecord(spec.APSDEDataInd)
	if a == b {
		t.Fatalf("records are shared between lookups")
	}
	if _, ok := RequestRecord(spec.GetModuleVersion); ok {
		t.Fatalf("GET_MODULE_VERSION takes no arguments")
	}
}

func TestDecodeTyped(t *testing.T) {
	out, err := EncodeResponse(spec.NwkGetShortByIEEE, 4, 0, &Uint16{Value: 0xBEEF})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	f, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rec, err := DecodeTyped(f)
	if err != nil {
		t.Fatalf("DecodeTyped: %v", err)
	}
	if v, ok := rec.(*Uint16); !ok || v.Value != 0xBEEF {
		t.Fatalf("record = %#v", rec)
	}

	empty := Frame{Header: Header{Control: ControlResponse, CallID: spec.NwkGetShortByIEEE}}
	if rec, err := DecodeTyped(empty); rec != nil || err != nil {
		t.Fatalf("empty body = %v, %v", rec, err)
	}
}
