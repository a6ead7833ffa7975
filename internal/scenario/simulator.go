package scenario

// Loopback scripts: the NCP side of each scenario, with a simulated remote
// node that sends APS data for the host to echo.

import (
	"fmt"
	"math/bits"

	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/transport"
)

const (
	simModuleVersion uint32 = 0x03010000
	simExtPanID             = "00:01:02:03:04:05:06:07"
	simJoinedShort   uint16 = 0x4C21
	echoProfile      uint16 = 0x0104
	echoCluster      uint16 = 0x0006
	echoEndpoint     uint8  = 1
)

var (
	simLocalIEEE = mustIEEE("00:0b:57:ff:fe:12:34:56")
	simPeerIEEE  = mustIEEE("00:0b:57:ff:fe:00:00:01")
	simTCLinkKey = protocol.Key{'Z', 'i', 'g', 'B', 'e', 'e', 'A', 'l', 'l', 'i', 'a', 'n', 'c', 'e', '0', '9'}
)

func mustIEEE(s string) protocol.IEEEAddr {
	a, err := protocol.ParseIEEEAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

// firstChannel returns the lowest channel selected by mask.
func firstChannel(mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	return uint8(bits.TrailingZeros32(mask))
}

// remoteNode is the node on the other end of the echo exchange.
type remoteNode struct {
	short uint16
	ieee  protocol.IEEEAddr
	local uint16
}

// dataInd is the n-th packet the remote node sends, starting at 1.
func (r remoteNode) dataInd(n int) transport.Indication {
	return transport.Indication{
		Call: spec.APSDEDataInd,
		Body: &protocol.DataInd{
			SrcAddr:    r.short,
			DstAddr:    r.local,
			DstEP:      echoEndpoint,
			SrcEP:      echoEndpoint,
			ClusterID:  echoCluster,
			ProfileID:  echoProfile,
			APSCounter: uint8(n),
			MACSrcAddr: r.short,
			MACDstAddr: r.local,
			LQI:        0xFF,
			RSSI:       -40,
			Data:       []byte(fmt.Sprintf("echo #%d", n)),
		},
	}
}

// dataConf answers one echo.
func (r remoteNode) dataConf(inds ...transport.Indication) transport.Reply {
	return transport.Reply{
		Body: &protocol.DataConf{
			DstAddr:  protocol.ShortAddress(r.short),
			DstEP:    echoEndpoint,
			SrcEP:    echoEndpoint,
			AddrMode: protocol.AddrMode16EndpPresent,
		},
		Indications: inds,
	}
}

// echoReplies scripts total echoes where every confirm but the last one
// carries the next packet. The first packet must be attached elsewhere.
func (r remoteNode) echoReplies(s *transport.Script, total int) {
	for n := 1; n <= total; n++ {
		if n < total {
			s.On(spec.APSDEDataReq, r.dataConf(r.dataInd(n+1)))
		} else {
			s.On(spec.APSDEDataReq, r.dataConf())
		}
	}
}

// bringupScript answers the bring-up queries. Calls without a body are left
// to the loopback's empty OK default.
func bringupScript(p Params) *transport.Script {
	s := transport.NewScript().BootResponse(spec.NCPReset, spec.StatusOK, nil)
	s.On(spec.GetModuleVersion, transport.Reply{Body: &protocol.ModuleVersion{Version: simModuleVersion}})
	s.On(spec.GetLocalIEEEAddr, transport.Reply{Body: &protocol.LocalAddr{IEEE: simLocalIEEE}})
	s.On(spec.GetZigbeeChannelMask, transport.Reply{Body: &protocol.ChannelList{
		Entries: []protocol.ChannelPage{{Page: p.ChannelPage, Mask: p.ChannelMask}},
	}})
	s.On(spec.GetZigbeeChannel, transport.Reply{Body: &protocol.Channel{Channel: firstChannel(p.ChannelMask)}})
	s.On(spec.GetPanID, transport.Reply{Body: &protocol.Uint16{Value: p.PanID}})
	s.On(spec.GetZigbeeRole, transport.Reply{Body: &protocol.Uint8{Value: uint8(p.Role)}})
	return s
}

// keyDumpScript answers the key read-back. zc is the coordinator's address.
func keyDumpScript(s *transport.Script, p Params, zc protocol.IEEEAddr) {
	var keys protocol.NwkKeys
	keys.Keys[0] = protocol.NwkKey{Key: p.NwkKey}
	s.On(spec.GetNwkKeys, transport.Reply{Body: &keys})
	s.On(spec.NwkGetIEEEByShort, transport.Reply{Body: &protocol.Addr64{Addr: zc}})
	s.On(spec.GetAPSKeyByIEEE, transport.Reply{Body: &protocol.APSKey{Key: simTCLinkKey}})
}

// simNetwork is the network joiners discover.
func simNetwork(p Params) protocol.NetworkDescriptor {
	return protocol.NetworkDescriptor{
		ExtPanID: mustIEEE(simExtPanID),
		PanID:    p.PanID,
		Page:     p.ChannelPage,
		Channel:  firstChannel(p.ChannelMask),
		// stack profile 2, permit joining, router and end device capacity
		Flags: 0x27,
	}
}
