package app

import (
	"fmt"
	"strings"

	"github.com/tonylturner/zbncp/internal/config"
	"github.com/tonylturner/zbncp/internal/ncp/protocol"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
	"github.com/tonylturner/zbncp/internal/transport"
)

// applyLoopbackOverrides merges the config's scripted frames into the
// scenario's script. Boot frames replace the scenario's boot frames; each
// configured call replaces every scripted reply for that call.
func applyLoopbackOverrides(script *transport.Script, lc config.LoopbackConfig) error {
	if len(lc.Boot) > 0 {
		script.Boot = nil
		for i, f := range lc.Boot {
			bf, err := bootFrame(f)
			if err != nil {
				return fmt.Errorf("loopback.boot[%d]: %w", i, err)
			}
			script.Boot = append(script.Boot, bf)
		}
	}

	replaced := make(map[spec.CallCode]bool)
	for i, r := range lc.Replies {
		call, reply, err := scriptedReply(r)
		if err != nil {
			return fmt.Errorf("loopback.replies[%d]: %w", i, err)
		}
		if !replaced[call] {
			delete(script.Replies, call)
			replaced[call] = true
		}
		script.On(call, reply)
	}
	return nil
}

func bootFrame(f config.LoopbackFrame) (transport.BootFrame, error) {
	call, status, body, err := frameParts(f.Call, f.Status, f.Body)
	if err != nil {
		return transport.BootFrame{}, err
	}
	bf := transport.BootFrame{Control: protocol.ControlIndication, Call: call, Body: body}
	if strings.EqualFold(f.Kind, "response") {
		bf.Control = protocol.ControlResponse
		bf.Status = status
	}
	return bf, nil
}

func scriptedReply(r config.LoopbackReply) (spec.CallCode, transport.Reply, error) {
	call, status, body, err := frameParts(r.Call, r.Status, r.Body)
	if err != nil {
		return 0, transport.Reply{}, err
	}
	reply := transport.Reply{Status: status, Body: body, NoResponse: r.NoResponse}
	for i, f := range r.Indications {
		indCall, _, indBody, err := frameParts(f.Call, "", f.Body)
		if err != nil {
			return 0, transport.Reply{}, fmt.Errorf("indications[%d]: %w", i, err)
		}
		reply.Indications = append(reply.Indications, transport.Indication{Call: indCall, Body: indBody})
	}
	return call, reply, nil
}

func frameParts(callName, statusName, bodyHex string) (spec.CallCode, spec.StatusID, protocol.BodyEncoder, error) {
	call, ok := spec.LookupCall(callName)
	if !ok {
		return 0, 0, nil, fmt.Errorf("unknown call %q", callName)
	}
	status := spec.StatusOK
	if statusName != "" {
		if status, ok = spec.LookupStatus(statusName); !ok {
			return 0, 0, nil, fmt.Errorf("unknown status %q", statusName)
		}
	}
	data, err := config.DecodeHex(bodyHex)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("body: %w", err)
	}
	var body protocol.BodyEncoder
	if len(data) > 0 {
		body = &protocol.RawBytes{Data: data}
	}
	return call, status, body, nil
}
