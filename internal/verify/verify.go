// Package verify checks that an ordered list of NCP calls is observed.
//
// The queue is consumed strictly head first. An event that does not match the
// head is reported and counted while the head stays pending. The queue is never
// reordered, so a run that sees required calls out of order stays incomplete.
package verify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tonylturner/zbncp/internal/logging"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

// Entry is one required call. Status, when set, is the status the matching
// response is expected to carry.
type Entry struct {
	Call   spec.CallCode
	Status *spec.StatusID
}

func (e Entry) String() string {
	if e.Status == nil {
		return e.Call.String()
	}
	return fmt.Sprintf("%s=%s", e.Call, *e.Status)
}

// Calls builds entries without expected statuses.
func Calls(calls ...spec.CallCode) []Entry {
	out := make([]Entry, len(calls))
	for i, c := range calls {
		out[i] = Entry{Call: c}
	}
	return out
}

// ParseEntry accepts "CALL_NAME" or "CALL_NAME=STATUS".
func ParseEntry(s string) (Entry, error) {
	name, status, hasStatus := strings.Cut(strings.TrimSpace(s), "=")
	call, ok := spec.LookupCall(name)
	if !ok {
		return Entry{}, fmt.Errorf("unknown call %q", name)
	}
	e := Entry{Call: call}
	if hasStatus {
		id, ok := spec.LookupStatus(status)
		if !ok {
			return Entry{}, fmt.Errorf("unknown status %q for %s", status, name)
		}
		e.Status = &id
	}
	return e, nil
}

// Stats counts verifier outcomes.
type Stats struct {
	Matched        int
	Mismatched     int
	Ignored        int
	StatusMismatch int
	Remaining      int
}

// Verifier holds the required queue and the ignore set.
type Verifier struct {
	mu      sync.Mutex
	queue   []Entry
	ignore  map[spec.CallCode]struct{}
	logger  *logging.Logger
	stats   Stats
	initial int
}

// New returns a verifier over a copy of required.
func New(required []Entry, ignore []spec.CallCode, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Discard()
	}
	v := &Verifier{
		queue:   append([]Entry(nil), required...),
		ignore:  make(map[spec.CallCode]struct{}, len(ignore)),
		logger:  logger,
		initial: len(required),
	}
	for _, c := range ignore {
		v.ignore[c] = struct{}{}
	}
	return v
}

// OnEvent feeds one observed call. Indications pass nil status.
func (v *Verifier) OnEvent(call spec.CallCode, status *spec.StatusID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, skip := v.ignore[call]; skip {
		v.stats.Ignored++
		return
	}
	if len(v.queue) == 0 {
		return
	}

	head := v.queue[0]
	if head.Call != call {
		v.stats.Mismatched++
		v.logger.Error("Waiting for %s, captured call %s", head.Call, call)
		return
	}

	if head.Status != nil && status != nil && *head.Status != *status {
		v.stats.StatusMismatch++
		v.logger.Warn("%s returned %s, expected %s", call, *status, *head.Status)
	}
	v.queue = v.queue[1:]
	v.stats.Matched++
	v.logger.Info("Packet %s received", call)

	if len(v.queue) == 0 {
		v.logger.Info("ALL REQUIRED NCP CALLS CAPTURED")
	} else {
		v.logger.Info("Waiting for %d more ncp calls.", len(v.queue))
	}
}

// Done reports whether every required call was observed.
func (v *Verifier) Done() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.queue) == 0
}

// Pending returns the calls still required, head first.
func (v *Verifier) Pending() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Entry(nil), v.queue...)
}

// Stats returns a snapshot of the counters.
func (v *Verifier) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.stats
	s.Remaining = len(v.queue)
	return s
}

// Required returns how many entries the verifier started with.
func (v *Verifier) Required() int { return v.initial }

// Ignored reports whether call is in the ignore set.
func (v *Verifier) Ignored(call spec.CallCode) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.ignore[call]
	return ok
}
