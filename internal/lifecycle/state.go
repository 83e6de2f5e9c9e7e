package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State names a package's position in the install or removal flow.
type State string

const (
	StateAbsent             State = "absent"
	StateDownloading        State = "downloading"
	StateExtracting         State = "extracting"
	StateInstalled          State = "installed"
	StateVerifyingProcesses State = "verifying-processes"
	StateBlocked            State = "blocked"
	StateTerminating        State = "terminating"
	StateReverifying        State = "reverifying"
	StateRemoved            State = "removed"
)

// Record is one package's entry in the state index.
type Record struct {
	Identifier string
	State      State
	Version    string
	// Operation ties every transition of one install or removal together.
	Operation uuid.UUID
	Updated   time.Time
}

// stateIndex tracks lifecycle state per identifier. Transitions from
// concurrent goroutines serialize on the mutex.
type stateIndex struct {
	mu      sync.Mutex
	records map[string]Record
}

func newStateIndex() *stateIndex {
	return &stateIndex{records: make(map[string]Record)}
}

// begin opens a new operation for the identifier and returns its id.
func (x *stateIndex) begin(identifier string, state State) uuid.UUID {
	x.mu.Lock()
	defer x.mu.Unlock()
	op := uuid.New()
	rec := x.records[identifier]
	rec.Identifier = identifier
	rec.State = state
	rec.Operation = op
	rec.Updated = time.Now()
	x.records[identifier] = rec
	return op
}

// advance moves the identifier to a new state within the current operation.
func (x *stateIndex) advance(identifier string, state State) {
	x.mu.Lock()
	defer x.mu.Unlock()
	rec := x.records[identifier]
	rec.Identifier = identifier
	rec.State = state
	rec.Updated = time.Now()
	x.records[identifier] = rec
}

// finish records a terminal state and the version that operation produced.
func (x *stateIndex) finish(identifier string, state State, version string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	rec := x.records[identifier]
	rec.Identifier = identifier
	rec.State = state
	rec.Version = version
	rec.Updated = time.Now()
	x.records[identifier] = rec
}

func (x *stateIndex) get(identifier string) (Record, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	rec, ok := x.records[identifier]
	return rec, ok
}
