package frame

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultLoadTimeout bounds how long the loading indicator stays up when the
// embedded document never reports completion.
const DefaultLoadTimeout = 2 * time.Second

// State is the lifecycle state of the embedded view.
type State int

const (
	Idle State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name written by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "idle":
		*s = Idle
	case "loading":
		*s = Loading
	case "loaded":
		*s = Loaded
	default:
		return fmt.Errorf("unknown frame state %q", name)
	}
	return nil
}

// LoadOutcome classifies how a load signal or timeout was reconciled.
type LoadOutcome string

const (
	OutcomeConfirmed LoadOutcome = "confirmed" // location read from the document
	OutcomeFallback  LoadOutcome = "fallback"  // location unreadable, derived from target
	OutcomeStale     LoadOutcome = "stale"     // signal for a superseded navigation
	OutcomeTimeout   LoadOutcome = "timeout"
)

// NavigationKind distinguishes how a navigation was started.
type NavigationKind string

const (
	NavInitial NavigationKind = "initial"
	NavAssign  NavigationKind = "assign"
	NavInPlace NavigationKind = "in_place"
)

// Snapshot is a consistent view of the controller state.
type Snapshot struct {
	Target       string `json:"target"`
	ObservedPath string `json:"observed_path"`
	Confirmed    bool   `json:"confirmed"`
	Loading      bool   `json:"loading"`
	State        State  `json:"state"`
	Generation   uint64 `json:"generation"`
}

// Document is the embedded document the controller drives. Implementations
// must not call back into the Controller from these methods.
type Document interface {
	// Assign replaces the embedded document with a fresh one loading address.
	Assign(address string, generation uint64) error
	// NavigateInPlace asks the current document to move to address. It is
	// expected to fail when the document is cross-origin.
	NavigateInPlace(address string, generation uint64) error
	// Location reports the document's current address when it is readable.
	Location() (string, bool)
}

// Recorder receives controller events, typically for metrics.
type Recorder interface {
	Navigation(kind NavigationKind)
	Load(outcome LoadOutcome)
}

// Timer is the subset of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type nopRecorder struct{}

func (nopRecorder) Navigation(NavigationKind) {}
func (nopRecorder) Load(LoadOutcome)          {}
