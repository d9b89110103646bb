package frame

import (
	"encoding/json"
	"testing"
)

func TestSnapshotJSONRoundTrip(t *testing.T) {
	for _, state := range []State{Idle, Loading, Loaded} {
		t.Run(state.String(), func(t *testing.T) {
			in := Snapshot{
				Target:       "https://faylit.com/indirim?utm_source=app",
				ObservedPath: "indirim",
				Loading:      state == Loading,
				State:        state,
				Generation:   3,
			}
			data, err := json.Marshal(in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var out Snapshot
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("Unmarshal(%s): %v", data, err)
			}
			if out != in {
				t.Errorf("round trip = %+v, want %+v", out, in)
			}
		})
	}
}

func TestStateUnmarshalUnknown(t *testing.T) {
	var s State
	if err := json.Unmarshal([]byte(`"paused"`), &s); err == nil {
		t.Error("expected error for unknown state name")
	}
	if err := json.Unmarshal([]byte(`1`), &s); err == nil {
		t.Error("expected error for numeric state")
	}
}
