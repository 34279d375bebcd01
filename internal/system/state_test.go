package system

import "testing"

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to SystemState
		valid    bool
	}{
		{StateInitializing, StateRunning, true},
		{StateInitializing, StateError, true},
		{StateInitializing, StateStopped, false},
		{StateRunning, StateStopping, true},
		{StateRunning, StateError, true},
		{StateRunning, StateInitializing, false},
		{StateStopping, StateStopped, true},
		{StateStopping, StateRunning, false},
		{StateStopped, StateInitializing, true},
		{StateError, StateInitializing, true},
		{StateError, StateStopped, true},
		{StateError, StateRunning, false},
	}

	for _, tt := range tests {
		err := ValidateTransition(tt.from, tt.to)
		if tt.valid && err != nil {
			t.Errorf("%s -> %s: unexpected error: %v", tt.from, tt.to, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("%s -> %s: expected error", tt.from, tt.to)
		}
	}
}

func TestStateString(t *testing.T) {
	if got := StateRunning.String(); got != "RUNNING" {
		t.Errorf("String() = %q, want RUNNING", got)
	}
	if got := SystemState(99).String(); got != "UNKNOWN" {
		t.Errorf("String() = %q, want UNKNOWN", got)
	}
}
