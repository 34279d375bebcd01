package capabilities

import (
	"testing"

	"github.com/legendik/volta-bridge/internal/volta"
)

func TestLoadEmbeddedDocument(t *testing.T) {
	set, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(set.All()) == 0 {
		t.Fatal("capability set is empty")
	}
}

// Every register key must be described by a capability, otherwise the
// API would publish values no client can interpret.
func TestEveryRegisterHasCapability(t *testing.T) {
	set, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, r := range volta.Registers {
		if _, ok := set.Lookup(r.Key); !ok {
			t.Errorf("register %q has no capability entry", r.Key)
		}
	}
}

func TestWritableCapabilitiesMatchRegisterRanges(t *testing.T) {
	set, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, cap := range set.All() {
		if !cap.Writable || cap.Derived {
			continue
		}
		reg, ok := volta.Lookup(cap.Key)
		if !ok {
			t.Errorf("writable capability %q has no register", cap.Key)
			continue
		}
		if cap.Min == nil || cap.Max == nil {
			t.Errorf("writable capability %q has no range", cap.Key)
			continue
		}
		if *cap.Min != reg.Min || *cap.Max != reg.Max {
			t.Errorf("capability %q range [%v, %v] disagrees with register [%v, %v]",
				cap.Key, *cap.Min, *cap.Max, reg.Min, reg.Max)
		}
	}
}

func TestAvailableFiltersCH2(t *testing.T) {
	set, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	withCH2 := set.Available(true)
	withoutCH2 := set.Available(false)

	if len(withCH2) != len(set.All()) {
		t.Error("with CH2 available, every capability must be listed")
	}
	if len(withoutCH2) >= len(withCH2) {
		t.Error("without CH2, the CH2-bound capabilities must be filtered out")
	}
	for _, cap := range withoutCH2 {
		if cap.Circuit == "ch2" {
			t.Errorf("capability %q leaked through the CH2 filter", cap.Key)
		}
	}
}

func TestValidatorRejectsMalformedDocument(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	cases := []struct {
		name string
		doc  string
	}{
		{"not json", "{"},
		{"missing version", `{"capabilities": [{"key": "x", "type": "number"}]}`},
		{"bad type", `{"version": 1, "capabilities": [{"key": "x", "type": "float"}]}`},
		{"bad key", `{"version": 1, "capabilities": [{"key": "Nope", "type": "number"}]}`},
		{"empty set", `{"version": 1, "capabilities": []}`},
	}
	for _, c := range cases {
		if err := v.ValidateDocument([]byte(c.doc)); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}
