package capabilities

import (
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/legendik/volta-bridge/internal/volta"
)

//go:embed capabilities.json
var capabilitiesJSON []byte

// Capability describes one published snapshot key: its value type, unit
// and - for configuration registers - writability and documented range.
// Derived capabilities are assembled from multiple registers and not
// directly addressable. Capabilities bound to the optional second
// circuit exist only while that circuit is available.
type Capability struct {
	Key      string   `json:"key"`
	Type     string   `json:"type"`
	Unit     string   `json:"unit,omitempty"`
	Writable bool     `json:"writable,omitempty"`
	Derived  bool     `json:"derived,omitempty"`
	Circuit  string   `json:"circuit,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

type document struct {
	Version      int          `json:"version"`
	Capabilities []Capability `json:"capabilities"`
}

// Set is the loaded, schema-validated capability set.
type Set struct {
	capabilities []Capability
	index        map[string]Capability
}

// Load validates the embedded capability document and cross-checks it
// against the register table: every non-derived capability must name a
// known register, and writability must agree.
func Load() (*Set, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}
	if err := validator.ValidateDocument(capabilitiesJSON); err != nil {
		return nil, fmt.Errorf("capability document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(capabilitiesJSON, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capability document: %w", err)
	}

	set := &Set{
		capabilities: doc.Capabilities,
		index:        make(map[string]Capability, len(doc.Capabilities)),
	}

	for _, cap := range doc.Capabilities {
		if _, dup := set.index[cap.Key]; dup {
			return nil, fmt.Errorf("duplicate capability %q", cap.Key)
		}

		if !cap.Derived {
			reg, ok := volta.Lookup(cap.Key)
			if !ok {
				return nil, fmt.Errorf("capability %q has no register", cap.Key)
			}
			if cap.Writable != reg.Writable {
				return nil, fmt.Errorf("capability %q: writability disagrees with register table", cap.Key)
			}
			if (cap.Circuit == "ch2") != reg.CH2 {
				return nil, fmt.Errorf("capability %q: circuit binding disagrees with register table", cap.Key)
			}
		}

		set.index[cap.Key] = cap
	}

	return set, nil
}

// All returns every capability, CH2-bound ones included.
func (s *Set) All() []Capability {
	out := make([]Capability, len(s.capabilities))
	copy(out, s.capabilities)
	return out
}

// Available returns the capabilities that exist for the given circuit
// availability.
func (s *Set) Available(ch2 bool) []Capability {
	out := make([]Capability, 0, len(s.capabilities))
	for _, cap := range s.capabilities {
		if cap.Circuit == "ch2" && !ch2 {
			continue
		}
		out = append(out, cap)
	}
	return out
}

// Lookup resolves one capability by key.
func (s *Set) Lookup(key string) (Capability, bool) {
	cap, ok := s.index[key]
	return cap, ok
}
