package volta

import "fmt"

// RawData holds the raw register words of one poll cycle, keyed by the
// 1-based documentation address.
type RawData struct {
	Input   map[uint16]uint16
	Holding map[uint16]uint16
}

// NewRawData allocates empty word maps.
func NewRawData() RawData {
	return RawData{
		Input:   make(map[uint16]uint16),
		Holding: make(map[uint16]uint16),
	}
}

// Merge copies the words of one block read into the raw data.
func (r RawData) Merge(b Block, words []uint16) {
	dst := r.Input
	if b.Kind == KindHolding {
		dst = r.Holding
	}
	for i, w := range words {
		dst[b.Start+uint16(i)] = w
	}
}

// Snapshot is the flat mapping of semantic keys to scaled values
// published once per poll cycle. Values are float64, int, bool or
// string. Immutable after construction: a new snapshot replaces the
// previous one atomically, never merges into it. Keys whose source
// registers were not read are absent.
type Snapshot map[string]any

// Float returns a numeric value from the snapshot.
func (s Snapshot) Float(key string) (float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case uint32:
		return float64(v), true
	}
	return 0, false
}

// Bool returns a flag value from the snapshot.
func (s Snapshot) Bool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

// Int returns a raw or enum-coded value from the snapshot.
func (s Snapshot) Int(key string) (int, bool) {
	v, ok := s[key].(int)
	return v, ok
}

// BuildSnapshot scales the raw words of one poll cycle into a snapshot.
// Single-word registers come straight from the register table; the
// multi-word identity values (serial, versions, MAC, IP, attention
// flags) are assembled afterwards and override any single-word entry
// for the same key.
func BuildSnapshot(raw RawData) Snapshot {
	snap := make(Snapshot, len(Registers)+8)

	for _, reg := range Registers {
		words := raw.Input
		if reg.Kind == KindHolding {
			words = raw.Holding
		}
		w, ok := words[reg.Address]
		if !ok {
			continue
		}
		snap[reg.Key] = reg.Scale.Apply(w)
	}

	addDeviceInfo(snap, raw.Input)
	addNetworkInfo(snap, raw.Input)
	addSystemAttention(snap, raw.Holding)

	return snap
}

// addDeviceInfo assembles serial number, firmware/hardware version and
// MAC address from input registers 1-11.
func addDeviceInfo(snap Snapshot, words map[uint16]uint16) {
	if !hasAll(words, 1, 2, 5, 6, 7, 8, 9, 10, 11) {
		return
	}

	snap["serial_number"] = fmt.Sprintf("%d", Uint32FromRegisters(words[1], words[2]))
	snap["hardware_version"] = fmt.Sprintf("%d.%d.%d", words[5]>>8, words[5]&0xFF, words[6])
	snap["firmware_version"] = fmt.Sprintf("%d.%d.%d", words[10]>>8, words[10]&0xFF, words[11])
	snap["mac_address"] = MACFromRegisters(words[7], words[8], words[9])
}

// addNetworkInfo assembles IP, subnet mask and gateway from input
// registers 12-17.
func addNetworkInfo(snap Snapshot, words map[uint16]uint16) {
	if !hasAll(words, 12, 13, 14, 15, 16, 17) {
		return
	}

	snap["ip_address"] = IPFromRegisters(words[12], words[13])
	snap["subnet_mask"] = IPFromRegisters(words[14], words[15])
	snap["gateway"] = IPFromRegisters(words[16], words[17])
}

// addSystemAttention combines holding registers 1001-1002 into the
// 32-bit attention bitfield.
func addSystemAttention(snap Snapshot, words map[uint16]uint16) {
	if !hasAll(words, 1001, 1002) {
		return
	}
	snap["system_attention"] = Uint32FromRegisters(words[1001], words[1002])
}

func hasAll(words map[uint16]uint16, addrs ...uint16) bool {
	for _, a := range addrs {
		if _, ok := words[a]; !ok {
			return false
		}
	}
	return true
}

// CH2Available reports whether the optional second heating circuit is
// present in the given circuit mask word.
func CH2Available(mask uint16) bool {
	return mask&CircuitMaskCH2 != 0
}
