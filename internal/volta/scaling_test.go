package volta

import (
	"math"
	"testing"
)

func TestToSigned(t *testing.T) {
	cases := []struct {
		word uint16
		want int16
	}{
		{0, 0},
		{100, 100},
		{32767, 32767},
		{32768, -32768},
		{65535, -1},
		{65516, -20},
	}
	for _, c := range cases {
		if got := ToSigned(c.word); got != c.want {
			t.Errorf("ToSigned(%d) = %d, want %d", c.word, got, c.want)
		}
		if back := FromSigned(c.want); back != c.word {
			t.Errorf("FromSigned(%d) = %d, want %d", c.want, back, c.word)
		}
	}
}

func TestScaleSignedTemperature(t *testing.T) {
	cases := []struct {
		word uint16
		want float64
	}{
		{200, 20.0},
		{215, 21.5},
		{0, 0.0},
		{0xFF38, -20.0}, // -200 as two's complement
		{65516, -2.0},
		{65531, -0.5},
		{65136, -40.0},
	}
	for _, c := range cases {
		if got := ScaleSignedTemperature(c.word); got != c.want {
			t.Errorf("ScaleSignedTemperature(%#x) = %v, want %v", c.word, got, c.want)
		}
	}
}

func TestScaleValues(t *testing.T) {
	if got := ScaleTemperature(215); got != 21.5 {
		t.Errorf("ScaleTemperature(215) = %v, want 21.5", got)
	}
	if got := ScaleVoltage(33); got != 3.3 {
		t.Errorf("ScaleVoltage(33) = %v, want 3.3", got)
	}
	if got := ScalePressure(150); got != 1.5 {
		t.Errorf("ScalePressure(150) = %v, want 1.5", got)
	}
	if got := ScalePercentage(500); got != 50.0 {
		t.Errorf("ScalePercentage(500) = %v, want 50.0", got)
	}
	if got := ScaleSignedPercentage(65486); got != -5.0 {
		t.Errorf("ScaleSignedPercentage(65486) = %v, want -5.0", got)
	}
	if got := ScaleRatio(15); got != 1.5 {
		t.Errorf("ScaleRatio(15) = %v, want 1.5", got)
	}
	if got := ScaleEnergy(12345); got != 12345.0 {
		t.Errorf("ScaleEnergy(12345) = %v, want 12345.0", got)
	}
}

// Every scale must round-trip: word -> value -> word reproduces the
// original word for all valid inputs of that scale.
func TestScaleRoundTrip(t *testing.T) {
	unsignedWords := []uint16{0, 1, 3, 7, 100, 215, 500, 900, 1000, 12345, 32767}
	signedWords := []uint16{0, 1, 215, 32767, 32768, 65136, 65516, 65531, 65535}

	cases := []struct {
		name  string
		scale Scale
		words []uint16
	}{
		{"temperature", ScaleKindTemperature, unsignedWords},
		{"signed temperature", ScaleKindSignedTemperature, signedWords},
		{"voltage", ScaleKindVoltage, unsignedWords},
		{"pressure", ScaleKindPressure, unsignedWords},
		{"percentage", ScaleKindPercentage, unsignedWords},
		{"signed percentage", ScaleKindSignedPercentage, signedWords},
		{"ratio", ScaleKindRatio, unsignedWords},
		{"energy", ScaleKindEnergy, unsignedWords},
		{"raw", ScaleKindNone, unsignedWords},
	}

	for _, c := range cases {
		for _, w := range c.words {
			v, ok := c.scale.Apply(w).(float64)
			if !ok {
				v = float64(c.scale.Apply(w).(int))
			}
			if back := c.scale.Invert(v); back != w {
				t.Errorf("%s: Invert(Apply(%d)) = %d, want %d", c.name, w, back, w)
			}
		}
	}
}

// The inverse must absorb values that are off by less than half a
// quantization step, e.g. UI-rounded floats.
func TestInvertQuantization(t *testing.T) {
	if got := UnscaleTemperature(21.54); got != 215 {
		t.Errorf("UnscaleTemperature(21.54) = %d, want 215", got)
	}
	if got := UnscaleSignedTemperature(-2.04); got != 65516 {
		t.Errorf("UnscaleSignedTemperature(-2.04) = %d, want 65516", got)
	}
	if got := UnscalePressure(1.504); got != 150 {
		t.Errorf("UnscalePressure(1.504) = %d, want 150", got)
	}
}

func TestBoolScale(t *testing.T) {
	if v := ScaleKindBool.Apply(0).(bool); v {
		t.Error("Apply(0) = true, want false")
	}
	if v := ScaleKindBool.Apply(7).(bool); !v {
		t.Error("Apply(7) = false, want true")
	}
	if w := ScaleKindBool.Invert(1); w != 1 {
		t.Errorf("Invert(1) = %d, want 1", w)
	}
	if w := ScaleKindBool.Invert(0); w != 0 {
		t.Errorf("Invert(0) = %d, want 0", w)
	}
}

func TestUint32FromRegisters(t *testing.T) {
	if got := Uint32FromRegisters(0x0001, 0x0000); got != 65536 {
		t.Errorf("Uint32FromRegisters = %d, want 65536", got)
	}
	if got := Uint32FromRegisters(0xFFFF, 0xFFFF); got != math.MaxUint32 {
		t.Errorf("Uint32FromRegisters = %d, want %d", got, uint32(math.MaxUint32))
	}
}

func TestIPConversion(t *testing.T) {
	if got := IPFromRegisters(49320, 356); got != "192.168.1.100" {
		t.Errorf("IPFromRegisters = %q, want 192.168.1.100", got)
	}

	reg0, reg1, err := IPToRegisters("192.168.1.100")
	if err != nil {
		t.Fatalf("IPToRegisters err = %v", err)
	}
	if reg0 != 49320 || reg1 != 356 {
		t.Errorf("IPToRegisters = (%d, %d), want (49320, 356)", reg0, reg1)
	}

	if _, _, err := IPToRegisters("300.1.2.3"); err == nil {
		t.Error("expected error for octet > 255")
	}
	if _, _, err := IPToRegisters("10.0.0"); err == nil {
		t.Error("expected error for short address")
	}
}

func TestMACFromRegisters(t *testing.T) {
	if got := MACFromRegisters(0x0011, 0x2233, 0x4455); got != "00:11:22:33:44:55" {
		t.Errorf("MACFromRegisters = %q, want 00:11:22:33:44:55", got)
	}
}
