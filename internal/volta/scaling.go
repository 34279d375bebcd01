package volta

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scaling between raw 16-bit register words and physical values.
// All functions are pure. Every scale has an inverse that round-trips
// within one quantization step of the register.

// ToSigned reinterprets a register word as a two's-complement int16.
// Modbus registers are unsigned on the wire; values above 32767 encode
// negative numbers. Example: 0xFFEC -> -20.
func ToSigned(word uint16) int16 {
	return int16(word)
}

// FromSigned converts a signed value back to its wire representation.
func FromSigned(v int16) uint16 {
	return uint16(v)
}

// ScaleTemperature converts an unsigned temperature word (0.1 C resolution).
func ScaleTemperature(word uint16) float64 {
	return float64(word) / 10.0
}

// ScaleSignedTemperature converts a signed temperature word (0.1 C resolution).
// The word must be interpreted as two's complement: 0xFF38 (-200) -> -20.0.
func ScaleSignedTemperature(word uint16) float64 {
	return float64(ToSigned(word)) / 10.0
}

// ScaleVoltage converts a voltage word (0.1 V resolution).
func ScaleVoltage(word uint16) float64 {
	return float64(word) / 10.0
}

// ScalePressure converts a pressure word (0.01 bar resolution).
func ScalePressure(word uint16) float64 {
	return float64(word) / 100.0
}

// ScalePercentage converts an unsigned percentage word (0.1 % resolution).
func ScalePercentage(word uint16) float64 {
	return float64(word) / 10.0
}

// ScaleSignedPercentage converts a signed percentage word (0.1 % resolution).
func ScaleSignedPercentage(word uint16) float64 {
	return float64(ToSigned(word)) / 10.0
}

// ScaleRatio converts a ratio word (0.1 resolution).
func ScaleRatio(word uint16) float64 {
	return float64(word) / 10.0
}

// ScaleEnergy converts an energy counter word (1 kWh resolution).
// The counter is monotonic non-decreasing except on device reset.
func ScaleEnergy(word uint16) float64 {
	return float64(word)
}

func UnscaleTemperature(v float64) uint16 {
	return uint16(math.Round(v * 10))
}

func UnscaleSignedTemperature(v float64) uint16 {
	return FromSigned(int16(math.Round(v * 10)))
}

func UnscaleVoltage(v float64) uint16 {
	return uint16(math.Round(v * 10))
}

func UnscalePressure(v float64) uint16 {
	return uint16(math.Round(v * 100))
}

func UnscalePercentage(v float64) uint16 {
	return uint16(math.Round(v * 10))
}

func UnscaleSignedPercentage(v float64) uint16 {
	return FromSigned(int16(math.Round(v * 10)))
}

func UnscaleRatio(v float64) uint16 {
	return uint16(math.Round(v * 10))
}

func UnscaleEnergy(v float64) uint16 {
	return uint16(math.Round(v))
}

// Scale identifies the transform between a register word and its value.
type Scale uint8

const (
	ScaleKindNone Scale = iota // raw word, exposed as int
	ScaleKindBool
	ScaleKindTemperature
	ScaleKindSignedTemperature
	ScaleKindVoltage
	ScaleKindPressure
	ScaleKindPercentage
	ScaleKindSignedPercentage
	ScaleKindRatio
	ScaleKindEnergy
)

// Apply converts a raw register word into its published value.
// The result is an int for raw/enum words, a bool for flags and a
// float64 for everything with a physical unit.
func (s Scale) Apply(word uint16) any {
	switch s {
	case ScaleKindBool:
		return word != 0
	case ScaleKindTemperature:
		return ScaleTemperature(word)
	case ScaleKindSignedTemperature:
		return ScaleSignedTemperature(word)
	case ScaleKindVoltage:
		return ScaleVoltage(word)
	case ScaleKindPressure:
		return ScalePressure(word)
	case ScaleKindPercentage:
		return ScalePercentage(word)
	case ScaleKindSignedPercentage:
		return ScaleSignedPercentage(word)
	case ScaleKindRatio:
		return ScaleRatio(word)
	case ScaleKindEnergy:
		return ScaleEnergy(word)
	default:
		return int(word)
	}
}

// Invert converts a value back into the register word that Apply would
// have produced it from. Round-trips within half a scaling step.
func (s Scale) Invert(v float64) uint16 {
	switch s {
	case ScaleKindBool:
		if v != 0 {
			return 1
		}
		return 0
	case ScaleKindTemperature:
		return UnscaleTemperature(v)
	case ScaleKindSignedTemperature:
		return UnscaleSignedTemperature(v)
	case ScaleKindVoltage:
		return UnscaleVoltage(v)
	case ScaleKindPressure:
		return UnscalePressure(v)
	case ScaleKindPercentage:
		return UnscalePercentage(v)
	case ScaleKindSignedPercentage:
		return UnscaleSignedPercentage(v)
	case ScaleKindRatio:
		return UnscaleRatio(v)
	case ScaleKindEnergy:
		return UnscaleEnergy(v)
	default:
		return uint16(math.Round(v))
	}
}

// Uint32FromRegisters combines two words into a 32-bit value, high word first.
func Uint32FromRegisters(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// IPFromRegisters decodes two words into a dotted-quad address.
func IPFromRegisters(reg0, reg1 uint16) string {
	return fmt.Sprintf("%d.%d.%d.%d", reg0>>8, reg0&0xFF, reg1>>8, reg1&0xFF)
}

// IPToRegisters encodes a dotted-quad address into two words.
func IPToRegisters(ip string) (uint16, uint16, error) {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return 0, 0, fmt.Errorf("invalid ip address: %q", ip)
	}
	octets := make([]uint16, 4)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid ip address: %q", ip)
		}
		octets[i] = uint16(n)
	}
	return octets[0]<<8 | octets[1], octets[2]<<8 | octets[3], nil
}

// MACFromRegisters decodes three words into a colon-separated MAC address.
func MACFromRegisters(reg0, reg1, reg2 uint16) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		reg0>>8, reg0&0xFF, reg1>>8, reg1&0xFF, reg2>>8, reg2&0xFF)
}
