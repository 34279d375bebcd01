package volta

// Register map for the Jablotron Volta electric boiler, per the vendor's
// Modbus TCP documentation. Addresses are the 1-based documentation
// addresses; wire calls subtract 1 (see Register.WireAddress).

// Kind is the Modbus register class.
type Kind uint8

const (
	KindInput   Kind = iota // read-only measurements and status
	KindHolding             // configuration and setpoints
)

func (k Kind) String() string {
	if k == KindInput {
		return "input"
	}
	return "holding"
}

const (
	// SystemPassword unlocks the system register block. Written to
	// AuthRegister once per connection.
	SystemPassword uint16 = 5586

	// AuthRegister is the documentation address of the password register.
	AuthRegister uint16 = 3001

	// RestartRegister triggers a device restart when written non-zero.
	RestartRegister uint16 = 3003

	// MaxBlockSize is the largest register count the device serves in a
	// single read. Logical groups above this must be split by the caller.
	MaxBlockSize uint16 = 32

	// Circuit mask bits (holding register 3010).
	CircuitMaskCH1 uint16 = 1 << 0
	CircuitMaskCH2 uint16 = 1 << 1
)

// Register describes one named register: semantic key, documentation
// address, class, scaling and - for writable configuration registers -
// the documented value range in scaled units.
type Register struct {
	Key      string
	Address  uint16 // 1-based per vendor documentation
	Kind     Kind
	Scale    Scale
	Writable bool
	Min, Max float64 // documented range, scaled units; writable registers only
	CH2      bool    // belongs to the optional second heating circuit
}

// WireAddress converts the documentation address to the 0-based address
// used on the wire.
func (r Register) WireAddress() uint16 {
	return r.Address - 1
}

// InRange reports whether a scaled value lies within the documented range.
func (r Register) InRange(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Registers is the full register table. Immutable; defined once at
// process start.
var Registers = []Register{
	// --- input: system status (20-21) ---
	{Key: "cpu_temperature", Address: 20, Kind: KindInput, Scale: ScaleKindTemperature},
	{Key: "battery_voltage", Address: 21, Kind: KindInput, Scale: ScaleKindVoltage},

	// --- input: regulation (30-32) ---
	{Key: "regulation_mode_current", Address: 30, Kind: KindInput, Scale: ScaleKindNone},
	{Key: "outdoor_temp_damped", Address: 31, Kind: KindInput, Scale: ScaleKindSignedTemperature},
	{Key: "outdoor_temp_composite", Address: 32, Kind: KindInput, Scale: ScaleKindSignedTemperature},

	// --- input: boiler status (40-49) ---
	{Key: "boiler_active_segments", Address: 40, Kind: KindInput, Scale: ScaleKindNone},
	{Key: "boiler_inactive_segments", Address: 41, Kind: KindInput, Scale: ScaleKindNone},
	{Key: "boiler_pressure", Address: 42, Kind: KindInput, Scale: ScaleKindPressure},
	{Key: "boiler_water_input_temp", Address: 44, Kind: KindInput, Scale: ScaleKindTemperature},
	{Key: "boiler_water_return_temp", Address: 45, Kind: KindInput, Scale: ScaleKindTemperature},
	{Key: "boiler_pump_power", Address: 46, Kind: KindInput, Scale: ScaleKindPercentage},
	{Key: "boiler_heating_power", Address: 47, Kind: KindInput, Scale: ScaleKindPercentage},
	{Key: "boiler_analog_value", Address: 48, Kind: KindInput, Scale: ScaleKindVoltage},
	{Key: "boiler_pwm_value", Address: 49, Kind: KindInput, Scale: ScaleKindNone},

	// --- input: DHW status (101-102) ---
	{Key: "dhw_state_heat", Address: 101, Kind: KindInput, Scale: ScaleKindBool},
	{Key: "dhw_temperature_current", Address: 102, Kind: KindInput, Scale: ScaleKindTemperature},

	// --- input: CH1 status (200-206) ---
	{Key: "ch1_state_heat", Address: 200, Kind: KindInput, Scale: ScaleKindBool},
	{Key: "ch1_temperature_current", Address: 201, Kind: KindInput, Scale: ScaleKindTemperature},
	{Key: "ch1_water_input_temp", Address: 202, Kind: KindInput, Scale: ScaleKindTemperature},
	{Key: "ch1_water_return_temp", Address: 203, Kind: KindInput, Scale: ScaleKindTemperature},
	{Key: "ch1_pump_power", Address: 204, Kind: KindInput, Scale: ScaleKindPercentage},
	{Key: "ch1_humidity", Address: 205, Kind: KindInput, Scale: ScaleKindPercentage},
	{Key: "ch1_co2", Address: 206, Kind: KindInput, Scale: ScaleKindPercentage},

	// --- input: CH2 status (300-306, only while circuit 2 is present) ---
	{Key: "ch2_state_heat", Address: 300, Kind: KindInput, Scale: ScaleKindBool, CH2: true},
	{Key: "ch2_temperature_current", Address: 301, Kind: KindInput, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_water_input_temp", Address: 302, Kind: KindInput, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_water_return_temp", Address: 303, Kind: KindInput, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_pump_power", Address: 304, Kind: KindInput, Scale: ScaleKindPercentage, CH2: true},
	{Key: "ch2_humidity", Address: 305, Kind: KindInput, Scale: ScaleKindPercentage, CH2: true},
	{Key: "ch2_co2", Address: 306, Kind: KindInput, Scale: ScaleKindPercentage, CH2: true},

	// --- holding: system alerts (1001-1002, uint32 across both words) ---
	// Writing 0 acknowledges the pending attention flags.
	{Key: "system_attention", Address: 1001, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 0},

	// --- holding: regulation settings (1030-1035) ---
	{Key: "regulation_mode_user", Address: 1030, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 3},
	{Key: "outdoor_temp_source", Address: 1031, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2},
	{Key: "building_momentum", Address: 1032, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 200},
	{Key: "composite_filter_ratio", Address: 1033, Kind: KindHolding, Scale: ScaleKindRatio, Writable: true, Min: 0, Max: 1},
	{Key: "changeover_temp", Address: 1034, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -20, Max: 30},
	{Key: "outdoor_temp_manual", Address: 1035, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -40, Max: 50},

	// --- holding: boiler settings (1050-1056) ---
	{Key: "boiler_load_release", Address: 1050, Kind: KindHolding, Scale: ScaleKindNone},
	{Key: "boiler_hdo_high_tariff", Address: 1051, Kind: KindHolding, Scale: ScaleKindNone},
	{Key: "boiler_outdoor_temp_correction", Address: 1052, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -10, Max: 10},
	{Key: "boiler_total_energy", Address: 1053, Kind: KindHolding, Scale: ScaleKindEnergy},
	{Key: "boiler_water_setpoint", Address: 1054, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "boiler_water_temp_max", Address: 1055, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 30, Max: 90},
	{Key: "boiler_water_temp_min", Address: 1056, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 10, Max: 60},

	// --- holding: DHW settings (1100-1104, 1106-1107; 1105 is unused) ---
	{Key: "dhw_mode", Address: 1100, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2},
	{Key: "dhw_temperature_desired", Address: 1101, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "dhw_temperature_min", Address: 1102, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "dhw_temperature_max", Address: 1103, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "dhw_temperature_manual", Address: 1104, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 10, Max: 65},
	{Key: "dhw_hysteresis", Address: 1106, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 0.5, Max: 10},
	{Key: "dhw_regulation_strategy", Address: 1107, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2},

	// --- holding: CH1 settings (1200-1219) ---
	{Key: "ch1_mode", Address: 1200, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2},
	{Key: "ch1_temperature_desired", Address: 1201, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "ch1_temperature_min", Address: 1202, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "ch1_temperature_max", Address: 1203, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "ch1_temperature_manual", Address: 1204, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 5, Max: 30},
	{Key: "ch1_temperature_antifrost", Address: 1205, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 5, Max: 15},
	{Key: "ch1_hysteresis", Address: 1206, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 0.5, Max: 5},
	{Key: "ch1_regulation_strategy", Address: 1207, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2},
	{Key: "ch1_water_temp_min", Address: 1208, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 10, Max: 50},
	{Key: "ch1_water_temp_max", Address: 1209, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 20, Max: 90},
	{Key: "ch1_water_setpoint", Address: 1210, Kind: KindHolding, Scale: ScaleKindTemperature},
	{Key: "ch1_equitherm_slope", Address: 1211, Kind: KindHolding, Scale: ScaleKindRatio, Writable: true, Min: 0, Max: 10},
	{Key: "ch1_equitherm_offset", Address: 1212, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -20, Max: 20},
	{Key: "ch1_equitherm_room_effect", Address: 1213, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 100},
	{Key: "ch1_threshold_setpoint", Address: 1214, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 20, Max: 90},
	{Key: "ch1_limit_heat_temp", Address: 1215, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 0, Max: 10},
	{Key: "ch1_optimal_start", Address: 1216, Kind: KindHolding, Scale: ScaleKindBool, Writable: true, Min: 0, Max: 1},
	{Key: "ch1_fast_cooldown", Address: 1217, Kind: KindHolding, Scale: ScaleKindBool, Writable: true, Min: 0, Max: 1},
	{Key: "ch1_temp_correction", Address: 1218, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -5, Max: 5},
	{Key: "ch1_humidity_correction", Address: 1219, Kind: KindHolding, Scale: ScaleKindSignedPercentage, Writable: true, Min: -20, Max: 20},

	// --- holding: CH2 settings (1300-1319, same layout as CH1) ---
	{Key: "ch2_mode", Address: 1300, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2, CH2: true},
	{Key: "ch2_temperature_desired", Address: 1301, Kind: KindHolding, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_temperature_min", Address: 1302, Kind: KindHolding, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_temperature_max", Address: 1303, Kind: KindHolding, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_temperature_manual", Address: 1304, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 5, Max: 30, CH2: true},
	{Key: "ch2_temperature_antifrost", Address: 1305, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 5, Max: 15, CH2: true},
	{Key: "ch2_hysteresis", Address: 1306, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 0.5, Max: 5, CH2: true},
	{Key: "ch2_regulation_strategy", Address: 1307, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2, CH2: true},
	{Key: "ch2_water_temp_min", Address: 1308, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 10, Max: 50, CH2: true},
	{Key: "ch2_water_temp_max", Address: 1309, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 20, Max: 90, CH2: true},
	{Key: "ch2_water_setpoint", Address: 1310, Kind: KindHolding, Scale: ScaleKindTemperature, CH2: true},
	{Key: "ch2_equitherm_slope", Address: 1311, Kind: KindHolding, Scale: ScaleKindRatio, Writable: true, Min: 0, Max: 10, CH2: true},
	{Key: "ch2_equitherm_offset", Address: 1312, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -20, Max: 20, CH2: true},
	{Key: "ch2_equitherm_room_effect", Address: 1313, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 100, CH2: true},
	{Key: "ch2_threshold_setpoint", Address: 1314, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 20, Max: 90, CH2: true},
	{Key: "ch2_limit_heat_temp", Address: 1315, Kind: KindHolding, Scale: ScaleKindTemperature, Writable: true, Min: 0, Max: 10, CH2: true},
	{Key: "ch2_optimal_start", Address: 1316, Kind: KindHolding, Scale: ScaleKindBool, Writable: true, Min: 0, Max: 1, CH2: true},
	{Key: "ch2_fast_cooldown", Address: 1317, Kind: KindHolding, Scale: ScaleKindBool, Writable: true, Min: 0, Max: 1, CH2: true},
	{Key: "ch2_temp_correction", Address: 1318, Kind: KindHolding, Scale: ScaleKindSignedTemperature, Writable: true, Min: -5, Max: 5, CH2: true},
	{Key: "ch2_humidity_correction", Address: 1319, Kind: KindHolding, Scale: ScaleKindSignedPercentage, Writable: true, Min: -20, Max: 20, CH2: true},

	// --- holding: system control (3001-3010, password protected) ---
	{Key: "control_mode", Address: 3002, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 3},
	{Key: "restart_device", Address: 3003, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 1},
	{Key: "error_code", Address: 3004, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 0},
	{Key: "master_fail_mode", Address: 3006, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 2},
	{Key: "master_timeout", Address: 3007, Kind: KindHolding, Scale: ScaleKindNone, Writable: true, Min: 0, Max: 3600},
	{Key: "requested_power", Address: 3008, Kind: KindHolding, Scale: ScaleKindPercentage},
	{Key: "device_type", Address: 3009, Kind: KindHolding, Scale: ScaleKindNone},
	{Key: "circuit_mask", Address: 3010, Kind: KindHolding, Scale: ScaleKindNone},
}

var registerIndex = func() map[string]Register {
	idx := make(map[string]Register, len(Registers))
	for _, r := range Registers {
		idx[r.Key] = r
	}
	return idx
}()

// Lookup resolves a semantic key to its register definition.
func Lookup(key string) (Register, bool) {
	r, ok := registerIndex[key]
	return r, ok
}

// Block describes one contiguous read in the poll plan. Blocks never
// exceed MaxBlockSize and never span gaps of unused addresses.
type Block struct {
	Kind  Kind
	Start uint16 // 1-based per vendor documentation
	Count uint16
	Auth  bool // the device gates this block behind authentication
	CH2   bool // read only while circuit 2 is available
}

// WireStart converts the block start to the 0-based wire address.
func (b Block) WireStart() uint16 {
	return b.Start - 1
}

// ReadPlan is the batched poll layout. Register groups that exceed the
// device block limit or span unused addresses are split so no call
// touches a non-existent register.
var ReadPlan = []Block{
	// Device and network identity (serial, versions, MAC, IP).
	{Kind: KindInput, Start: 1, Count: 17},
	{Kind: KindInput, Start: 20, Count: 2},
	{Kind: KindInput, Start: 30, Count: 3},
	{Kind: KindInput, Start: 40, Count: 10},
	{Kind: KindInput, Start: 101, Count: 2},
	{Kind: KindInput, Start: 200, Count: 7},
	{Kind: KindInput, Start: 300, Count: 7, CH2: true},

	{Kind: KindHolding, Start: 1001, Count: 2},
	{Kind: KindHolding, Start: 1030, Count: 6},
	{Kind: KindHolding, Start: 1050, Count: 7},
	{Kind: KindHolding, Start: 1100, Count: 5},
	{Kind: KindHolding, Start: 1106, Count: 2},
	{Kind: KindHolding, Start: 1200, Count: 20},
	{Kind: KindHolding, Start: 1300, Count: 20, CH2: true},
}

// ControlBlock is the password-protected system block carrying the
// circuit mask. The coordinator reads it before the rest of the plan
// each cycle to decide whether the CH2 blocks exist on this device.
var ControlBlock = Block{Kind: KindHolding, Start: 3001, Count: 10, Auth: true}
