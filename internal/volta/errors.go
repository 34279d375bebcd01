package volta

import "errors"

// Error taxonomy for the boiler pipeline. Callers wrap these with
// fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	// ErrConnection means the transport is unreachable or dropped underneath us.
	ErrConnection = errors.New("connection error")

	// ErrAuth means the device rejected the system password or the login timed out.
	ErrAuth = errors.New("authentication failed")

	// ErrModbus means a protocol-level failure: exception response, timeout,
	// malformed payload.
	ErrModbus = errors.New("modbus protocol error")

	// ErrValidation means a value falls outside the documented register range.
	// Raised before any network call.
	ErrValidation = errors.New("value out of range")
)
