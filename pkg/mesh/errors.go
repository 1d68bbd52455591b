package mesh

import "errors"

// Protocol engine errors. All of these are local precondition violations,
// surfaced synchronously to the caller of the failing operation. A failed
// operation never corrupts the session key or the sequence counter.
var (
	// ErrInvalidCredentials is returned when the device name or password
	// exceeds the fixed 16-byte credential field width.
	ErrInvalidCredentials = errors.New("mesh: name or password exceeds 16 bytes")

	// ErrPairingNonce is returned when a pairing nonce is not exactly
	// 8 bytes, or a pairing response is too short to carry one.
	ErrPairingNonce = errors.New("mesh: pairing nonce must be 8 bytes")

	// ErrInvalidFrameLength is returned by the frame codec for inputs that
	// are not exactly 20 bytes.
	ErrInvalidFrameLength = errors.New("mesh: frame must be 20 bytes")

	// ErrPayloadTooLarge is returned when a command payload exceeds the
	// 10-byte frame payload field.
	ErrPayloadTooLarge = errors.New("mesh: command payload exceeds 10 bytes")

	// ErrNoSession is returned when an operation requires a derived
	// session key and none is present (before pairing or after Close).
	ErrNoSession = errors.New("mesh: no active session key")

	// ErrInvalidAddress is returned when a MAC address string is not in
	// the canonical AA:BB:CC:DD:EE:FF form.
	ErrInvalidAddress = errors.New("mesh: invalid device address")

	// ErrInvalidMeshAddress is returned when a mesh address is outside the
	// device range [1,254] or the group range [0x8000,0x80FF].
	ErrInvalidMeshAddress = errors.New("mesh: mesh address out of range")
)
