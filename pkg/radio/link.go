// Package radio defines the point-to-point radio link contract the
// protocol engine sits on top of. Discovery, connection establishment and
// the bytes-on-the-wire primitive belong to Link implementations (a BLE
// GATT adapter on real hardware); the in-memory Pipe implementation in
// this package serves tests and demos.
package radio

import "context"

// Endpoint identifies one of the peer's logical communication endpoints.
type Endpoint uint8

// The three logical endpoints every device exposes.
const (
	// EndpointNotify delivers asynchronous inbound frames (subscribed).
	EndpointNotify Endpoint = iota

	// EndpointCommand accepts outbound command frames (written).
	EndpointCommand

	// EndpointPair carries the pairing nonce exchange (bidirectional,
	// used only during key derivation).
	EndpointPair
)

// GATT identifiers of the device information service and its
// characteristics, for Link implementations backed by real BLE hardware.
const (
	UUIDInfoService      = "00010203-0405-0607-0809-0a0b0c0d1910"
	UUIDNotificationChar = "00010203-0405-0607-0809-0a0b0c0d1911"
	UUIDCommandChar      = "00010203-0405-0607-0809-0a0b0c0d1912"
	UUIDPairChar         = "00010203-0405-0607-0809-0a0b0c0d1914"
)

// NotifyFunc receives an inbound notification's raw bytes. It may be
// invoked concurrently with outbound writes; implementations must not
// retain the slice.
type NotifyFunc func(data []byte)

// Link is the transport collaborator contract. Blocking, cancellation,
// timeout and retry semantics all live behind this interface; the
// protocol engine never blocks on I/O itself. Transport failures are this
// package's error domain and are distinct from protocol errors.
type Link interface {
	// Connect establishes the link to the peer.
	Connect(ctx context.Context) error

	// Disconnect releases the link. Safe to call more than once.
	Disconnect() error

	// Write sends raw bytes to an endpoint.
	Write(endpoint Endpoint, data []byte) error

	// Read reads the endpoint's current value. Used on the pair endpoint
	// during key derivation.
	Read(ctx context.Context, endpoint Endpoint) ([]byte, error)

	// Subscribe registers a callback for an endpoint's notifications.
	Subscribe(endpoint Endpoint, fn NotifyFunc) error
}
