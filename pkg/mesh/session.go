package mesh

import (
	"encoding/binary"
	"sync"
	"time"
)

// Session holds the protocol state negotiated for one connection: the
// derived session key, the outgoing sequence counter, and the cached mesh
// address and group memberships of the device. All shared state sits
// behind a single mutex so the inbound dispatch path is safe to run
// concurrently with an in-flight outbound build.
//
// The high-level operations each construct a payload, build the frame and
// return its ciphertext for the external radio link to transmit. The
// protocol carries no request/response correlation beyond the advisory
// sequence counter: the matching report, if any, arrives later and
// asynchronously through the Dispatcher.
type Session struct {
	mu       sync.Mutex
	identity Identity
	codec    *Codec
	counter  *SequenceCounter

	// Cached device attributes, updated only through explicit Dispatcher
	// feedback on address/group/online-status reports.
	address MeshAddress
	groups  []MeshAddress
}

// NewSession creates a session around a freshly derived key. A new
// derivation treats the connection as new: the sequence counter restarts
// at 1.
func NewSession(identity Identity, key SessionKey) (*Session, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		identity: identity,
		codec:    NewCodec(key),
		counter:  NewSequenceCounter(),
	}, nil
}

// Identity returns the connection parameters the session was derived for.
func (s *Session) Identity() Identity {
	return s.identity
}

// Active reports whether the session still holds a usable key.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec != nil
}

// Sequence returns the value the next build will tag its frame with.
func (s *Session) Sequence() uint16 {
	return s.counter.Current()
}

// MeshID returns the last mesh address reported by the device, or zero if
// none has been seen yet.
func (s *Session) MeshID() MeshAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// Groups returns a copy of the last reported group memberships.
func (s *Session) Groups() []MeshAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groups == nil {
		return nil
	}
	out := make([]MeshAddress, len(s.groups))
	copy(out, s.groups)
	return out
}

// Build assembles and encrypts a command frame. The payload may be up to
// 10 bytes and is zero-padded to the full field width. The sequence
// counter advances by exactly one (mod 2^16) on every successful build,
// even if the subsequent transmission fails; it is never rolled back.
func (s *Session) Build(command Command, payload []byte) ([]byte, error) {
	if len(payload) > PayloadSize {
		return nil, ErrPayloadTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codec == nil {
		return nil, ErrNoSession
	}

	frame := Frame{
		Seq:     s.counter.Next(),
		Command: command,
		Vendor:  s.identity.VendorByte(),
		Address: s.identity.ReversedAddress(),
	}
	copy(frame.Payload[:], payload)

	return s.codec.Encrypt(frame.Encode())
}

// Decrypt turns inbound ciphertext into its cleartext frame. Forged or
// corrupted ciphertext decrypts without error; only length is checked
// here, field validity is the Dispatcher's job.
func (s *Session) Decrypt(ciphertext []byte) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codec == nil {
		return Frame{}, ErrNoSession
	}
	clear, err := s.codec.Decrypt(ciphertext)
	if err != nil {
		return Frame{}, err
	}
	return DecodeFrame(clear)
}

// Close zeroizes the session key. Subsequent builds and decrypts fail
// with ErrNoSession.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codec != nil {
		s.codec.key.Zeroize()
		s.codec = nil
	}
}

// QueryTime asks the device for its clock; the answer arrives as a
// TimeReport.
func (s *Session) QueryTime() ([]byte, error) {
	return s.Build(CommandTimeQuery, []byte{0x10})
}

// SetTime sets the device clock.
func (s *Session) SetTime(t time.Time) ([]byte, error) {
	year := t.Year()
	payload := []byte{
		byte(year & 0xFF),
		byte(year >> 8),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
	}
	return s.Build(CommandTimeSet, payload)
}

// QueryDeviceInfo asks for hardware/product information; the answer
// arrives as a DeviceInfoReport with InfoKindDevice.
func (s *Session) QueryDeviceInfo() ([]byte, error) {
	return s.Build(CommandDeviceInfoQuery, []byte{0x10})
}

// QueryDeviceVersion asks for the firmware version; the answer arrives as
// a DeviceInfoReport with InfoKindVersion.
func (s *Session) QueryDeviceVersion() ([]byte, error) {
	return s.Build(CommandDeviceInfoQuery, []byte{0x10, 0x02})
}

// QueryMeshID asks the device to report its mesh address. The address-edit
// command with the 0xFFFF marker is a query, not an edit.
func (s *Session) QueryMeshID() ([]byte, error) {
	return s.Build(CommandAddressEdit, []byte{0xFF, 0xFF})
}

// SetMeshID assigns the device's individual mesh address. The resulting
// address comes back as an AddressReport; the cached value updates only
// when that report is dispatched.
func (s *Session) SetMeshID(address MeshAddress) ([]byte, error) {
	if !address.IsDevice() {
		return nil, ErrInvalidMeshAddress
	}
	return s.Build(CommandAddressEdit, leAddress(address))
}

// AddGroup adds the device to a group address.
func (s *Session) AddGroup(group MeshAddress) ([]byte, error) {
	if !group.IsGroup() {
		return nil, ErrInvalidMeshAddress
	}
	return s.Build(CommandGroupEdit, append([]byte{0x01}, leAddress(group)...))
}

// DeleteGroup removes the device from a group address.
func (s *Session) DeleteGroup(group MeshAddress) ([]byte, error) {
	if !group.IsGroup() {
		return nil, ErrInvalidMeshAddress
	}
	return s.Build(CommandGroupEdit, append([]byte{0x00}, leAddress(group)...))
}

// QueryGroups asks for the device's group memberships; the answer arrives
// as a GroupReport.
func (s *Session) QueryGroups() ([]byte, error) {
	return s.Build(CommandGroupIDQuery, []byte{0x0A, 0x01})
}

// Reset restores the device's factory state, dropping its pairing.
func (s *Session) Reset() ([]byte, error) {
	return s.Build(CommandReset, nil)
}

// QueryOTAState asks for the device's firmware-update state; the answer
// arrives as an OTA status report, surfaced as UnrecognizedReport since
// OTA payload formats are outside this package's registry of parsed
// reports.
func (s *Session) QueryOTAState() ([]byte, error) {
	return s.Build(CommandOTAStateQuery, nil)
}

// noteAddress records the mesh address from a dispatched AddressReport.
func (s *Session) noteAddress(address MeshAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
}

// adoptAddress records an address from an online-status report, but only
// while no address is cached yet.
func (s *Session) adoptAddress(address MeshAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == 0 {
		s.address = address
	}
}

// noteGroups records group memberships from a dispatched GroupReport.
func (s *Session) noteGroups(groups []MeshAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make([]MeshAddress, len(groups))
	copy(s.groups, groups)
}

// leAddress encodes a mesh address in the little-endian wire order.
func leAddress(a MeshAddress) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(a))
	return buf
}
