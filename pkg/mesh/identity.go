package mesh

import (
	"fmt"
	"strconv"
	"strings"
)

// Credential and address sizes.
const (
	// CredentialSize is the fixed width of the name and password fields.
	// Shorter values are zero-padded; longer values are rejected.
	CredentialSize = 16

	// AddressSize is the MAC address size in bytes.
	AddressSize = 6

	// DefaultVendor is the vendor byte carried in every frame.
	// It is the low byte of the Telink Bluetooth vendor code 0x0211.
	DefaultVendor byte = 0x11
)

// Identity holds the connection parameters of a target device. It is
// immutable once a session has been derived from it: replacing any field
// invalidates the derived session key, so callers create a fresh Identity
// (and re-pair) instead of mutating one in place.
type Identity struct {
	// Address is the device MAC address in transmission order.
	Address [AddressSize]byte

	// Name is the mesh network name, at most 16 bytes.
	Name string

	// Password is the mesh network password, at most 16 bytes.
	Password string

	// Vendor is the vendor byte placed in outgoing frames and checked on
	// inbound ones. Zero selects DefaultVendor.
	Vendor byte
}

// NewIdentity parses the canonical "AA:BB:CC:DD:EE:FF" address form and
// validates the credentials.
func NewIdentity(address, name, password string) (Identity, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{
		Address:  addr,
		Name:     name,
		Password: password,
		Vendor:   DefaultVendor,
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Validate checks the credential field widths. Oversized values are
// rejected rather than truncated: silent truncation would let two distinct
// credential pairs alias to the same key material.
func (id Identity) Validate() error {
	if len(id.Name) > CredentialSize || len(id.Password) > CredentialSize {
		return ErrInvalidCredentials
	}
	return nil
}

// VendorByte returns the effective vendor byte.
func (id Identity) VendorByte() byte {
	if id.Vendor == 0 {
		return DefaultVendor
	}
	return id.Vendor
}

// ReversedAddress returns the MAC address in wire (byte-reversed) order,
// as carried in the frame address field.
func (id Identity) ReversedAddress() [AddressSize]byte {
	var rev [AddressSize]byte
	for i := 0; i < AddressSize; i++ {
		rev[i] = id.Address[AddressSize-1-i]
	}
	return rev
}

// String returns the canonical address form. Credentials are deliberately
// omitted.
func (id Identity) String() string {
	return FormatAddress(id.Address)
}

// ParseAddress parses a MAC address in the canonical colon-separated form.
func ParseAddress(s string) ([AddressSize]byte, error) {
	var addr [AddressSize]byte
	parts := strings.Split(s, ":")
	if len(parts) != AddressSize {
		return addr, ErrInvalidAddress
	}
	for i, p := range parts {
		if len(p) != 2 {
			return addr, ErrInvalidAddress
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return addr, ErrInvalidAddress
		}
		addr[i] = byte(b)
	}
	return addr, nil
}

// FormatAddress renders a MAC address in the canonical colon-separated
// upper-case form.
func FormatAddress(addr [AddressSize]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}
