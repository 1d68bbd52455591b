package mesh

import "encoding/binary"

// Frame layout. Every protocol unit is exactly 20 bytes:
//
//	offset 0..1   sequence counter (little-endian)
//	offset 2      command code
//	offset 3      vendor byte
//	offset 4..9   target device address, byte-reversed
//	offset 10..19 command payload, zero-padded
//
// The same layout describes both directions; the ciphertext form is the
// opaque 20 bytes produced by the Codec. Frames are transient: built,
// transmitted or received, then discarded.
const (
	// FrameSize is the fixed frame size in bytes.
	FrameSize = 20

	// PayloadSize is the command payload field size in bytes.
	PayloadSize = 10

	frameSeqOffset     = 0
	frameCommandOffset = 2
	frameVendorOffset  = 3
	frameAddressOffset = 4
	framePayloadOffset = 10

	// frameHeaderSize is the portion used as keystream nonce material.
	frameHeaderSize = 4
)

// Frame is the structured cleartext view of a protocol unit.
type Frame struct {
	// Seq is the sequence counter value tagging this frame.
	Seq uint16

	// Command is the command code.
	Command Command

	// Vendor is the vendor byte.
	Vendor byte

	// Address is the target device address in wire (reversed) order.
	Address [AddressSize]byte

	// Payload is the command payload, zero-padded to its full width.
	Payload [PayloadSize]byte
}

// Encode renders the frame into its 20-byte cleartext form.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameSize)
	binary.LittleEndian.PutUint16(buf[frameSeqOffset:], f.Seq)
	buf[frameCommandOffset] = byte(f.Command)
	buf[frameVendorOffset] = f.Vendor
	copy(buf[frameAddressOffset:], f.Address[:])
	copy(buf[framePayloadOffset:], f.Payload[:])
	return buf
}

// DecodeFrame parses a 20-byte cleartext buffer into its structured form.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if len(data) != FrameSize {
		return f, ErrInvalidFrameLength
	}
	f.Seq = binary.LittleEndian.Uint16(data[frameSeqOffset:])
	f.Command = Command(data[frameCommandOffset])
	f.Vendor = data[frameVendorOffset]
	copy(f.Address[:], data[frameAddressOffset:framePayloadOffset])
	copy(f.Payload[:], data[framePayloadOffset:])
	return f, nil
}

// IsBroadcastAddress reports whether the frame's address field is the
// all-zero broadcast marker, which targets whoever holds the connection.
func (f *Frame) IsBroadcastAddress() bool {
	return f.Address == [AddressSize]byte{}
}
