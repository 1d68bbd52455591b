package mesh

import (
	"github.com/backkem/telink/pkg/crypto"
)

// Codec encrypts and decrypts fixed 20-byte frames with a session key.
//
// The transform keeps the 4-byte frame header (sequence, command, vendor)
// as keystream nonce material and XORs the remaining 16 bytes with a
// keystream block derived from it:
//
//	keystream = TransformBlock(key, 0x00 || header[0:4] || 0x01 || zeros)
//	ciphertext[4:20] = cleartext[4:20] XOR keystream
//
// Both directions are total functions of well-formed inputs. The protocol
// carries no integrity tag, so decryption never fails on forged or
// corrupted ciphertext; validity is established afterwards by the
// Dispatcher's field checks. That weakness is part of the wire protocol
// and is preserved here.
type Codec struct {
	key SessionKey
}

// NewCodec creates a codec bound to a session key.
func NewCodec(key SessionKey) *Codec {
	return &Codec{key: key}
}

// Encrypt turns a 20-byte cleartext frame into its ciphertext form.
func (c *Codec) Encrypt(cleartext []byte) ([]byte, error) {
	return c.apply(cleartext)
}

// Decrypt turns a 20-byte ciphertext frame back into cleartext. It is the
// exact inverse of Encrypt under the same key.
func (c *Codec) Decrypt(ciphertext []byte) ([]byte, error) {
	return c.apply(ciphertext)
}

// apply XORs the frame body with the header-derived keystream. The
// transform is an involution: applying it twice restores the input.
func (c *Codec) apply(frame []byte) ([]byte, error) {
	if len(frame) != FrameSize {
		return nil, ErrInvalidFrameLength
	}

	var nonce [crypto.BlockSize]byte
	nonce[0] = 0x00
	copy(nonce[1:1+frameHeaderSize], frame[:frameHeaderSize])
	nonce[1+frameHeaderSize] = 0x01

	keystream, err := crypto.TransformBlock(c.key[:], nonce[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, FrameSize)
	copy(out, frame[:frameHeaderSize])
	for i := frameHeaderSize; i < FrameSize; i++ {
		out[i] = frame[i] ^ keystream[i-frameHeaderSize]
	}
	return out, nil
}
