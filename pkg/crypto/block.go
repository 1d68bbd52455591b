// Telink mesh block primitive.
// The protocol's "encryption" is AES-128-ECB applied to byte-reversed
// buffers: the key, the input block and the resulting block are all
// reversed around the AES core. Every other cryptographic operation in the
// protocol (session key derivation, pairing credential encryption, frame
// keystream generation) is built from this one transform. The reversal
// convention was captured from the device firmware and must be reproduced
// bit-for-bit for interoperability.

package crypto

import (
	"crypto/aes"
	"errors"
)

// Block primitive sizes.
const (
	// KeySize is the transform key size in bytes (AES-128).
	KeySize = 16

	// BlockSize is the transform block size in bytes.
	BlockSize = 16
)

// Errors for the block transform.
var (
	ErrInvalidKeySize   = errors.New("crypto: invalid key size, must be 16 bytes")
	ErrInvalidBlockSize = errors.New("crypto: invalid block size, must be 16 bytes")
)

// TransformBlock encrypts a single 16-byte block with a 16-byte key using
// the reversed AES-128-ECB convention. It is a pure function of its inputs;
// the protocol never uses the AES decryption direction.
func TransformBlock(key, block []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if len(block) != BlockSize {
		return nil, ErrInvalidBlockSize
	}

	var k, in [BlockSize]byte
	reverseInto(k[:], key)
	reverseInto(in[:], block)

	cipher, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, err
	}

	var enc [BlockSize]byte
	cipher.Encrypt(enc[:], in[:])

	out := make([]byte, BlockSize)
	reverseInto(out, enc[:])
	return out, nil
}

// reverseInto writes src into dst in reverse byte order.
// dst and src must have the same length and must not overlap.
func reverseInto(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}
