package mesh

import (
	"github.com/backkem/telink/pkg/crypto"
)

// Pairing constants.
const (
	// SessionKeySize is the session key size in bytes.
	SessionKeySize = 16

	// NonceSize is the pairing nonce size in bytes.
	NonceSize = 8

	// pairingRequestOpcode opens the nonce exchange on the pair endpoint.
	pairingRequestOpcode = 0x0C

	// PairingRequestSize is the pairing request size in bytes:
	// opcode (1) + local nonce (8) + encrypted credential half (8).
	PairingRequestSize = 1 + NonceSize + NonceSize

	// pairingResponseMin is the minimum pairing response length: opcode
	// byte followed by the remote 8-byte nonce.
	pairingResponseMin = 1 + NonceSize
)

// SessionKey is the 16-byte symmetric key derived once per connection and
// used for all frame encryption and decryption. It must never be logged
// or otherwise exposed, and is zeroized on disconnect.
type SessionKey [SessionKeySize]byte

// Zeroize clears the key material.
func (k *SessionKey) Zeroize() {
	for i := range k {
		k[i] = 0
	}
}

// CombineCredentials folds the device name and password into the fixed
// 16-byte credential buffer: both fields are zero-padded to 16 bytes and
// XORed together. The result doubles as key material during pairing.
// Oversized credentials are rejected, never truncated.
func CombineCredentials(name, password string) ([CredentialSize]byte, error) {
	var combined [CredentialSize]byte
	if len(name) > CredentialSize || len(password) > CredentialSize {
		return combined, ErrInvalidCredentials
	}
	var n, p [CredentialSize]byte
	copy(n[:], name)
	copy(p[:], password)
	for i := 0; i < CredentialSize; i++ {
		combined[i] = n[i] ^ p[i]
	}
	return combined, nil
}

// DeriveSessionKey derives the session key from the device credentials and
// the two 8-byte nonces exchanged during pairing. The concatenated nonces
// are encrypted with the combined credential buffer as key, through the
// same block primitive the frame codec uses.
//
// The derivation is deterministic and runs exactly once per connection,
// before any data frame is sent or accepted.
func DeriveSessionKey(name, password string, nonceLocal, nonceRemote []byte) (SessionKey, error) {
	var key SessionKey
	if len(nonceLocal) != NonceSize || len(nonceRemote) != NonceSize {
		return key, ErrPairingNonce
	}
	combined, err := CombineCredentials(name, password)
	if err != nil {
		return key, err
	}

	var block [crypto.BlockSize]byte
	copy(block[:NonceSize], nonceLocal)
	copy(block[NonceSize:], nonceRemote)

	derived, err := crypto.TransformBlock(combined[:], block[:])
	if err != nil {
		return key, err
	}
	copy(key[:], derived)
	return key, nil
}

// PairingRequest builds the packet written to the pair endpoint to open
// the nonce exchange: the request opcode, the local nonce, and the first
// half of the credential buffer encrypted with the zero-padded nonce as
// key. The device proves knowledge of the same credentials by accepting
// it and answering with its own nonce.
func PairingRequest(name, password string, nonceLocal []byte) ([]byte, error) {
	if len(nonceLocal) != NonceSize {
		return nil, ErrPairingNonce
	}
	combined, err := CombineCredentials(name, password)
	if err != nil {
		return nil, err
	}

	var nonceKey [crypto.KeySize]byte
	copy(nonceKey[:NonceSize], nonceLocal)

	enc, err := crypto.TransformBlock(nonceKey[:], combined[:])
	if err != nil {
		return nil, err
	}

	req := make([]byte, 0, PairingRequestSize)
	req = append(req, pairingRequestOpcode)
	req = append(req, nonceLocal...)
	req = append(req, enc[:NonceSize]...)
	return req, nil
}

// ParsePairingResponse extracts the remote nonce from a pairing response
// read back from the pair endpoint. The nonce occupies bytes 1..8, after
// the device's status opcode.
func ParsePairingResponse(resp []byte) ([]byte, error) {
	if len(resp) < pairingResponseMin {
		return nil, ErrPairingNonce
	}
	nonce := make([]byte, NonceSize)
	copy(nonce, resp[1:1+NonceSize])
	return nonce, nil
}
