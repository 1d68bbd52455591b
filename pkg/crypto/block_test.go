package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// TestTransformBlockKnownAnswer checks the transform against the FIPS-197
// Appendix C.1 AES-128 vector. Because the transform reverses key, input
// and output around the AES core, feeding it the reversed FIPS key and
// plaintext must yield the reversed FIPS ciphertext.
func TestTransformBlockKnownAnswer(t *testing.T) {
	// reverse(000102...0f), reverse(00112233...eeff), reverse(69c4e0d8...c55a)
	key := mustHex(t, "0f0e0d0c0b0a09080706050403020100")
	block := mustHex(t, "ffeeddccbbaa99887766554433221100")
	want := mustHex(t, "5ac5b47080b7cdd830047b6ad8e0c469")

	got, err := TransformBlock(key, block)
	if err != nil {
		t.Fatalf("TransformBlock() error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("TransformBlock() = %x, want %x", got, want)
	}
}

func TestTransformBlockDeterministic(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	block := bytes.Repeat([]byte{0x17}, BlockSize)

	first, err := TransformBlock(key, block)
	if err != nil {
		t.Fatalf("TransformBlock() error: %v", err)
	}
	second, err := TransformBlock(key, block)
	if err != nil {
		t.Fatalf("TransformBlock() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("transform not deterministic: %x != %x", first, second)
	}
	if len(first) != BlockSize {
		t.Errorf("output length = %d, want %d", len(first), BlockSize)
	}
	if bytes.Equal(first, block) {
		t.Error("transform returned its input unchanged")
	}
}

func TestTransformBlockKeySensitivity(t *testing.T) {
	block := make([]byte, BlockSize)
	keyA := make([]byte, KeySize)
	keyB := make([]byte, KeySize)
	keyB[0] = 0x01

	outA, err := TransformBlock(keyA, block)
	if err != nil {
		t.Fatalf("TransformBlock(keyA) error: %v", err)
	}
	outB, err := TransformBlock(keyB, block)
	if err != nil {
		t.Fatalf("TransformBlock(keyB) error: %v", err)
	}
	if bytes.Equal(outA, outB) {
		t.Error("different keys produced identical output")
	}
}

func TestTransformBlockLengthValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		block   []byte
		wantErr error
	}{
		{"short key", make([]byte, 15), make([]byte, 16), ErrInvalidKeySize},
		{"long key", make([]byte, 17), make([]byte, 16), ErrInvalidKeySize},
		{"nil key", nil, make([]byte, 16), ErrInvalidKeySize},
		{"short block", make([]byte, 16), make([]byte, 15), ErrInvalidBlockSize},
		{"long block", make([]byte, 16), make([]byte, 32), ErrInvalidBlockSize},
		{"nil block", make([]byte, 16), nil, ErrInvalidBlockSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TransformBlock(tc.key, tc.block)
			if err != tc.wantErr {
				t.Errorf("TransformBlock() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
