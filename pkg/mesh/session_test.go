package mesh

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func testSession(t *testing.T) *Session {
	t.Helper()
	identity, err := NewIdentity("AA:BB:CC:DD:EE:FF", "Device1", "pass1234")
	if err != nil {
		t.Fatalf("NewIdentity() error: %v", err)
	}
	session, err := NewSession(identity, testKey(0x77))
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	return session
}

func decryptFrame(t *testing.T, s *Session, ciphertext []byte) Frame {
	t.Helper()
	frame, err := s.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	return frame
}

// TestBuildTimeQuery builds a time query and decrypts it again, checking
// every cleartext field survives the codec.
func TestBuildTimeQuery(t *testing.T) {
	s := testSession(t)

	ciphertext, err := s.Build(CommandTimeQuery, nil)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(ciphertext) != FrameSize {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), FrameSize)
	}

	frame := decryptFrame(t, s, ciphertext)
	if frame.Seq != 1 {
		t.Errorf("Seq = %d, want 1", frame.Seq)
	}
	if frame.Command != CommandTimeQuery {
		t.Errorf("Command = %v, want %v", frame.Command, CommandTimeQuery)
	}
	wantAddr := [AddressSize]byte{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA}
	if frame.Address != wantAddr {
		t.Errorf("Address = % x, want % x", frame.Address, wantAddr)
	}
	if frame.Payload != ([PayloadSize]byte{}) {
		t.Errorf("empty payload must be all zeros, got % x", frame.Payload)
	}
}

func TestBuildIncrementsSequence(t *testing.T) {
	s := testSession(t)

	for want := uint16(1); want <= 5; want++ {
		ciphertext, err := s.Build(CommandTimeQuery, nil)
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		frame := decryptFrame(t, s, ciphertext)
		if frame.Seq != want {
			t.Fatalf("Seq = %d, want %d", frame.Seq, want)
		}
	}
	if s.Sequence() != 6 {
		t.Errorf("next sequence = %d, want 6", s.Sequence())
	}
}

// TestSequenceWraparound checks the exact 16-bit boundary: 65535 is
// followed by 0.
func TestSequenceWraparound(t *testing.T) {
	s := testSession(t)
	s.counter = NewSequenceCounterWithValue(65535)

	frame := decryptFrame(t, s, mustBuild(t, s, CommandTimeQuery, nil))
	if frame.Seq != 65535 {
		t.Fatalf("Seq = %d, want 65535", frame.Seq)
	}
	frame = decryptFrame(t, s, mustBuild(t, s, CommandTimeQuery, nil))
	if frame.Seq != 0 {
		t.Fatalf("Seq after wrap = %d, want 0", frame.Seq)
	}
}

func mustBuild(t *testing.T, s *Session, c Command, payload []byte) []byte {
	t.Helper()
	ciphertext, err := s.Build(c, payload)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return ciphertext
}

func TestBuildPayloadBounds(t *testing.T) {
	s := testSession(t)

	// Exactly 10 bytes succeeds.
	full := bytes.Repeat([]byte{0xAB}, PayloadSize)
	frame := decryptFrame(t, s, mustBuild(t, s, CommandGroupEdit, full))
	if !bytes.Equal(frame.Payload[:], full) {
		t.Errorf("payload = % x, want % x", frame.Payload, full)
	}

	// 11 bytes fails and must not consume a sequence value.
	before := s.Sequence()
	if _, err := s.Build(CommandGroupEdit, make([]byte, PayloadSize+1)); err != ErrPayloadTooLarge {
		t.Errorf("Build(11 bytes) error = %v, want %v", err, ErrPayloadTooLarge)
	}
	if s.Sequence() != before {
		t.Errorf("failed build advanced the sequence counter")
	}

	// Short payload is zero-padded.
	frame = decryptFrame(t, s, mustBuild(t, s, CommandTimeQuery, []byte{0x10}))
	want := [PayloadSize]byte{0x10}
	if frame.Payload != want {
		t.Errorf("payload = % x, want % x", frame.Payload, want)
	}
}

func TestClosedSessionRefusesTraffic(t *testing.T) {
	s := testSession(t)
	s.Close()

	if _, err := s.Build(CommandTimeQuery, nil); err != ErrNoSession {
		t.Errorf("Build() error = %v, want %v", err, ErrNoSession)
	}
	if _, err := s.Decrypt(make([]byte, FrameSize)); err != ErrNoSession {
		t.Errorf("Decrypt() error = %v, want %v", err, ErrNoSession)
	}
	if s.Active() {
		t.Error("closed session reports active")
	}
	// Close is idempotent.
	s.Close()
}

func TestOperationPayloads(t *testing.T) {
	tests := []struct {
		name        string
		op          func(s *Session) ([]byte, error)
		wantCommand Command
		wantPayload []byte
	}{
		{"query time", (*Session).QueryTime, CommandTimeQuery, []byte{0x10}},
		{"query device info", (*Session).QueryDeviceInfo, CommandDeviceInfoQuery, []byte{0x10}},
		{"query device version", (*Session).QueryDeviceVersion, CommandDeviceInfoQuery, []byte{0x10, 0x02}},
		{"query mesh id", (*Session).QueryMeshID, CommandAddressEdit, []byte{0xFF, 0xFF}},
		{"query groups", (*Session).QueryGroups, CommandGroupIDQuery, []byte{0x0A, 0x01}},
		{"reset", (*Session).Reset, CommandReset, nil},
		{"query ota state", (*Session).QueryOTAState, CommandOTAStateQuery, nil},
		{
			"set mesh id",
			func(s *Session) ([]byte, error) { return s.SetMeshID(0x42) },
			CommandAddressEdit, []byte{0x42, 0x00},
		},
		{
			"add group",
			func(s *Session) ([]byte, error) { return s.AddGroup(GroupAddress(5)) },
			CommandGroupEdit, []byte{0x01, 0x05, 0x80},
		},
		{
			"delete group",
			func(s *Session) ([]byte, error) { return s.DeleteGroup(GroupAddress(5)) },
			CommandGroupEdit, []byte{0x00, 0x05, 0x80},
		},
		{
			"set time",
			func(s *Session) ([]byte, error) {
				return s.SetTime(time.Date(2024, time.March, 7, 13, 45, 59, 0, time.UTC))
			},
			CommandTimeSet, []byte{0xE8, 0x07, 3, 7, 13, 45, 59},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testSession(t)
			ciphertext, err := tc.op(s)
			if err != nil {
				t.Fatalf("operation error: %v", err)
			}
			frame := decryptFrame(t, s, ciphertext)
			if frame.Command != tc.wantCommand {
				t.Errorf("Command = %v, want %v", frame.Command, tc.wantCommand)
			}
			var want [PayloadSize]byte
			copy(want[:], tc.wantPayload)
			if frame.Payload != want {
				t.Errorf("Payload = % x, want % x", frame.Payload, want)
			}
		})
	}
}

func TestAddressValidation(t *testing.T) {
	s := testSession(t)

	if _, err := s.SetMeshID(0); err != ErrInvalidMeshAddress {
		t.Errorf("SetMeshID(0) error = %v, want %v", err, ErrInvalidMeshAddress)
	}
	if _, err := s.SetMeshID(0x8001); err != ErrInvalidMeshAddress {
		t.Errorf("SetMeshID(group) error = %v, want %v", err, ErrInvalidMeshAddress)
	}
	if _, err := s.AddGroup(5); err != ErrInvalidMeshAddress {
		t.Errorf("AddGroup(device addr) error = %v, want %v", err, ErrInvalidMeshAddress)
	}
	if _, err := s.DeleteGroup(0x8100); err != ErrInvalidMeshAddress {
		t.Errorf("DeleteGroup(out of range) error = %v, want %v", err, ErrInvalidMeshAddress)
	}
}

// TestConcurrentBuildAndDecrypt exercises the session mutex: outbound
// builds racing the inbound decrypt path must neither corrupt state nor
// skip sequence values.
func TestConcurrentBuildAndDecrypt(t *testing.T) {
	s := testSession(t)
	inbound := mustBuild(t, testSession(t), CommandTimeReport, nil)

	const builders = 8
	const perBuilder = 100

	var wg sync.WaitGroup
	for i := 0; i < builders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perBuilder; j++ {
				if _, err := s.Build(CommandTimeQuery, nil); err != nil {
					t.Errorf("Build() error: %v", err)
					return
				}
				if _, err := s.Decrypt(inbound); err != nil {
					t.Errorf("Decrypt() error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	want := uint16(1 + builders*perBuilder)
	if s.Sequence() != want {
		t.Errorf("sequence = %d, want %d", s.Sequence(), want)
	}
}
