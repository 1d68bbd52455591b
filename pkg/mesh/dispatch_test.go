package mesh

import (
	"reflect"
	"testing"
)

// recordingSink captures every dispatched report in order.
type recordingSink struct {
	reports []Report
}

func (s *recordingSink) HandleTime(r TimeReport)                 { s.reports = append(s.reports, r) }
func (s *recordingSink) HandleAddress(r AddressReport)           { s.reports = append(s.reports, r) }
func (s *recordingSink) HandleDeviceInfo(r DeviceInfoReport)     { s.reports = append(s.reports, r) }
func (s *recordingSink) HandleGroups(r GroupReport)              { s.reports = append(s.reports, r) }
func (s *recordingSink) HandleOnlineStatus(r OnlineStatusReport) { s.reports = append(s.reports, r) }
func (s *recordingSink) HandleUnrecognized(r UnrecognizedReport) { s.reports = append(s.reports, r) }

// deviceFrame encrypts a frame the way the device side would, addressed to
// the session's own reversed address.
func deviceFrame(t *testing.T, s *Session, command Command, payload []byte) []byte {
	t.Helper()
	frame := Frame{
		Seq:     9,
		Command: command,
		Vendor:  s.identity.VendorByte(),
		Address: s.identity.ReversedAddress(),
	}
	copy(frame.Payload[:], payload)
	ciphertext, err := NewCodec(testKey(0x77)).Encrypt(frame.Encode())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	return ciphertext
}

func TestDispatchRoutesReports(t *testing.T) {
	tests := []struct {
		name    string
		command Command
		payload []byte
		want    Report
	}{
		{
			name:    "time report",
			command: CommandTimeReport,
			payload: []byte{0xE8, 0x07, 3, 7, 13, 45, 59, 4},
			want: TimeReport{
				Year: 2024, Month: 3, Day: 7,
				Hour: 13, Minute: 45, Second: 59, Weekday: 4,
			},
		},
		{
			name:    "address report",
			command: CommandAddressReport,
			payload: []byte{0x42, 0x00},
			want:    AddressReport{Address: 0x0042},
		},
		{
			name:    "device info report",
			command: CommandDeviceInfoReport,
			payload: []byte{0x34, 0x12, 0x78, 0x56, 1, 2, 3, 4, 0, 0x02},
			want: DeviceInfoReport{
				Kind:       InfoKindVersion,
				HardwareID: 0x1234,
				FirmwareID: 0x5678,
				Version:    [4]byte{1, 2, 3, 4},
				Raw:        [PayloadSize]byte{0x34, 0x12, 0x78, 0x56, 1, 2, 3, 4, 0, 0x02},
			},
		},
		{
			name:    "group report",
			command: CommandGroupIDReport,
			payload: []byte{0x01, 0x00, 0x05, 0xFF, 0x10},
			want:    GroupReport{Groups: []MeshAddress{0x8001, 0x8005, 0x8010}},
		},
		{
			name:    "online status report",
			command: CommandOnlineStatusReport,
			payload: []byte{0x42, 0x00, 0x64, 0x00},
			want: OnlineStatusReport{
				Address: 0x0042, Brightness: 0x64, On: true,
				Raw: [PayloadSize]byte{0x42, 0x00, 0x64, 0x00},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testSession(t)
			sink := &recordingSink{}
			d := NewDispatcher(s, sink, nil)

			report, err := d.Inbound(deviceFrame(t, s, tc.command, tc.payload))
			if err != nil {
				t.Fatalf("Inbound() error: %v", err)
			}
			if !reflect.DeepEqual(report, tc.want) {
				t.Errorf("report = %+v, want %+v", report, tc.want)
			}
			if len(sink.reports) != 1 || !reflect.DeepEqual(sink.reports[0], tc.want) {
				t.Errorf("sink received %+v, want exactly %+v", sink.reports, tc.want)
			}
		})
	}
}

// TestDispatchUnknownCommand feeds a frame whose command byte is not in
// the registry. It must come back as UnrecognizedReport without error.
func TestDispatchUnknownCommand(t *testing.T) {
	s := testSession(t)
	sink := &recordingSink{}
	d := NewDispatcher(s, sink, nil)

	report, err := d.Inbound(deviceFrame(t, s, Command(0x00), []byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	un, ok := report.(UnrecognizedReport)
	if !ok {
		t.Fatalf("report type = %T, want UnrecognizedReport", report)
	}
	if un.Command != 0x00 {
		t.Errorf("Command = 0x%02X, want 0x00", un.Command)
	}
	want := [PayloadSize]byte{1, 2, 3}
	if un.Payload != want {
		t.Errorf("Payload = % x, want % x", un.Payload, want)
	}
	if len(sink.reports) != 1 {
		t.Errorf("sink received %d reports, want 1", len(sink.reports))
	}
}

func TestDispatchRejectsForeignTraffic(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Frame)
	}{
		{
			name:   "vendor mismatch",
			mutate: func(f *Frame) { f.Vendor = 0x99 },
		},
		{
			name: "foreign address",
			mutate: func(f *Frame) {
				f.Address = [AddressSize]byte{1, 1, 1, 1, 1, 1}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testSession(t)
			d := NewDispatcher(s, nil, nil)

			frame := Frame{
				Seq:     3,
				Command: CommandTimeReport,
				Vendor:  s.identity.VendorByte(),
				Address: s.identity.ReversedAddress(),
			}
			tc.mutate(&frame)
			ciphertext, err := NewCodec(testKey(0x77)).Encrypt(frame.Encode())
			if err != nil {
				t.Fatalf("Encrypt() error: %v", err)
			}

			report, err := d.Inbound(ciphertext)
			if err != nil {
				t.Fatalf("Inbound() error: %v", err)
			}
			if _, ok := report.(UnrecognizedReport); !ok {
				t.Errorf("report type = %T, want UnrecognizedReport", report)
			}
		})
	}
}

// TestDispatchAcceptsBroadcast checks an all-zero address field routes
// like device-addressed traffic.
func TestDispatchAcceptsBroadcast(t *testing.T) {
	s := testSession(t)
	d := NewDispatcher(s, nil, nil)

	frame := Frame{
		Seq:     5,
		Command: CommandOnlineStatusReport,
		Vendor:  s.identity.VendorByte(),
		Payload: [PayloadSize]byte{0x07, 0x00, 0x32, 0x01},
	}
	ciphertext, err := NewCodec(testKey(0x77)).Encrypt(frame.Encode())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	report, err := d.Inbound(ciphertext)
	if err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	status, ok := report.(OnlineStatusReport)
	if !ok {
		t.Fatalf("report type = %T, want OnlineStatusReport", report)
	}
	if status.On {
		t.Error("low state bit set means off")
	}
}

// TestDispatchSessionFeedback verifies the three explicit cache updates:
// address reports overwrite the cached mesh id, online status only adopts
// it while unset, and group reports replace the membership set.
func TestDispatchSessionFeedback(t *testing.T) {
	s := testSession(t)
	d := NewDispatcher(s, nil, nil)

	// Online status adopts the address while none is cached.
	if _, err := d.Inbound(deviceFrame(t, s, CommandOnlineStatusReport, []byte{0x07, 0, 0x10, 0})); err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	if s.MeshID() != 0x0007 {
		t.Fatalf("MeshID() = 0x%04X, want 0x0007", uint16(s.MeshID()))
	}

	// An address report overwrites it.
	if _, err := d.Inbound(deviceFrame(t, s, CommandAddressReport, []byte{0x42, 0x00})); err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	if s.MeshID() != 0x0042 {
		t.Fatalf("MeshID() = 0x%04X, want 0x0042", uint16(s.MeshID()))
	}

	// A later online status must not displace the reported address.
	if _, err := d.Inbound(deviceFrame(t, s, CommandOnlineStatusReport, []byte{0x09, 0, 0x10, 0})); err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	if s.MeshID() != 0x0042 {
		t.Errorf("online status displaced reported address: 0x%04X", uint16(s.MeshID()))
	}

	// Group reports replace the cached membership set.
	if _, err := d.Inbound(deviceFrame(t, s, CommandGroupIDReport, []byte{0x01, 0x02})); err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	groups := s.Groups()
	want := []MeshAddress{0x8001, 0x8002}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Groups() = %v, want %v", groups, want)
	}
}

// TestDispatchRegisteredQueryEcho covers an echoed query command: it is in
// the registry but has no typed parser, so it surfaces raw.
func TestDispatchRegisteredQueryEcho(t *testing.T) {
	s := testSession(t)
	d := NewDispatcher(s, nil, nil)

	report, err := d.Inbound(deviceFrame(t, s, CommandTimeQuery, []byte{0x10}))
	if err != nil {
		t.Fatalf("Inbound() error: %v", err)
	}
	un, ok := report.(UnrecognizedReport)
	if !ok {
		t.Fatalf("report type = %T, want UnrecognizedReport", report)
	}
	if Command(un.Command) != CommandTimeQuery {
		t.Errorf("Command = 0x%02X, want 0x%02X", un.Command, byte(CommandTimeQuery))
	}
}

func TestDispatchLengthError(t *testing.T) {
	s := testSession(t)
	d := NewDispatcher(s, nil, nil)

	if _, err := d.Inbound(make([]byte, 5)); err != ErrInvalidFrameLength {
		t.Errorf("Inbound(short) error = %v, want %v", err, ErrInvalidFrameLength)
	}
}
