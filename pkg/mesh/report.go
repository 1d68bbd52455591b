package mesh

import "encoding/binary"

// Report is a typed decoded view of an inbound frame's payload. The
// concrete types are TimeReport, AddressReport, DeviceInfoReport,
// GroupReport, OnlineStatusReport and UnrecognizedReport.
type Report interface {
	// ReportCommand returns the command code the report was decoded from.
	ReportCommand() Command
}

// TimeReport carries the device clock.
type TimeReport struct {
	Year    uint16
	Month   uint8
	Day     uint8
	Hour    uint8
	Minute  uint8
	Second  uint8
	Weekday uint8
}

// ReportCommand implements Report.
func (TimeReport) ReportCommand() Command { return CommandTimeReport }

// AddressReport carries the device's mesh address after an address edit
// (or in answer to a mesh-id query).
type AddressReport struct {
	Address MeshAddress
}

// ReportCommand implements Report.
func (AddressReport) ReportCommand() Command { return CommandAddressReport }

// InfoKind discriminates the two device-info report variants.
type InfoKind uint8

// Device-info report kinds, taken from the payload discriminator byte.
const (
	// InfoKindDevice marks a hardware/product information report.
	InfoKindDevice InfoKind = 0x00

	// InfoKindVersion marks a firmware version report.
	InfoKindVersion InfoKind = 0x02
)

// DeviceInfoReport carries firmware and hardware identifiers.
type DeviceInfoReport struct {
	Kind       InfoKind
	HardwareID uint16
	FirmwareID uint16
	Version    [4]byte

	// Raw preserves the full payload for consumers that know more about a
	// particular product line than the generic field split does.
	Raw [PayloadSize]byte
}

// ReportCommand implements Report.
func (DeviceInfoReport) ReportCommand() Command { return CommandDeviceInfoReport }

// GroupReport carries the set of group memberships currently assigned to
// the device.
type GroupReport struct {
	Groups []MeshAddress
}

// ReportCommand implements Report.
func (GroupReport) ReportCommand() Command { return CommandGroupIDReport }

// OnlineStatusReport carries liveness and state for a device sharing the
// mesh. The report is pushed unsolicited by the mesh; Raw keeps the whole
// payload for product lines that pack more than one device tuple into it.
type OnlineStatusReport struct {
	Address    MeshAddress
	Brightness uint8
	On         bool
	Raw        [PayloadSize]byte
}

// ReportCommand implements Report.
func (OnlineStatusReport) ReportCommand() Command { return CommandOnlineStatusReport }

// UnrecognizedReport carries traffic the dispatcher could not validate:
// unknown command codes, vendor mismatches, or frames addressed to another
// device on the shared link. It is a normal outcome, not an error, and
// keeps the raw bytes for diagnostics.
type UnrecognizedReport struct {
	Command byte
	Payload [PayloadSize]byte
}

// ReportCommand implements Report.
func (r UnrecognizedReport) ReportCommand() Command { return Command(r.Command) }

// Sink receives dispatched reports. Implementations customize report
// handling without touching the dispatcher; SinkFuncs adapts plain
// functions for callers that care about a subset of variants.
type Sink interface {
	HandleTime(TimeReport)
	HandleAddress(AddressReport)
	HandleDeviceInfo(DeviceInfoReport)
	HandleGroups(GroupReport)
	HandleOnlineStatus(OnlineStatusReport)
	HandleUnrecognized(UnrecognizedReport)
}

// SinkFuncs adapts optional functions to the Sink interface. Nil fields
// drop the corresponding reports.
type SinkFuncs struct {
	Time         func(TimeReport)
	Address      func(AddressReport)
	DeviceInfo   func(DeviceInfoReport)
	Groups       func(GroupReport)
	OnlineStatus func(OnlineStatusReport)
	Unrecognized func(UnrecognizedReport)
}

// HandleTime implements Sink.
func (s SinkFuncs) HandleTime(r TimeReport) {
	if s.Time != nil {
		s.Time(r)
	}
}

// HandleAddress implements Sink.
func (s SinkFuncs) HandleAddress(r AddressReport) {
	if s.Address != nil {
		s.Address(r)
	}
}

// HandleDeviceInfo implements Sink.
func (s SinkFuncs) HandleDeviceInfo(r DeviceInfoReport) {
	if s.DeviceInfo != nil {
		s.DeviceInfo(r)
	}
}

// HandleGroups implements Sink.
func (s SinkFuncs) HandleGroups(r GroupReport) {
	if s.Groups != nil {
		s.Groups(r)
	}
}

// HandleOnlineStatus implements Sink.
func (s SinkFuncs) HandleOnlineStatus(r OnlineStatusReport) {
	if s.OnlineStatus != nil {
		s.OnlineStatus(r)
	}
}

// HandleUnrecognized implements Sink.
func (s SinkFuncs) HandleUnrecognized(r UnrecognizedReport) {
	if s.Unrecognized != nil {
		s.Unrecognized(r)
	}
}

// Verify SinkFuncs implements Sink.
var _ Sink = SinkFuncs{}

// parseTimeReport decodes a time report payload:
// year[2 LE] month day hour minute second weekday.
func parseTimeReport(payload [PayloadSize]byte) TimeReport {
	return TimeReport{
		Year:    binary.LittleEndian.Uint16(payload[0:2]),
		Month:   payload[2],
		Day:     payload[3],
		Hour:    payload[4],
		Minute:  payload[5],
		Second:  payload[6],
		Weekday: payload[7],
	}
}

// parseAddressReport decodes an address report payload: address[2 LE].
func parseAddressReport(payload [PayloadSize]byte) AddressReport {
	return AddressReport{
		Address: MeshAddress(binary.LittleEndian.Uint16(payload[0:2])),
	}
}

// parseDeviceInfoReport decodes a device-info report payload:
// hardware id[2 LE] firmware id[2 LE] version[4] reserved[1] kind[1].
func parseDeviceInfoReport(payload [PayloadSize]byte) DeviceInfoReport {
	r := DeviceInfoReport{
		Kind:       InfoKind(payload[9]),
		HardwareID: binary.LittleEndian.Uint16(payload[0:2]),
		FirmwareID: binary.LittleEndian.Uint16(payload[2:4]),
		Raw:        payload,
	}
	copy(r.Version[:], payload[4:8])
	return r
}

// parseGroupReport decodes a group-id report payload: one byte per group
// slot, 0x00 and 0xFF marking empty slots, any other byte b meaning
// membership in group 0x8000|b.
func parseGroupReport(payload [PayloadSize]byte) GroupReport {
	var groups []MeshAddress
	for _, b := range payload {
		if b == 0x00 || b == 0xFF {
			continue
		}
		groups = append(groups, GroupAddress(b))
	}
	return GroupReport{Groups: groups}
}

// parseOnlineStatusReport decodes an online-status payload:
// device id[1] reserved[1] brightness[1] state[1] with the low state bit
// cleared while the device is on.
func parseOnlineStatusReport(payload [PayloadSize]byte) OnlineStatusReport {
	return OnlineStatusReport{
		Address:    MeshAddress(payload[0]),
		Brightness: payload[2],
		On:         payload[3]&0x01 == 0,
		Raw:        payload,
	}
}
