package mesh

import (
	"github.com/pion/logging"
)

// Dispatcher validates decrypted inbound frames and routes them to the
// typed report parsers. Apart from the documented feedback into the
// Session's cached attributes (mesh address, group memberships), each
// invocation is a stateless mapping from ciphertext to Report.
type Dispatcher struct {
	session *Session
	sink    Sink
	log     logging.LeveledLogger
}

// NewDispatcher creates a dispatcher for a session. The sink receives
// every dispatched report; a nil sink only updates the session cache.
// The logger factory may be nil, which selects the default factory.
func NewDispatcher(session *Session, sink Sink, loggerFactory logging.LoggerFactory) *Dispatcher {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Dispatcher{
		session: session,
		sink:    sink,
		log:     loggerFactory.NewLogger("mesh"),
	}
}

// Inbound decrypts a received 20-byte ciphertext frame, validates it and
// routes it to the matching report parser.
//
// Validity means: a registered command byte, the session's vendor byte,
// and an address field equal to the device's reversed address or the
// broadcast marker. Anything else — echoes of this client's own traffic,
// frames for unrelated devices sharing the link, forged ciphertext that
// decrypted to garbage — comes back as UnrecognizedReport. Unexpected
// traffic is normal on a broadcast-style link and never aborts
// processing; the only errors are length and missing-session
// preconditions.
func (d *Dispatcher) Inbound(ciphertext []byte) (Report, error) {
	frame, err := d.session.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}

	if !d.valid(&frame) {
		report := UnrecognizedReport{
			Command: byte(frame.Command),
			Payload: frame.Payload,
		}
		d.log.Tracef("unrecognized frame: command=0x%02X seq=%d", report.Command, frame.Seq)
		d.deliverUnrecognized(report)
		return report, nil
	}

	return d.route(&frame), nil
}

// valid applies the field-level sanity checks that stand in for the
// integrity tag this protocol does not have.
func (d *Dispatcher) valid(frame *Frame) bool {
	if !frame.Command.Registered() {
		return false
	}
	if frame.Vendor != d.session.identity.VendorByte() {
		return false
	}
	if frame.IsBroadcastAddress() {
		return true
	}
	return frame.Address == d.session.identity.ReversedAddress()
}

// route maps a validated frame to its typed report, applies the session
// cache feedback, and hands the report to the sink.
func (d *Dispatcher) route(frame *Frame) Report {
	switch frame.Command {
	case CommandTimeReport:
		report := parseTimeReport(frame.Payload)
		d.log.Debugf("time report: %04d-%02d-%02d %02d:%02d:%02d",
			report.Year, report.Month, report.Day,
			report.Hour, report.Minute, report.Second)
		if d.sink != nil {
			d.sink.HandleTime(report)
		}
		return report

	case CommandAddressReport:
		report := parseAddressReport(frame.Payload)
		d.session.noteAddress(report.Address)
		d.log.Debugf("address report: 0x%04X", uint16(report.Address))
		if d.sink != nil {
			d.sink.HandleAddress(report)
		}
		return report

	case CommandDeviceInfoReport:
		report := parseDeviceInfoReport(frame.Payload)
		d.log.Debugf("device info report: kind=%d hw=0x%04X fw=0x%04X",
			report.Kind, report.HardwareID, report.FirmwareID)
		if d.sink != nil {
			d.sink.HandleDeviceInfo(report)
		}
		return report

	case CommandGroupIDReport:
		report := parseGroupReport(frame.Payload)
		d.session.noteGroups(report.Groups)
		d.log.Debugf("group report: %d memberships", len(report.Groups))
		if d.sink != nil {
			d.sink.HandleGroups(report)
		}
		return report

	case CommandOnlineStatusReport:
		report := parseOnlineStatusReport(frame.Payload)
		d.session.adoptAddress(report.Address)
		d.log.Tracef("online status: id=0x%04X on=%t", uint16(report.Address), report.On)
		if d.sink != nil {
			d.sink.HandleOnlineStatus(report)
		}
		return report

	default:
		// Registered command without a typed parser (queries, edits, OTA
		// status): surface raw.
		report := UnrecognizedReport{
			Command: byte(frame.Command),
			Payload: frame.Payload,
		}
		d.deliverUnrecognized(report)
		return report
	}
}

func (d *Dispatcher) deliverUnrecognized(report UnrecognizedReport) {
	if d.sink != nil {
		d.sink.HandleUnrecognized(report)
	}
}
