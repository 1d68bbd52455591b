package mesh

import "fmt"

// Command is a single-byte command code from the protocol's fixed
// registry. The codes were captured from the device family's firmware
// traffic; unknown codes are normal on a shared link and are surfaced as
// UnrecognizedReport, never as errors.
type Command byte

// Command registry.
const (
	CommandOTAUpdate          Command = 0xC6
	CommandOTAStateQuery      Command = 0xC7
	CommandOTAStatusReport    Command = 0xC8
	CommandGroupIDReport      Command = 0xD4
	CommandGroupEdit          Command = 0xD7
	CommandOnlineStatusReport Command = 0xDC
	CommandGroupIDQuery       Command = 0xDD
	CommandAddressEdit        Command = 0xE0
	CommandAddressReport      Command = 0xE1
	CommandReset              Command = 0xE3
	CommandTimeSet            Command = 0xE4
	CommandTimeQuery          Command = 0xE8
	CommandTimeReport         Command = 0xE9
	CommandDeviceInfoQuery    Command = 0xEA
	CommandDeviceInfoReport   Command = 0xEB
)

var commandNames = map[Command]string{
	CommandOTAUpdate:          "OTAUpdate",
	CommandOTAStateQuery:      "OTAStateQuery",
	CommandOTAStatusReport:    "OTAStatusReport",
	CommandGroupIDReport:      "GroupIDReport",
	CommandGroupEdit:          "GroupEdit",
	CommandOnlineStatusReport: "OnlineStatusReport",
	CommandGroupIDQuery:       "GroupIDQuery",
	CommandAddressEdit:        "AddressEdit",
	CommandAddressReport:      "AddressReport",
	CommandReset:              "Reset",
	CommandTimeSet:            "TimeSet",
	CommandTimeQuery:          "TimeQuery",
	CommandTimeReport:         "TimeReport",
	CommandDeviceInfoQuery:    "DeviceInfoQuery",
	CommandDeviceInfoReport:   "DeviceInfoReport",
}

// Registered reports whether the code belongs to the known registry.
func (c Command) Registered() bool {
	_, ok := commandNames[c]
	return ok
}

// String returns the command name, or the raw byte for unknown codes.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}
