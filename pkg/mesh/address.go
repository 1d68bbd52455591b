package mesh

// MeshAddress is a logical identifier inside the mesh addressing scheme:
// an individual device in [1,254] or a group in [0x8000,0x80FF]. A device
// has exactly one individual address but may belong to any number of
// groups.
type MeshAddress uint16

// Mesh address ranges.
const (
	// DeviceAddressMin is the lowest individual device address.
	DeviceAddressMin MeshAddress = 0x0001

	// DeviceAddressMax is the highest individual device address.
	DeviceAddressMax MeshAddress = 0x00FE

	// GroupAddressMin is the lowest group address.
	GroupAddressMin MeshAddress = 0x8000

	// GroupAddressMax is the highest group address.
	GroupAddressMax MeshAddress = 0x80FF
)

// IsDevice reports whether the address identifies an individual device.
func (a MeshAddress) IsDevice() bool {
	return a >= DeviceAddressMin && a <= DeviceAddressMax
}

// IsGroup reports whether the address identifies a group.
func (a MeshAddress) IsGroup() bool {
	return a >= GroupAddressMin && a <= GroupAddressMax
}

// IsValid reports whether the address is in either the device or the group
// range.
func (a MeshAddress) IsValid() bool {
	return a.IsDevice() || a.IsGroup()
}

// GroupAddress returns the group address for a one-byte group number,
// mapping n to 0x8000|n.
func GroupAddress(n uint8) MeshAddress {
	return GroupAddressMin | MeshAddress(n)
}
