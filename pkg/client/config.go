package client

import (
	"fmt"
	"os"

	"github.com/pion/logging"
	"gopkg.in/yaml.v3"

	"github.com/backkem/telink/pkg/mesh"
	"github.com/backkem/telink/pkg/radio"
)

// Config describes a device connection.
type Config struct {
	// Address is the device MAC address ("AA:BB:CC:DD:EE:FF").
	Address string `yaml:"address"`

	// Name is the mesh network name, at most 16 bytes.
	Name string `yaml:"name"`

	// Password is the mesh network password, at most 16 bytes.
	Password string `yaml:"password"`

	// Vendor overrides the vendor byte. Zero selects the default.
	Vendor byte `yaml:"vendor,omitempty"`

	// Link is the radio transport to the device. Required.
	Link radio.Link `yaml:"-"`

	// Sink receives dispatched reports. Optional.
	Sink mesh.Sink `yaml:"-"`

	// LoggerFactory creates the client's loggers. Optional; defaults to
	// pion's default factory.
	LoggerFactory logging.LoggerFactory `yaml:"-"`
}

// Validate checks the connection parameters and resolves the identity.
func (c *Config) Validate() (mesh.Identity, error) {
	if c.Link == nil {
		return mesh.Identity{}, ErrNoLink
	}
	identity, err := mesh.NewIdentity(c.Address, c.Name, c.Password)
	if err != nil {
		return mesh.Identity{}, err
	}
	if c.Vendor != 0 {
		identity.Vendor = c.Vendor
	}
	return identity, nil
}

// LoadConfig reads connection parameters from a YAML file. The transport
// and callback fields must still be set by the caller.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}
