package client

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/backkem/telink/pkg/mesh"
	"github.com/backkem/telink/pkg/radio"
)

// Client errors.
var (
	// ErrNoLink is returned when Config.Link is nil.
	ErrNoLink = errors.New("client: radio link is required")

	// ErrAlreadyConnected is returned when Connect is called twice.
	ErrAlreadyConnected = errors.New("client: already connected")

	// ErrNotConnected is returned for operations before Connect.
	ErrNotConnected = errors.New("client: not connected")
)

// notifyEnableValue is written to the notify endpoint to switch the
// device's notification stream on.
var notifyEnableValue = []byte{0x01}

// Client connects the protocol engine to a radio link. It owns the link
// handle and the transport lifecycle; the protocol state lives in the
// composed mesh.Session. High-level operations build ciphertext frames
// through the session and write them to the command endpoint; inbound
// notifications flow through the mesh.Dispatcher to the configured Sink.
//
// Operations carry no acknowledgement guarantee: the matching report, if
// any, arrives asynchronously. Callers correlate by report type and
// content.
type Client struct {
	identity      mesh.Identity
	link          radio.Link
	sink          mesh.Sink
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger

	mu         sync.Mutex
	session    *mesh.Session
	dispatcher *mesh.Dispatcher
}

// New creates a client from a validated config.
func New(config Config) (*Client, error) {
	identity, err := config.Validate()
	if err != nil {
		return nil, err
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Client{
		identity:      identity,
		link:          config.Link,
		sink:          config.Sink,
		loggerFactory: loggerFactory,
		log:           loggerFactory.NewLogger("client"),
	}, nil
}

// Connect establishes the link and runs the pairing exchange: a fresh
// random nonce is written to the pair endpoint together with the
// encrypted credential block, the device's nonce is read back, and the
// session key is derived from the two. Key derivation happens exactly
// once per connection, before any data frame is sent or accepted.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	if err := c.link.Connect(ctx); err != nil {
		return fmt.Errorf("connecting link: %w", err)
	}

	session, err := c.pair(ctx)
	if err != nil {
		c.link.Disconnect()
		return err
	}

	dispatcher := mesh.NewDispatcher(session, c.sink, c.loggerFactory)

	c.mu.Lock()
	c.session = session
	c.dispatcher = dispatcher
	c.mu.Unlock()

	if err := c.link.Subscribe(radio.EndpointNotify, c.onNotification); err != nil {
		c.teardown()
		return fmt.Errorf("subscribing notifications: %w", err)
	}
	// Switch the device's notification stream on.
	if err := c.link.Write(radio.EndpointNotify, notifyEnableValue); err != nil {
		c.teardown()
		return fmt.Errorf("enabling notifications: %w", err)
	}

	c.log.Infof("connected to %s", c.identity)
	return nil
}

// pair runs the nonce exchange and derives the session key.
func (c *Client) pair(ctx context.Context) (*mesh.Session, error) {
	nonce := make([]byte, mesh.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating pairing nonce: %w", err)
	}

	request, err := mesh.PairingRequest(c.identity.Name, c.identity.Password, nonce)
	if err != nil {
		return nil, err
	}
	if err := c.link.Write(radio.EndpointPair, request); err != nil {
		return nil, fmt.Errorf("writing pairing request: %w", err)
	}

	response, err := c.link.Read(ctx, radio.EndpointPair)
	if err != nil {
		return nil, fmt.Errorf("reading pairing response: %w", err)
	}
	remoteNonce, err := mesh.ParsePairingResponse(response)
	if err != nil {
		return nil, err
	}

	key, err := mesh.DeriveSessionKey(c.identity.Name, c.identity.Password, nonce, remoteNonce)
	if err != nil {
		return nil, err
	}
	return mesh.NewSession(c.identity, key)
}

// Disconnect zeroizes the session key and releases the link.
func (c *Client) Disconnect() error {
	c.teardown()
	c.log.Infof("disconnected from %s", c.identity)
	return nil
}

func (c *Client) teardown() {
	c.mu.Lock()
	if c.session != nil {
		c.session.Close()
		c.session = nil
		c.dispatcher = nil
	}
	c.mu.Unlock()
	c.link.Disconnect()
}

// Session returns the live session, or nil before Connect.
func (c *Client) Session() *mesh.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// onNotification feeds an inbound notification through the dispatcher.
func (c *Client) onNotification(data []byte) {
	c.mu.Lock()
	dispatcher := c.dispatcher
	c.mu.Unlock()
	if dispatcher == nil {
		return
	}
	if _, err := dispatcher.Inbound(data); err != nil {
		c.log.Warnf("dropping inbound frame: %v", err)
	}
}

// send builds a frame through the session operation and writes the
// ciphertext to the command endpoint.
func (c *Client) send(build func(s *mesh.Session) ([]byte, error)) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return ErrNotConnected
	}
	frame, err := build(session)
	if err != nil {
		return err
	}
	if err := c.link.Write(radio.EndpointCommand, frame); err != nil {
		return fmt.Errorf("writing command: %w", err)
	}
	return nil
}

// QueryTime asks the device for its clock.
func (c *Client) QueryTime() error {
	return c.send((*mesh.Session).QueryTime)
}

// SetTime sets the device clock.
func (c *Client) SetTime(t time.Time) error {
	return c.send(func(s *mesh.Session) ([]byte, error) { return s.SetTime(t) })
}

// QueryDeviceInfo asks for hardware/product information.
func (c *Client) QueryDeviceInfo() error {
	return c.send((*mesh.Session).QueryDeviceInfo)
}

// QueryDeviceVersion asks for the firmware version.
func (c *Client) QueryDeviceVersion() error {
	return c.send((*mesh.Session).QueryDeviceVersion)
}

// QueryMeshID asks the device to report its mesh address.
func (c *Client) QueryMeshID() error {
	return c.send((*mesh.Session).QueryMeshID)
}

// SetMeshID assigns the device's individual mesh address.
func (c *Client) SetMeshID(address mesh.MeshAddress) error {
	return c.send(func(s *mesh.Session) ([]byte, error) { return s.SetMeshID(address) })
}

// AddGroup adds the device to a group.
func (c *Client) AddGroup(group mesh.MeshAddress) error {
	return c.send(func(s *mesh.Session) ([]byte, error) { return s.AddGroup(group) })
}

// DeleteGroup removes the device from a group.
func (c *Client) DeleteGroup(group mesh.MeshAddress) error {
	return c.send(func(s *mesh.Session) ([]byte, error) { return s.DeleteGroup(group) })
}

// QueryGroups asks for the device's group memberships.
func (c *Client) QueryGroups() error {
	return c.send((*mesh.Session).QueryGroups)
}

// Reset restores the device's factory state.
func (c *Client) Reset() error {
	return c.send((*mesh.Session).Reset)
}

// QueryOTAState asks for the device's firmware-update state.
func (c *Client) QueryOTAState() error {
	return c.send((*mesh.Session).QueryOTAState)
}
