package client

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/backkem/telink/pkg/mesh"
	"github.com/backkem/telink/pkg/radio"
)

// pairingResponseOpcode is the status byte a device answers the nonce
// exchange with.
const pairingResponseOpcode = 0x0D

// SimulatedDevice implements the device side of the protocol over a
// radio.Pipe: it answers the pairing exchange, decrypts incoming command
// frames, and pushes encrypted report notifications. It exists for tests
// and demos; it is not a device emulator beyond the protocol surface.
type SimulatedDevice struct {
	identity mesh.Identity
	device   *radio.PipeDevice

	mu            sync.Mutex
	clientNonce   []byte
	codec         *mesh.Codec
	seq           uint16
	frames        []mesh.Frame
	notifyEnabled bool
}

// NewSimulatedDevice attaches a device simulation to the device side of a
// pipe.
func NewSimulatedDevice(pipe *radio.Pipe, address, name, password string) (*SimulatedDevice, error) {
	identity, err := mesh.NewIdentity(address, name, password)
	if err != nil {
		return nil, err
	}
	d := &SimulatedDevice{
		identity: identity,
		device:   pipe.Device(),
		seq:      1,
	}

	d.device.HandleWrite(radio.EndpointPair, d.onPairWrite)
	d.device.SetReadSource(radio.EndpointPair, d.pairResponse)
	d.device.HandleWrite(radio.EndpointCommand, d.onCommandWrite)
	d.device.HandleWrite(radio.EndpointNotify, d.onNotifyWrite)
	return d, nil
}

// onPairWrite captures the client nonce from the pairing request.
func (d *SimulatedDevice) onPairWrite(data []byte) {
	if len(data) < 1+mesh.NonceSize {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clientNonce = make([]byte, mesh.NonceSize)
	copy(d.clientNonce, data[1:1+mesh.NonceSize])
}

// pairResponse answers the pairing read with the device nonce and derives
// the same session key the client will.
func (d *SimulatedDevice) pairResponse() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clientNonce == nil {
		return nil
	}

	deviceNonce := make([]byte, mesh.NonceSize)
	if _, err := rand.Read(deviceNonce); err != nil {
		return nil
	}

	key, err := mesh.DeriveSessionKey(d.identity.Name, d.identity.Password, d.clientNonce, deviceNonce)
	if err != nil {
		return nil
	}
	d.codec = mesh.NewCodec(key)

	resp := make([]byte, 0, 1+mesh.NonceSize)
	resp = append(resp, pairingResponseOpcode)
	resp = append(resp, deviceNonce...)
	return resp
}

// onCommandWrite decrypts and records an incoming command frame.
func (d *SimulatedDevice) onCommandWrite(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.codec == nil {
		return
	}
	clear, err := d.codec.Decrypt(data)
	if err != nil {
		return
	}
	frame, err := mesh.DecodeFrame(clear)
	if err != nil {
		return
	}
	d.frames = append(d.frames, frame)
}

// onNotifyWrite records the notification-enable write.
func (d *SimulatedDevice) onNotifyWrite(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(data) == 1 && data[0] == 0x01 {
		d.notifyEnabled = true
	}
}

// Paired reports whether the device has derived a session key.
func (d *SimulatedDevice) Paired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codec != nil
}

// NotificationsEnabled reports whether the client switched the
// notification stream on.
func (d *SimulatedDevice) NotificationsEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifyEnabled
}

// Frames returns the decrypted command frames received so far.
func (d *SimulatedDevice) Frames() []mesh.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]mesh.Frame, len(d.frames))
	copy(out, d.frames)
	return out
}

// WaitForCommand polls for a received frame carrying the command code.
func (d *SimulatedDevice) WaitForCommand(command mesh.Command, timeout time.Duration) (mesh.Frame, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, f := range d.Frames() {
			if f.Command == command {
				return f, true
			}
		}
		time.Sleep(time.Millisecond)
	}
	return mesh.Frame{}, false
}

// SendReport encrypts and pushes a report notification to the client.
func (d *SimulatedDevice) SendReport(command mesh.Command, payload []byte) error {
	if len(payload) > mesh.PayloadSize {
		return mesh.ErrPayloadTooLarge
	}
	d.mu.Lock()
	if d.codec == nil {
		d.mu.Unlock()
		return mesh.ErrNoSession
	}
	frame := mesh.Frame{
		Seq:     d.seq,
		Command: command,
		Vendor:  d.identity.VendorByte(),
		Address: d.identity.ReversedAddress(),
	}
	copy(frame.Payload[:], payload)
	d.seq++
	ciphertext, err := d.codec.Encrypt(frame.Encode())
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encrypting report: %w", err)
	}
	return d.device.Notify(ciphertext)
}
