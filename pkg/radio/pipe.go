package radio

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// Pipe wire opcodes. Each bridge message is opcode | endpoint | payload.
const (
	pipeOpWrite    byte = 0x01 // client -> device characteristic write
	pipeOpReadReq  byte = 0x02 // client -> device characteristic read
	pipeOpReadResp byte = 0x03 // device -> client read response
	pipeOpNotify   byte = 0x04 // device -> client notification
)

// pipeBufferSize bounds a single pipe message: opcode, endpoint and a
// frame-sized payload, with headroom for pairing traffic.
const pipeBufferSize = 64

// defaultTickInterval is how often queued bridge messages are delivered.
const defaultTickInterval = time.Millisecond

// Pipe provides an in-memory bidirectional radio link between a client
// and a simulated device, built on pion's test.Bridge. Messages are
// delivered automatically by a background pump goroutine, so tests need
// no manual message plumbing and no real BLE hardware.
type Pipe struct {
	bridge *test.Bridge
	link   *PipeLink
	device *PipeDevice

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPipe creates a connected pipe pair: the client-side Link and the
// device-side handler surface. The device side starts serving
// immediately; the client side serves after Connect.
func NewPipe() *Pipe {
	p := &Pipe{
		bridge: test.NewBridge(),
		stopCh: make(chan struct{}),
	}
	p.link = &PipeLink{conn: p.bridge.GetConn0()}
	p.device = &PipeDevice{
		conn:          p.bridge.GetConn1(),
		writeHandlers: make(map[Endpoint]func([]byte)),
		readSources:   make(map[Endpoint]func() []byte),
	}
	p.device.start()

	// Pump queued messages in both directions.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(defaultTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()

	return p
}

// Link returns the client-side radio link.
func (p *Pipe) Link() *PipeLink {
	return p.link
}

// Device returns the device-side handler surface.
func (p *Pipe) Device() *PipeDevice {
	return p.device
}

// Close stops the pump and tears down both sides.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopCh)
	p.mu.Unlock()

	p.link.Disconnect()
	p.device.stop()
	p.wg.Wait()
	return nil
}

// PipeLink is the client side of a Pipe. It implements Link.
type PipeLink struct {
	conn net.Conn

	mu        sync.Mutex
	connected bool
	closed    bool
	subs      map[Endpoint]NotifyFunc
	readCh    chan []byte
	wg        sync.WaitGroup
}

// Connect marks the link up and starts the inbound read loop.
func (l *PipeLink) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.connected {
		return ErrAlreadyConnected
	}
	l.connected = true
	l.subs = make(map[Endpoint]NotifyFunc)
	l.readCh = make(chan []byte, 1)

	l.wg.Add(1)
	go l.readLoop()
	return nil
}

// Disconnect tears the link down and stops the read loop.
func (l *PipeLink) Disconnect() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.connected = false
	l.mu.Unlock()

	l.conn.Close()
	l.wg.Wait()
	return nil
}

// Write sends raw bytes to the device endpoint.
func (l *PipeLink) Write(endpoint Endpoint, data []byte) error {
	if err := l.check(endpoint); err != nil {
		return err
	}
	msg := make([]byte, 0, 2+len(data))
	msg = append(msg, pipeOpWrite, byte(endpoint))
	msg = append(msg, data...)
	_, err := l.conn.Write(msg)
	return err
}

// Read requests and returns the endpoint's current value.
func (l *PipeLink) Read(ctx context.Context, endpoint Endpoint) ([]byte, error) {
	if err := l.check(endpoint); err != nil {
		return nil, err
	}
	if _, err := l.conn.Write([]byte{pipeOpReadReq, byte(endpoint)}); err != nil {
		return nil, err
	}
	select {
	case data := <-l.readCh:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe registers a notification callback for an endpoint.
func (l *PipeLink) Subscribe(endpoint Endpoint, fn NotifyFunc) error {
	if err := l.check(endpoint); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs[endpoint] = fn
	return nil
}

func (l *PipeLink) check(endpoint Endpoint) error {
	if endpoint > EndpointPair {
		return ErrUnknownEndpoint
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if !l.connected {
		return ErrNotConnected
	}
	return nil
}

// readLoop dispatches device-to-client messages until the link closes.
func (l *PipeLink) readLoop() {
	defer l.wg.Done()
	buf := make([]byte, pipeBufferSize)
	for {
		n, err := l.conn.Read(buf)
		if err != nil {
			return
		}
		if n < 2 {
			continue
		}
		op, endpoint := buf[0], Endpoint(buf[1])
		payload := make([]byte, n-2)
		copy(payload, buf[2:n])

		switch op {
		case pipeOpReadResp:
			select {
			case l.readCh <- payload:
			default:
				// No reader waiting; drop the stale response.
			}
		case pipeOpNotify:
			l.mu.Lock()
			fn := l.subs[endpoint]
			l.mu.Unlock()
			if fn != nil {
				fn(payload)
			}
		}
	}
}

// Verify PipeLink implements Link.
var _ Link = (*PipeLink)(nil)

// PipeDevice is the device side of a Pipe: tests register handlers for
// the client's writes and reads, and push notifications back.
type PipeDevice struct {
	conn net.Conn

	mu            sync.Mutex
	closed        bool
	writeHandlers map[Endpoint]func([]byte)
	readSources   map[Endpoint]func() []byte
	wg            sync.WaitGroup
}

// HandleWrite registers a handler for client writes to an endpoint.
func (d *PipeDevice) HandleWrite(endpoint Endpoint, fn func(data []byte)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeHandlers[endpoint] = fn
}

// SetReadSource registers the value source answering client reads of an
// endpoint.
func (d *PipeDevice) SetReadSource(endpoint Endpoint, fn func() []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readSources[endpoint] = fn
}

// Notify pushes a notification to the client's notify endpoint.
func (d *PipeDevice) Notify(data []byte) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	msg := make([]byte, 0, 2+len(data))
	msg = append(msg, pipeOpNotify, byte(EndpointNotify))
	msg = append(msg, data...)
	_, err := d.conn.Write(msg)
	return err
}

func (d *PipeDevice) start() {
	d.wg.Add(1)
	go d.serveLoop()
}

func (d *PipeDevice) stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.conn.Close()
	d.wg.Wait()
}

// serveLoop answers client-to-device messages until the pipe closes.
func (d *PipeDevice) serveLoop() {
	defer d.wg.Done()
	buf := make([]byte, pipeBufferSize)
	for {
		n, err := d.conn.Read(buf)
		if err != nil {
			return
		}
		if n < 2 {
			continue
		}
		op, endpoint := buf[0], Endpoint(buf[1])
		payload := make([]byte, n-2)
		copy(payload, buf[2:n])

		switch op {
		case pipeOpWrite:
			d.mu.Lock()
			fn := d.writeHandlers[endpoint]
			d.mu.Unlock()
			if fn != nil {
				fn(payload)
			}
		case pipeOpReadReq:
			d.mu.Lock()
			src := d.readSources[endpoint]
			d.mu.Unlock()
			var value []byte
			if src != nil {
				value = src()
			}
			msg := make([]byte, 0, 2+len(value))
			msg = append(msg, pipeOpReadResp, byte(endpoint))
			msg = append(msg, value...)
			if _, err := d.conn.Write(msg); err != nil {
				return
			}
		}
	}
}
