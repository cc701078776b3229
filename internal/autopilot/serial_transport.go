package autopilot

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// SerialTransport owns the byte-level link to a flight controller over a
// serial port. It is the production transport a concrete CommandSurface
// would encode MAVLink (or another wire protocol) over; this package
// stops at "open a byte stream" and leaves the wire protocol itself to
// that encoding layer. Mirrors this stack's other serial-attached flight
// controller links.
type SerialTransport struct {
	mu   sync.Mutex
	port serial.Port
}

// OpenSerialTransport opens portName at baudRate with the 8N1 framing
// MAVLink links conventionally use.
func OpenSerialTransport(portName string, baudRate int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", portName, err)
	}

	return &SerialTransport{port: port}, nil
}

// Write sends raw bytes to the flight controller.
func (t *SerialTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port.Write(p)
}

// Read reads raw bytes from the flight controller.
func (t *SerialTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	return port.Read(p)
}

// Close releases the serial port.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
