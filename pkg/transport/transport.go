// Package transport provides the serial byte stream the logger is attached
// to. It is purely mechanical: open, read with a deadline, write, close.
// Retry policy lives in the protocol layer.
package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrTimeout        = errors.New("read timeout")
)

// Link is an exclusive byte-stream connection to the logger. A Link must
// not be shared between concurrent operations.
type Link interface {
	// Write sends one request. Any unread input left over from a
	// previous exchange is discarded first, so a retried request
	// always reads the fresh response, not stale bytes.
	Write(p []byte) error
	// Read returns exactly max bytes or fails with ErrTimeout once the
	// deadline expires. Whatever was received before the deadline is
	// returned alongside the error.
	Read(max int, timeout time.Duration) ([]byte, error)
	io.Closer
}

// Serial is a Link over a local serial port. The logger talks 115200 8N1.
type Serial struct {
	port serial.Port
}

// Open opens the serial device at path in exclusive mode.
func Open(path string, baudRate int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceNotFound, path, err)
	}
	return &Serial{port: port}, nil
}

func (s *Serial) Write(p []byte) error {
	// A timed-out or corrupt exchange can leave response bytes buffered;
	// they would be misread as the next frame header.
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("serial flush: %w", err)
	}
	for len(p) > 0 {
		n, err := s.port.Write(p)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		p = p[n:]
	}
	return nil
}

func (s *Serial) Read(max int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, max)
	total := 0
	deadline := time.Now().Add(timeout)
	for total < max {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return buf[:total], fmt.Errorf("%w after %s (%d/%d bytes)", ErrTimeout, timeout, total, max)
		}
		if err := s.port.SetReadTimeout(remaining); err != nil {
			return buf[:total], fmt.Errorf("serial read: %w", err)
		}
		n, err := s.port.Read(buf[total:])
		if err != nil {
			return buf[:total], fmt.Errorf("serial read: %w", err)
		}
		if n == 0 {
			// go.bug.st/serial signals an expired read timeout with a
			// zero-byte read and a nil error.
			return buf[:total], fmt.Errorf("%w after %s (%d/%d bytes)", ErrTimeout, timeout, total, max)
		}
		total += n
	}
	return buf, nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
