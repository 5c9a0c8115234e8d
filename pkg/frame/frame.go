// Package frame implements the TFD500 wire frame codec.
//
// A frame is STX | command | length (2 bytes, big endian) | payload |
// checksum, where the checksum is the XOR of every byte between the start
// marker and the checksum itself. Responses echo the request command byte.
// The codec is pure and has no transport dependency.
package frame

import (
	"errors"
	"fmt"
)

// Command bytes understood by the logger.
const (
	CmdVersion       byte = 'v'
	CmdMode          byte = 'o'
	CmdSetClock      byte = 'T'
	CmdRecordingInfo byte = 'd'
	CmdSetHumidity   byte = 'C'
	CmdSetInterval   byte = 'I'
	CmdStatus        byte = 'a'
	CmdReadBlock     byte = 'F'
	CmdClearFlash    byte = 'R'
	CmdFactoryReset  byte = 'X'
)

// StartMarker opens every request and response frame.
const StartMarker byte = 0x02

// HeaderSize is the number of bytes preceding the payload.
const HeaderSize = 4

// MaxPayload is the largest payload length a frame can declare.
const MaxPayload = 0xffff

var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
)

// Frame is one decoded request or response unit.
type Frame struct {
	Command byte
	Payload []byte
}

// Encode builds the wire representation of a command and its payload.
func Encode(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, 0, HeaderSize+len(payload)+1)
	buf = append(buf, StartMarker, cmd, byte(len(payload)>>8), byte(len(payload)))
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf[1:]))
	return buf, nil
}

// PayloadLength validates the start marker and returns the payload length
// declared by a frame header. Callers use it to size the remaining read.
func PayloadLength(header []byte) (int, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("%w: short header (%d bytes)", ErrMalformedFrame, len(header))
	}
	if header[0] != StartMarker {
		return 0, fmt.Errorf("%w: bad start marker 0x%02x", ErrMalformedFrame, header[0])
	}
	return int(header[2])<<8 | int(header[3]), nil
}

// Decode validates a complete frame and returns its command and payload.
// Corrupt frames are reported, never repaired.
func Decode(buf []byte) (Frame, error) {
	n, err := PayloadLength(buf)
	if err != nil {
		return Frame{}, err
	}
	if len(buf) != HeaderSize+n+1 {
		return Frame{}, fmt.Errorf("%w: declared %d payload bytes, frame is %d bytes", ErrMalformedFrame, n, len(buf))
	}
	if sum := checksum(buf[1 : len(buf)-1]); sum != buf[len(buf)-1] {
		return Frame{}, fmt.Errorf("%w: computed 0x%02x, received 0x%02x", ErrChecksumMismatch, sum, buf[len(buf)-1])
	}
	return Frame{Command: buf[1], Payload: buf[HeaderSize : len(buf)-1]}, nil
}

func checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum ^= c
	}
	return sum
}
