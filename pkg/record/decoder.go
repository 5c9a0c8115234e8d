package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTruncatedDump is returned when a dump declares more samples
	// than its byte stream actually holds.
	ErrTruncatedDump = errors.New("truncated dump")
	// ErrBadImage is returned when a buffer is not a dump image.
	ErrBadImage = errors.New("not a dump image")
)

// Dump image layout: magic | version | flags | interval seconds (uint32) |
// sample count (uint32) | start time as unix seconds (int64), all big
// endian, followed by the raw sample region.
var imageMagic = []byte{'T', 'F', 'D', '5'}

const (
	imageVersion    = 1
	imageHeaderSize = 17 // after magic and version: flags + interval + count + start
	flagHumidity    = 1 << 0
)

type decodeState int

const (
	stateStart decodeState = iota
	stateReadingHeader
	stateReadingSamples
	stateDone
)

// DecodeSamples walks a raw flash region and extracts the samples declared
// by the header. Decoding stops at the declared count; trailing block
// padding is ignored. Fewer samples than declared fail with
// ErrTruncatedDump: a corrupt stream offset cannot be trusted to
// resynchronize, so nothing is skipped.
func DecodeSamples(h Header, raw []byte) (*Dump, error) {
	width := h.SampleWidth()
	// The declared count is untrusted input; validate it against the
	// stream before sizing any allocation from it.
	if available := len(raw) / width; available < h.Count {
		return nil, fmt.Errorf("%w: header declares %d samples, stream holds %d", ErrTruncatedDump, h.Count, available)
	}
	samples := make([]RawSample, 0, h.Count)
	for i := 0; i < h.Count; i++ {
		off := i * width
		s := RawSample{Temperature: int16(binary.BigEndian.Uint16(raw[off : off+2]))}
		if h.Humidity {
			s.Humidity = int8(raw[off+2])
		}
		samples = append(samples, s)
	}
	return &Dump{Header: h, Samples: samples}, nil
}

// EncodeImage serializes the dump, header included, so it can be archived
// and decoded later without the device attached.
func (d *Dump) EncodeImage() []byte {
	h := d.Header
	buf := make([]byte, 0, len(imageMagic)+1+imageHeaderSize+len(d.Samples)*h.SampleWidth())
	buf = append(buf, imageMagic...)
	buf = append(buf, imageVersion)
	var flags byte
	if h.Humidity {
		flags |= flagHumidity
	}
	buf = append(buf, flags)
	buf = binary.BigEndian.AppendUint32(buf, uint32(h.Interval/time.Second))
	buf = binary.BigEndian.AppendUint32(buf, uint32(h.Count))
	buf = binary.BigEndian.AppendUint64(buf, uint64(h.Start.Unix()))
	for _, s := range d.Samples {
		buf = binary.BigEndian.AppendUint16(buf, uint16(s.Temperature))
		if h.Humidity {
			buf = append(buf, byte(s.Humidity))
		}
	}
	return buf
}

// DecodeImage parses a dump image produced by EncodeImage. It runs the
// decoder state machine Start → ReadingHeader → ReadingSamples → Done over
// the buffer.
func DecodeImage(buf []byte) (*Dump, error) {
	var (
		h    Header
		dump *Dump
		rest = buf
	)
	state := stateStart
	for state != stateDone {
		switch state {
		case stateStart:
			if len(rest) < len(imageMagic)+1 || !bytes.Equal(rest[:len(imageMagic)], imageMagic) {
				return nil, fmt.Errorf("%w: missing magic", ErrBadImage)
			}
			if v := rest[len(imageMagic)]; v != imageVersion {
				return nil, fmt.Errorf("%w: unsupported version %d", ErrBadImage, v)
			}
			rest = rest[len(imageMagic)+1:]
			state = stateReadingHeader
		case stateReadingHeader:
			if len(rest) < imageHeaderSize {
				return nil, fmt.Errorf("%w: short header (%d bytes)", ErrBadImage, len(rest))
			}
			h.Humidity = rest[0]&flagHumidity != 0
			h.Interval = time.Duration(binary.BigEndian.Uint32(rest[1:5])) * time.Second
			h.Count = int(binary.BigEndian.Uint32(rest[5:9]))
			h.Start = time.Unix(int64(binary.BigEndian.Uint64(rest[9:17])), 0)
			rest = rest[imageHeaderSize:]
			state = stateReadingSamples
		case stateReadingSamples:
			d, err := DecodeSamples(h, rest)
			if err != nil {
				return nil, err
			}
			dump = d
			state = stateDone
		}
	}
	return dump, nil
}
