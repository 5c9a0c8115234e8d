// Package record decodes raw TFD500 flash dumps into measurement samples
// and defines a self-describing dump image format for offline decoding.
// The decoder is a pure function of the byte buffer; it performs no I/O.
package record

import (
	"time"

	"github.com/tfd500-tools/tfd500ctl/pkg/measurement"
)

// BlockSize is the size of one flash record block as returned by the
// device. The last block of a recording is padded up to this size.
const BlockSize = 256

// Header describes one recording: when it started, how many samples it
// holds and the configuration that was active at capture time. The
// capture-time configuration travels with the dump because the live device
// configuration may have changed since.
type Header struct {
	Start    time.Time
	Count    int
	Interval time.Duration
	Humidity bool
}

// SampleWidth returns the number of bytes one sample occupies in flash.
func (h Header) SampleWidth() int {
	if h.Humidity {
		return 3
	}
	return 2
}

// SampleBytes returns the total size of the sample region in bytes.
func (h Header) SampleBytes() int {
	return h.Count * h.SampleWidth()
}

// Blocks returns the number of record blocks covering the sample region.
func (h Header) Blocks() int {
	return (h.SampleBytes() + BlockSize - 1) / BlockSize
}

// RawSample is one unconverted flash record. Temperature is tenths of a
// degree Celsius, big endian on the wire; Humidity is percent relative
// humidity and only meaningful when the capture recorded humidity.
type RawSample struct {
	Temperature int16
	Humidity    int8
}

// Dump is one complete decoded recording.
type Dump struct {
	Header  Header
	Samples []RawSample
}

// DataPoint is one converted measurement. Humidity is nil when humidity
// was not recorded at capture time.
type DataPoint struct {
	Index       int
	Timestamp   time.Time
	Temperature float64
	Humidity    *float64
}

// Points converts the raw samples into data points. Timestamps are derived
// by adding index × interval to the recording start time.
func (d *Dump) Points() []DataPoint {
	points := make([]DataPoint, len(d.Samples))
	for i, s := range d.Samples {
		p := DataPoint{
			Index:       i,
			Timestamp:   d.Header.Start.Add(time.Duration(i) * d.Header.Interval),
			Temperature: measurement.Celsius(s.Temperature),
		}
		if d.Header.Humidity {
			rh := measurement.RelativeHumidity(s.Humidity)
			p.Humidity = &rh
		}
		points[i] = p
	}
	return points
}
