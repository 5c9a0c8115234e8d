package device

import (
	"fmt"
	"time"
)

// Interval is the recording interval in seconds. The device accepts
// exactly three values, stored on the wire as a one-digit code.
type Interval int

const (
	Interval10s  Interval = 10
	Interval60s  Interval = 60
	Interval300s Interval = 300

	// DefaultInterval is the factory default.
	DefaultInterval = Interval300s
)

var intervalNames = map[string]Interval{
	"10s":  Interval10s,
	"60s":  Interval60s,
	"1m":   Interval60s,
	"300s": Interval300s,
	"5m":   Interval300s,
}

// ParseInterval resolves a CLI interval name, including the 1m/5m aliases.
func ParseInterval(s string) (Interval, error) {
	i, ok := intervalNames[s]
	if !ok {
		return 0, fmt.Errorf("%w: interval %q", ErrInvalidConfiguration, s)
	}
	return i, nil
}

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() time.Duration {
	return time.Duration(i) * time.Second
}

func (i Interval) String() string {
	switch i {
	case Interval10s:
		return "10s"
	case Interval60s:
		return "60s"
	case Interval300s:
		return "5m"
	}
	return fmt.Sprintf("%ds", int(i))
}

// code returns the one-digit wire code for the interval.
func (i Interval) code() (byte, error) {
	switch i {
	case Interval10s:
		return '0', nil
	case Interval60s:
		return '1', nil
	case Interval300s:
		return '2', nil
	}
	return 0, fmt.Errorf("%w: interval %ds", ErrInvalidConfiguration, int(i))
}

func intervalFromCode(c byte) (Interval, error) {
	switch c {
	case '0':
		return Interval10s, nil
	case '1':
		return Interval60s, nil
	case '2':
		return Interval300s, nil
	}
	return 0, fmt.Errorf("%w: interval code %q", ErrInvalidConfiguration, c)
}

// Configuration is the recording setup of the logger. A value read from
// the device is immutable; a new one only comes from a successful
// Configure exchange.
type Configuration struct {
	Interval Interval
	Humidity bool
}

// Status is the logger's recording state. It is derived from exactly one
// status query and never cached.
type Status int

const (
	StatusIdle Status = iota
	StatusRecording
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRecording:
		return "recording"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// RecordingInfo describes the stored recording: how many samples the flash
// holds and when the recording started.
type RecordingInfo struct {
	Count int
	Start time.Time
}
