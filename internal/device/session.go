// Package device implements the TFD500 protocol session: one typed
// operation per device command on top of the frame codec and the serial
// link. A session owns its link exclusively; operations are synchronous
// request/response exchanges.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tfd500-tools/tfd500ctl/pkg/frame"
	"github.com/tfd500-tools/tfd500ctl/pkg/record"
	"github.com/tfd500-tools/tfd500ctl/pkg/transport"
)

var (
	// ErrDeviceUnresponsive is returned when an exchange keeps timing
	// out after the configured retry budget.
	ErrDeviceUnresponsive = errors.New("device unresponsive")
	// ErrInvalidConfiguration is returned for interval or humidity
	// settings the device would reject.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrBusy is returned when an operation requires an idle logger.
	ErrBusy = errors.New("logger is currently recording")
)

// clockLayout is the device clock format, dd.mm.yy HH:MM:SS.
const clockLayout = "02.01.06 15:04:05"

const (
	defaultBaudRate = 115200
	defaultTimeout  = 5 * time.Second
	defaultRetries  = 3
)

type Config struct {
	Path     string
	BaudRate int
	Timeout  time.Duration
	Retries  int
	Logger   *slog.Logger
}

// Session is an exclusive connection to one logger.
type Session struct {
	link    transport.Link
	timeout time.Duration
	retries int
	logger  *slog.Logger
}

// Open opens the serial device and wraps it in a session.
func Open(cfg Config) (*Session, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = defaultBaudRate
	}
	link, err := transport.Open(cfg.Path, cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	return NewSession(link, cfg), nil
}

// NewSession wraps an existing link. Used by Open and by tests.
func NewSession(link transport.Link, cfg Config) *Session {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries == 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		link:    link,
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		logger:  cfg.Logger,
	}
}

func (s *Session) Close() error {
	return s.link.Close()
}

// Version returns the firmware version string.
func (s *Session) Version(ctx context.Context) (string, error) {
	payload, err := s.exchange(ctx, frame.CmdVersion, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(payload)), nil
}

// Clock returns the device's internal clock.
func (s *Session) Clock(ctx context.Context) (time.Time, error) {
	m, err := s.mode(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return m.clock, nil
}

// SetClock overwrites the device clock in one atomic exchange.
func (s *Session) SetClock(ctx context.Context, t time.Time) error {
	_, err := s.exchange(ctx, frame.CmdSetClock, []byte(t.Format(clockLayout)))
	return err
}

// Configuration returns the currently configured interval and humidity
// mode.
func (s *Session) Configuration(ctx context.Context) (Configuration, error) {
	m, err := s.mode(ctx)
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{Interval: m.interval, Humidity: m.humidity}, nil
}

// Configure applies a new recording configuration. The device requires a
// synchronized clock to start a recording session, so the clock is set
// first; each setting is one atomic exchange.
func (s *Session) Configure(ctx context.Context, cfg Configuration) error {
	code, err := cfg.Interval.code()
	if err != nil {
		return err
	}
	if err := s.SetClock(ctx, time.Now()); err != nil {
		return err
	}
	if _, err := s.exchange(ctx, frame.CmdSetInterval, []byte{code}); err != nil {
		return err
	}
	humidity := byte('0')
	if cfg.Humidity {
		humidity = '1'
	}
	if _, err := s.exchange(ctx, frame.CmdSetHumidity, []byte{humidity}); err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "Configured logger",
		slog.String("interval", cfg.Interval.String()),
		slog.Bool("humidity", cfg.Humidity))
	return nil
}

// Status queries whether the logger is idle or recording.
func (s *Session) Status(ctx context.Context) (Status, error) {
	payload, err := s.exchange(ctx, frame.CmdStatus, nil)
	if err != nil {
		return 0, err
	}
	if len(payload) != 1 {
		return 0, fmt.Errorf("%w: status payload %q", frame.ErrMalformedFrame, payload)
	}
	switch payload[0] {
	case '0':
		return StatusIdle, nil
	case '1':
		return StatusRecording, nil
	}
	return 0, fmt.Errorf("%w: status %q", frame.ErrMalformedFrame, payload[0])
}

// Recording returns the stored sample count and the recording start time.
func (s *Session) Recording(ctx context.Context) (RecordingInfo, error) {
	payload, err := s.exchange(ctx, frame.CmdRecordingInfo, nil)
	if err != nil {
		return RecordingInfo{}, err
	}
	fields := strings.Fields(string(payload))
	if len(fields) != 3 {
		return RecordingInfo{}, fmt.Errorf("%w: recording info %q", frame.ErrMalformedFrame, payload)
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return RecordingInfo{}, fmt.Errorf("%w: sample count %q", frame.ErrMalformedFrame, fields[0])
	}
	start, err := time.ParseInLocation(clockLayout, fields[1]+" "+fields[2], time.Local)
	if err != nil {
		return RecordingInfo{}, fmt.Errorf("%w: start time %q", frame.ErrMalformedFrame, fields[1]+" "+fields[2])
	}
	return RecordingInfo{Count: count, Start: start}, nil
}

// ReadRecordBlock retrieves one fixed-size chunk of the flash region.
func (s *Session) ReadRecordBlock(ctx context.Context, block int) ([]byte, error) {
	payload, err := s.exchange(ctx, frame.CmdReadBlock, []byte(fmt.Sprintf("%04d", block)))
	if err != nil {
		return nil, err
	}
	if len(payload) != record.BlockSize {
		return nil, fmt.Errorf("%w: record block holds %d bytes", frame.ErrMalformedFrame, len(payload))
	}
	return payload, nil
}

// Dump retrieves the whole recording. It refuses while the logger is
// recording, streams the flash region block by block and decodes it with
// the capture-time configuration. The optional progress callback is
// invoked after each block with the number of samples retrieved so far;
// it must not block. Cancellation is checked between blocks.
func (s *Session) Dump(ctx context.Context, progress func(done, total int)) (*record.Dump, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status == StatusRecording {
		return nil, ErrBusy
	}
	cfg, err := s.Configuration(ctx)
	if err != nil {
		return nil, err
	}
	info, err := s.Recording(ctx)
	if err != nil {
		return nil, err
	}
	header := record.Header{
		Start:    info.Start,
		Count:    info.Count,
		Interval: cfg.Interval.Duration(),
		Humidity: cfg.Humidity,
	}
	raw := make([]byte, 0, header.Blocks()*record.BlockSize)
	for block := 0; block < header.Blocks(); block++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := s.ReadRecordBlock(ctx, block)
		if err != nil {
			return nil, err
		}
		raw = append(raw, chunk...)
		if progress != nil {
			progress(min(len(raw)/header.SampleWidth(), header.Count), header.Count)
		}
	}
	return record.DecodeSamples(header, raw)
}

// ClearFlash erases all data records. It also resets the device clock and
// the recording settings.
func (s *Session) ClearFlash(ctx context.Context) error {
	_, err := s.exchange(ctx, frame.CmdClearFlash, nil)
	return err
}

// FactoryReset restores factory defaults and reboots the device.
func (s *Session) FactoryReset(ctx context.Context) error {
	_, err := s.exchange(ctx, frame.CmdFactoryReset, nil)
	return err
}

// mode is the parsed response of the combined mode/clock query.
type mode struct {
	humidity bool
	interval Interval
	clock    time.Time
}

func (s *Session) mode(ctx context.Context) (mode, error) {
	payload, err := s.exchange(ctx, frame.CmdMode, nil)
	if err != nil {
		return mode{}, err
	}
	// C1 I2 T20.07.15 12:34:56
	fields := strings.Fields(string(payload))
	if len(fields) != 4 || len(fields[0]) != 2 || fields[0][0] != 'C' || len(fields[1]) != 2 || fields[1][0] != 'I' || !strings.HasPrefix(fields[2], "T") {
		return mode{}, fmt.Errorf("%w: mode payload %q", frame.ErrMalformedFrame, payload)
	}
	interval, err := intervalFromCode(fields[1][1])
	if err != nil {
		return mode{}, fmt.Errorf("%w: mode payload %q", frame.ErrMalformedFrame, payload)
	}
	clock, err := time.ParseInLocation(clockLayout, strings.TrimPrefix(fields[2], "T")+" "+fields[3], time.Local)
	if err != nil {
		return mode{}, fmt.Errorf("%w: clock %q", frame.ErrMalformedFrame, payload)
	}
	return mode{
		humidity: fields[0][1] != '0',
		interval: interval,
		clock:    clock,
	}, nil
}

// exchange performs one request/response cycle with the session's retry
// policy: a timed-out exchange is repeated with the same request up to the
// retry budget before surfacing ErrDeviceUnresponsive; a corrupt response
// gets one immediate re-read, then the error is fatal to the operation.
func (s *Session) exchange(ctx context.Context, cmd byte, payload []byte) ([]byte, error) {
	req, err := frame.Encode(cmd, payload)
	if err != nil {
		return nil, err
	}
	const corruptBudget = 1
	timeouts, corrupt := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := s.once(cmd, req)
		if err == nil {
			return resp, nil
		}
		switch {
		case errors.Is(err, transport.ErrTimeout):
			timeouts++
			if timeouts >= s.retries {
				return nil, fmt.Errorf("%w: command %q failed after %d attempts: %v", ErrDeviceUnresponsive, cmd, timeouts, err)
			}
		case errors.Is(err, frame.ErrChecksumMismatch), errors.Is(err, frame.ErrMalformedFrame):
			corrupt++
			if corrupt > corruptBudget {
				return nil, fmt.Errorf("command %q: %w", cmd, err)
			}
		default:
			return nil, fmt.Errorf("command %q: %w", cmd, err)
		}
		s.logger.LogAttrs(ctx, slog.LevelDebug, "Retrying exchange",
			slog.String("command", string(cmd)),
			slog.Int("timeouts", timeouts),
			slog.Int("corrupt", corrupt),
			slog.String("cause", err.Error()))
	}
}

// once writes the request and reads back exactly one response frame,
// validating that it echoes the request command.
func (s *Session) once(cmd byte, req []byte) ([]byte, error) {
	if err := s.link.Write(req); err != nil {
		return nil, err
	}
	header, err := s.link.Read(frame.HeaderSize, s.timeout)
	if err != nil {
		return nil, err
	}
	n, err := frame.PayloadLength(header)
	if err != nil {
		return nil, err
	}
	rest, err := s.link.Read(n+1, s.timeout)
	if err != nil {
		return nil, err
	}
	f, err := frame.Decode(append(header, rest...))
	if err != nil {
		return nil, err
	}
	if f.Command != cmd {
		return nil, fmt.Errorf("%w: request %q echoed as %q", frame.ErrMalformedFrame, cmd, f.Command)
	}
	return f.Payload, nil
}
