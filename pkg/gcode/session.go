// Package gcode implements the line protocol spoken to the motion
// firmware: newline-terminated ASCII commands answered by a single "ok",
// an error line, or nothing at all. The session is deliberately
// forgiving about missing acknowledgements (see Session.Send); flaky
// serial links drop "ok" lines often enough that blocking on them would
// make the robot unusable.
package gcode

import (
	"bytes"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotConnected is returned when an operation needs an open port.
	ErrNotConnected = errors.New("serial port not connected")

	// ErrAckTimeout is returned for a missing acknowledgement when the
	// session is configured to treat timeouts as failures.
	ErrAckTimeout = errors.New("timed out waiting for firmware ack")
)

// FirmwareError is an explicit error line reported by the firmware. It
// always aborts the in-flight operation.
type FirmwareError struct {
	Line string
}

func (e *FirmwareError) Error() string {
	return "firmware error: " + e.Line
}

const ackMarker = "ok"

// isErrorLine matches the firmware's error reporting: a line starting
// with "Error" or containing the marker anywhere, case-insensitive.
func isErrorLine(line string) bool {
	return strings.HasPrefix(line, "Error") || strings.Contains(strings.ToLower(line), "error")
}

// Session frames commands and acknowledgements over a Port. One Session
// per physical connection; callers must serialize access themselves.
type Session struct {
	cfg  *Config
	port Port

	buf   []byte // unread bytes, including partial lines across reads
	chunk []byte

	tolerateTimeout bool

	log *logrus.Entry
}

// New returns an unconnected session for a serial device.
func New(cfg *Config) *Session {
	return &Session{
		cfg:             cfg,
		tolerateTimeout: true,
		chunk:           make([]byte, 512),
		log:             logrus.WithField("port", cfg.Device),
	}
}

// NewWithPort wraps an already-open port. Used by tests and anything
// else that provides its own transport. Stale input is discarded, the
// same as Open does.
func NewWithPort(port Port) *Session {
	s := &Session{
		port:            port,
		tolerateTimeout: true,
		chunk:           make([]byte, 512),
		log:             logrus.WithField("port", "injected"),
	}
	s.drainInput()
	return s
}

// SetTolerateTimeout switches the missing-ack policy. True (the default)
// logs a warning and proceeds; false surfaces ErrAckTimeout.
func (s *Session) SetTolerateTimeout(tolerate bool) {
	s.tolerateTimeout = tolerate
}

// Open opens the serial port and discards any bytes a previous session
// left buffered.
func (s *Session) Open() error {
	if s.port != nil {
		return nil
	}
	port, err := openPort(s.cfg)
	if err != nil {
		return err
	}
	s.port = port
	s.buf = nil
	s.drainInput()
	s.log.Info("serial port opened")
	return nil
}

// Close closes the port. Safe to call when already closed.
func (s *Session) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.buf = nil
	s.log.Info("serial port closed")
	return err
}

// Connected reports whether the port is open.
func (s *Session) Connected() bool {
	return s.port != nil
}

// drainInput throws away whatever is sitting in the receive buffer so a
// new session does not trip over output from a previous one.
func (s *Session) drainInput() {
	for {
		n, err := s.port.Read(s.chunk)
		if n == 0 || err != nil {
			return
		}
	}
}

// Send writes one command line and, when waitAck is set, reads lines
// until an "ok", an error line, or the timeout. A timeout with neither
// marker is logged and treated as success under the tolerate policy: the
// caller proceeds optimistically instead of blocking the whole run on a
// dropped line. Each Send is attempted exactly once; there is no retry.
// timeout <= 0 waits forever.
func (s *Session) Send(cmd string, waitAck bool, timeout time.Duration) error {
	if !s.Connected() {
		return ErrNotConnected
	}

	line := strings.TrimSpace(cmd)
	s.log.WithField("cmd", line).Trace("tx")
	if _, err := s.port.Write([]byte(line + "\n")); err != nil {
		return errors.Wrapf(err, "failed to write %q", line)
	}
	if !waitAck {
		return nil
	}
	return s.awaitAck(line, timeout)
}

func (s *Session) awaitAck(cmd string, timeout time.Duration) error {
	start := time.Now()
	for {
		line := s.readLine()
		if line != "" {
			s.log.WithField("line", line).Trace("rx")
			if isErrorLine(line) {
				return &FirmwareError{Line: line}
			}
			if strings.EqualFold(line, ackMarker) {
				return nil
			}
		}
		if timeout > 0 && time.Since(start) > timeout {
			if s.tolerateTimeout {
				s.log.WithFields(logrus.Fields{
					"cmd":     cmd,
					"timeout": timeout,
				}).Warn("no ack from firmware, continuing")
				return nil
			}
			return errors.Wrapf(ErrAckTimeout, "command %q", cmd)
		}
	}
}

// ReadLine returns the next complete line from the firmware, or "" when
// nothing arrived within the port's read timeout. Partial lines are kept
// across calls, never dropped.
func (s *Session) ReadLine() (string, error) {
	if !s.Connected() {
		return "", ErrNotConnected
	}
	return s.readLine(), nil
}

func (s *Session) readLine() string {
	for {
		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := strings.TrimSpace(string(s.buf[:i]))
			s.buf = s.buf[i+1:]
			return line
		}
		n, err := s.port.Read(s.chunk)
		if n > 0 {
			s.buf = append(s.buf, s.chunk[:n]...)
			continue
		}
		if err != nil || n == 0 {
			return ""
		}
	}
}
