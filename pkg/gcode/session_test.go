package gcode

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWritesLineAndReadsAck(t *testing.T) {
	p := NewMockPort()
	s := NewWithPort(p)

	err := s.Send("G28", true, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"G28"}, p.Sent())
}

func TestSendNoAckWanted(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = false
	s := NewWithPort(p)

	require.NoError(t, s.Send("M114", false, 0))
	assert.Equal(t, []string{"M114"}, p.Sent())
}

func TestSendFirmwareError(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = false
	s := NewWithPort(p)
	p.Reply("Error: endstop hit")

	err := s.Send("G1 X10.000", true, time.Second)
	require.Error(t, err)

	var fe *FirmwareError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Line, "endstop hit")
}

func TestSendErrorMarkerIsCaseInsensitive(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = false
	s := NewWithPort(p)
	p.Reply("echo: ERROR in command")

	err := s.Send("G1 X10.000", true, time.Second)
	var fe *FirmwareError
	assert.True(t, errors.As(err, &fe))
}

func TestSendTimeoutTolerated(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = false
	s := NewWithPort(p)

	// No reply at all: the optimistic policy logs and proceeds.
	err := s.Send("G1 X10.000", true, 20*time.Millisecond)
	assert.NoError(t, err)
}

func TestSendTimeoutStrict(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = false
	s := NewWithPort(p)
	s.SetTolerateTimeout(false)

	err := s.Send("G1 X10.000", true, 20*time.Millisecond)
	assert.True(t, errors.Is(err, ErrAckTimeout))
}

func TestSendNotConnected(t *testing.T) {
	s := New(DefaultConfig("/dev/null"))

	err := s.Send("G28", true, time.Second)
	assert.True(t, errors.Is(err, ErrNotConnected))

	_, err = s.ReadLine()
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestStaleInputDiscardedOnConnect(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = true
	// Leftovers from a previous session, including an old error line
	// that must not poison the next command.
	p.Reply("Error: previous run", "ok", "garbage")

	s := NewWithPort(p)
	err := s.Send("G28", true, time.Second)
	assert.NoError(t, err)
}

func TestReadLineKeepsPartialLines(t *testing.T) {
	p := NewMockPort()
	p.AutoAck = false
	s := NewWithPort(p)

	// Simulate a line arriving in two chunks with a read gap between.
	p.rd.WriteString("X:1.0 ")
	line, err := s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "", line)

	p.rd.WriteString("Y:2.0\n")
	line, err = s.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "X:1.0 Y:2.0", line)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewMockPort()
	s := NewWithPort(p)

	require.NoError(t, s.Close())
	assert.True(t, p.Closed())
	assert.False(t, s.Connected())
	require.NoError(t, s.Close())
}
