package gcode

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// Port is the byte stream a Session talks over. Production ports are
// serial devices; tests inject a MockPort.
type Port interface {
	io.ReadWriteCloser
}

// Config describes how to open a serial port.
type Config struct {
	// Device path, e.g. "/dev/ttyUSB0" or "COM4".
	Device string

	// Baud rate, 115200 for the stock controller board.
	Baud int

	// ReadTimeout bounds a single Read so acknowledgement loops poll
	// instead of blocking forever on a silent firmware.
	ReadTimeout time.Duration
}

// DefaultConfig returns the stock controller settings for a device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

func openPort(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("port config cannot be nil")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", cfg.Device)
	}
	return p, nil
}
