// Package config holds the daemon's file-backed configuration.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is the daemon configuration.
type Config struct {
	// Device is the serial port the robot is attached to.
	Device string `json:"device"`
	// Baud is the serial baud rate.
	Baud int `json:"baud"`
	// ReadTimeoutMS bounds a single serial read in milliseconds.
	ReadTimeoutMS int `json:"readTimeoutMS"`
	// DefaultSyringe is selected automatically on connect. Empty means
	// no selection.
	DefaultSyringe string `json:"defaultSyringe"`
	// TolerateTimeout keeps the optimistic missing-ack policy. Set to
	// false only on links reliable enough to demand strict acks.
	TolerateTimeout bool `json:"tolerateTimeout"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Device:          "/dev/ttyUSB0",
		Baud:            115200,
		ReadTimeoutMS:   100,
		DefaultSyringe:  "1ml",
		TolerateTimeout: true,
	}
}

// Load reads the configuration file, writing the defaults first if it
// does not exist yet.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		c := Default()
		logrus.Warnf("config file %s does not exist, writing default config %#v", path, c)
		if err := c.Save(path); err != nil {
			return c, err
		}
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return c, nil
}

// Save writes the configuration file.
func (c Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
