// Package robot turns liquid-handling intents into ordered sequences of
// G-code moves. The Controller owns the per-connection state the
// firmware cannot be asked about: the positioning mode and the selected
// syringe calibration. Every choreography sequence obeys one safety
// rule: lateral travel only happens at or above a safe height, and
// descent only happens once the lateral position is correct.
package robot

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openpipette/pipet/pkg/deck"
	"github.com/openpipette/pipet/pkg/gcode"
	"github.com/openpipette/pipet/pkg/syringe"
)

// Mode is the firmware positioning mode.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeAbsolute
	ModeRelative
)

// Default acknowledgement deadlines. Homing sweeps the full Z travel, so
// it gets a much larger bound.
const (
	DefaultMoveTimeout = 999 * time.Second
	DefaultHomeTimeout = 9999 * time.Second
)

// Controller is the runtime session against one robot: an open serial
// session, the deck layout, and the mutable mode/syringe state. It is
// not safe for concurrent use; callers route all access through one
// command path.
type Controller struct {
	session *gcode.Session
	deck    *deck.Deck

	mode    Mode
	syringe *syringe.Type

	// AckTimeout bounds the wait for an ack on moves issued inside
	// choreography sequences and mode switches.
	AckTimeout time.Duration

	log *logrus.Entry
}

// New returns a controller for an opened (or about to be opened) session.
func New(session *gcode.Session, d *deck.Deck) *Controller {
	return &Controller{
		session:    session,
		deck:       d,
		AckTimeout: DefaultMoveTimeout,
		log:        logrus.WithField("component", "robot"),
	}
}

// Deck returns the platform layout the controller resolves slots on.
func (c *Controller) Deck() *deck.Deck {
	return c.deck
}

// Connected reports whether the underlying serial session is open.
func (c *Controller) Connected() bool {
	return c.session.Connected()
}

// Close shuts down the serial session.
func (c *Controller) Close() error {
	return c.session.Close()
}

// Mode returns the last commanded positioning mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// SetSyringe selects the calibration used by volume-based operations.
func (c *Controller) SetSyringe(name string) error {
	t, err := syringe.Resolve(name)
	if err != nil {
		return err
	}
	c.syringe = t
	c.log.WithField("syringe", name).Info("syringe selected")
	return nil
}

// Syringe returns the selected calibration, or nil.
func (c *Controller) Syringe() *syringe.Type {
	return c.syringe
}

// resolveSyringe prefers an explicitly named calibration over the
// selected one.
func (c *Controller) resolveSyringe(name string) (*syringe.Type, error) {
	if name != "" {
		return syringe.Resolve(name)
	}
	if c.syringe == nil {
		return nil, syringe.ErrNoSyringeSelected
	}
	return c.syringe, nil
}
