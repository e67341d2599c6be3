package robot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Axis letters the firmware understands. Home silently drops anything
// else, mirroring the firmware's own leniency.
const axisAlphabet = "XYZU"

// plungerClearanceU is the plunger lift applied after a full home so the
// syringe is not left under mechanical preload. Fixed regardless of the
// selected syringe.
const plungerClearanceU = 5.0

const feedHomeLift = 200.0

// dwellAckGrace pads the dwell duration when waiting for its ack; the
// firmware only answers after the pause has elapsed.
const dwellAckGrace = 5 * time.Second

// positionReadLimit bounds how many lines a position query scans for a
// coordinate report.
const positionReadLimit = 20

// Target selects which axes a MoveTo touches and at what feedrate. Nil
// fields are left out of the emitted command, so the firmware holds
// their last commanded value.
type Target struct {
	X, Y, Z, U *float64
	Feedrate   *float64
}

// Float is a convenience for building Targets.
func Float(v float64) *float64 { return &v }

// SetAbsoluteMode switches the firmware to absolute positioning (G90).
// Safe to call repeatedly.
func (c *Controller) SetAbsoluteMode() error {
	if err := c.session.Send("G90", true, c.AckTimeout); err != nil {
		return err
	}
	c.mode = ModeAbsolute
	return nil
}

// SetRelativeMode switches the firmware to relative positioning (G91).
func (c *Controller) SetRelativeMode() error {
	if err := c.session.Send("G91", true, c.AckTimeout); err != nil {
		return err
	}
	c.mode = ModeRelative
	return nil
}

// Home homes the requested axes with G28. Letters outside the axis
// alphabet are ignored, not rejected; the firmware does the same.
func (c *Controller) Home(axes string, timeout time.Duration) error {
	parts := []string{"G28"}
	for _, a := range strings.ToUpper(axes) {
		if strings.ContainsRune(axisAlphabet, a) {
			parts = append(parts, string(a))
		}
	}
	return c.session.Send(strings.Join(parts, " "), true, timeout)
}

// HomeAll homes every axis, then lifts the plunger to its safety
// clearance so the syringe is not squeezed while parked.
func (c *Controller) HomeAll(timeout time.Duration) error {
	if err := c.session.Send("G28", true, timeout); err != nil {
		return err
	}
	return c.MoveTo(Target{U: Float(plungerClearanceU), Feedrate: Float(feedHomeLift)}, c.AckTimeout)
}

// MoveTo issues a point-to-point G1 for the axes set in the target.
// Positions are interpreted in the current mode; callers are responsible
// for having set absolute mode.
func (c *Controller) MoveTo(t Target, timeout time.Duration) error {
	parts := []string{"G1"}
	appendAxis(&parts, "X", t.X)
	appendAxis(&parts, "Y", t.Y)
	appendAxis(&parts, "Z", t.Z)
	appendAxis(&parts, "U", t.U)
	if t.Feedrate != nil {
		parts = append(parts, fmt.Sprintf("F%.0f", *t.Feedrate))
	}
	return c.session.Send(strings.Join(parts, " "), true, timeout)
}

func appendAxis(parts *[]string, letter string, v *float64) {
	if v != nil {
		*parts = append(*parts, fmt.Sprintf("%s%.3f", letter, *v))
	}
}

// MoveRelative issues one combined-axis relative move. Only non-zero
// deltas are included. The firmware is switched to relative mode for the
// move and guaranteed to be back in absolute mode when this returns,
// whether the move acked, errored, or timed out.
func (c *Controller) MoveRelative(dx, dy, dz, du float64, feedrate *float64, timeout time.Duration) error {
	if err := c.SetRelativeMode(); err != nil {
		return err
	}

	parts := []string{"G1"}
	appendDelta(&parts, "X", dx)
	appendDelta(&parts, "Y", dy)
	appendDelta(&parts, "Z", dz)
	appendDelta(&parts, "U", du)
	if feedrate != nil {
		parts = append(parts, fmt.Sprintf("F%.0f", *feedrate))
	}
	moveErr := c.session.Send(strings.Join(parts, " "), true, timeout)

	if err := c.SetAbsoluteMode(); err != nil && moveErr == nil {
		moveErr = err
	}
	return moveErr
}

func appendDelta(parts *[]string, letter string, v float64) {
	if v != 0 {
		*parts = append(*parts, fmt.Sprintf("%s%.3f", letter, v))
	}
}

// Dwell pauses the firmware with G4 so motion already queued in the
// controller finishes before the pause is measured. A local sleep would
// not give that guarantee.
func (c *Controller) Dwell(seconds float64) error {
	ms := int(seconds * 1000)
	timeout := time.Duration(seconds*float64(time.Second)) + dwellAckGrace
	return c.session.Send(fmt.Sprintf("G4 P%d", ms), true, timeout)
}

// QueryPosition asks the firmware for the current position with M114 and
// parses the first report line seen. Returns an empty map if no report
// arrived within the read budget.
func (c *Controller) QueryPosition() (map[string]float64, error) {
	if err := c.session.Send("M114", false, 0); err != nil {
		return nil, err
	}

	for i := 0; i < positionReadLimit; i++ {
		line, err := c.session.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "" || !strings.Contains(line, "X:") {
			continue
		}
		return parsePositionLine(line), nil
	}
	return map[string]float64{}, nil
}

// parsePositionLine extracts axis-tagged key:value tokens from a report
// like "X:10.000 Y:20.000 Z:30.000 U:5.000 Count X:800 ...". The first
// occurrence of each axis wins; the trailing step counts do not.
func parsePositionLine(line string) map[string]float64 {
	pos := make(map[string]float64, 4)
	for _, tok := range strings.Fields(strings.ReplaceAll(line, ",", " ")) {
		key, val, ok := strings.Cut(tok, ":")
		if !ok {
			continue
		}
		switch key {
		case "X", "Y", "Z", "U":
			if _, seen := pos[key]; seen {
				continue
			}
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				pos[key] = f
			}
		}
	}
	return pos
}

// moveXY, moveZ and moveU are the shapes choreography actually uses:
// lateral travel, a height change, or a plunger move, never combined.

func (c *Controller) moveXY(x, y, feedrate float64) error {
	return c.MoveTo(Target{X: &x, Y: &y, Feedrate: &feedrate}, c.AckTimeout)
}

func (c *Controller) moveZ(z, feedrate float64) error {
	return c.MoveTo(Target{Z: &z, Feedrate: &feedrate}, c.AckTimeout)
}

func (c *Controller) moveU(u, feedrate float64) error {
	return c.MoveTo(Target{U: &u, Feedrate: &feedrate}, c.AckTimeout)
}
