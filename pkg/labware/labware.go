// Package labware defines the geometry of the vessels that sit on deck
// slots (tip racks, well plates, reservoirs, the tip waste box) and maps
// well addresses like "A1" to machine coordinates.
package labware

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/openpipette/pipet/pkg/deck"
)

var (
	// ErrBadWell is returned for well names that cannot be parsed at all.
	ErrBadWell = errors.New("malformed well name")

	// ErrAddressOutOfRange is returned when a parsed row or column falls
	// outside the labware type's grid.
	ErrAddressOutOfRange = errors.New("well address out of range")

	// ErrIncompleteLabware is returned when an operation needs a Z height
	// the labware type does not define.
	ErrIncompleteLabware = errors.New("labware type missing required height")
)

// Type is a labware geometry template. Rows/Cols and the pitches describe
// the well grid; OffsetX/OffsetY place well A1 relative to the slot
// center (deck space). All Z heights are machine-space. The optional
// heights use nil for "not defined for this labware".
type Type struct {
	Name  string
	Rows  int
	Cols  int
	PitchX float64
	PitchY float64
	OffsetX float64
	OffsetY float64

	// SafeZ is the height at which lateral travel over this labware is
	// collision-free. BottomZ is near the well bottom.
	SafeZ   float64
	BottomZ float64

	// Liquid heights. Nil falls back to BottomZ.
	AspirateZ *float64
	DispenseZ *float64

	// Tip seating heights (tip racks) and the tip scraping height
	// (waste box).
	TouchZ  *float64
	PressZ  *float64
	FullZ   *float64
	ScrapeZ *float64

	// Reservoir marks single-well vessels whose walls rise above plate
	// clearance, so approaches must climb before moving laterally.
	Reservoir bool
}

// Height is a convenience for building Types with optional heights.
func Height(v float64) *float64 { return &v }

// AspirateHeight resolves the height liquids are drawn at: AspirateZ if
// set, otherwise BottomZ.
func (t *Type) AspirateHeight() float64 {
	if t.AspirateZ != nil {
		return *t.AspirateZ
	}
	return t.BottomZ
}

// DispenseHeight resolves the height liquids are pushed out at:
// DispenseZ if set, otherwise BottomZ.
func (t *Type) DispenseHeight() float64 {
	if t.DispenseZ != nil {
		return *t.DispenseZ
	}
	return t.BottomZ
}

// TipHeights returns the touch/press/full-insertion heights used to seat
// a tip, or ErrIncompleteLabware if the type does not define all three.
func (t *Type) TipHeights() (touch, press, full float64, err error) {
	if t.TouchZ == nil || t.PressZ == nil || t.FullZ == nil {
		return 0, 0, 0, errors.Wrapf(ErrIncompleteLabware, "%s: tip heights", t.Name)
	}
	return *t.TouchZ, *t.PressZ, *t.FullZ, nil
}

// ScrapeHeight returns the height at which a tip is sheared off against
// the waste box wall.
func (t *Type) ScrapeHeight() (float64, error) {
	if t.ScrapeZ == nil {
		return 0, errors.Wrapf(ErrIncompleteLabware, "%s: scrape height", t.Name)
	}
	return *t.ScrapeZ, nil
}

// parseWell converts a well name like "A1" or "b12" into zero-based row
// and column indices, validated against the grid.
func (t *Type) parseWell(well string) (row, col int, err error) {
	w := strings.ToUpper(strings.TrimSpace(well))
	if len(w) < 2 {
		return 0, 0, errors.Wrapf(ErrBadWell, "%q", well)
	}
	r := w[0]
	if r < 'A' || r > 'Z' {
		return 0, 0, errors.Wrapf(ErrBadWell, "%q", well)
	}
	n, err := strconv.Atoi(w[1:])
	if err != nil {
		return 0, 0, errors.Wrapf(ErrBadWell, "%q", well)
	}
	row = int(r - 'A')
	col = n - 1
	if row < 0 || row >= t.Rows {
		return 0, 0, errors.Wrapf(ErrAddressOutOfRange, "%s: row of %q", t.Name, well)
	}
	if col < 0 || col >= t.Cols {
		return 0, 0, errors.Wrapf(ErrAddressOutOfRange, "%s: column of %q", t.Name, well)
	}
	return row, col, nil
}

// Instance is a labware type placed on a specific deck slot. Instances
// are cheap and ephemeral: choreography constructs one per operation.
type Instance struct {
	Type  *Type
	Slot  deck.Slot
	Label string

	deck *deck.Deck
}

// NewInstance places a labware type on a slot.
func NewInstance(t *Type, d *deck.Deck, slotID, label string) (*Instance, error) {
	s, err := d.Slot(slotID)
	if err != nil {
		return nil, err
	}
	return &Instance{Type: t, Slot: s, Label: label, deck: d}, nil
}

// WellPositionDeck returns a well center in deck space.
func (in *Instance) WellPositionDeck(well string) (float64, float64, error) {
	row, col, err := in.Type.parseWell(well)
	if err != nil {
		return 0, 0, err
	}
	x := in.Slot.X + in.Type.OffsetX + float64(col)*in.Type.PitchX
	y := in.Slot.Y + in.Type.OffsetY + float64(row)*in.Type.PitchY
	return x, y, nil
}

// WellPositionMachine returns a well center in machine space.
func (in *Instance) WellPositionMachine(well string) (float64, float64, error) {
	x, y, err := in.WellPositionDeck(well)
	if err != nil {
		return 0, 0, err
	}
	mx, my := in.deck.DeckToMachine(x, y)
	return mx, my, nil
}
