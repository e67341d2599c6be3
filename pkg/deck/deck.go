// Package deck describes the platform coordinate system: where the deck
// origin sits in machine space and where every SBS slot center is. All
// positions are fixed at construction time, so a Deck is safe to share
// between concurrent readers.
package deck

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknownSlot is returned when a slot id is not part of the layout.
var ErrUnknownSlot = errors.New("unknown slot")

// Slot is a single SBS slot, identified by id and positioned by its
// center in deck space.
type Slot struct {
	ID string
	X  float64
	Y  float64
}

// Position of deck (0, 0) in machine coordinates.
const (
	originX = -8.0
	originY = -5.0
)

// Stock 6-slot layout (2 columns x 3 rows), centers in deck space.
var slotCenters = map[string]Slot{
	"1": {ID: "1", X: 90.9, Y: 70.0},
	"2": {ID: "2", X: 242.1, Y: 70.0},
	"3": {ID: "3", X: 90.9, Y: 170.0},
	"4": {ID: "4", X: 242.1, Y: 170.0},
	"5": {ID: "5", X: 90.9, Y: 270.0},
	"6": {ID: "6", X: 242.1, Y: 270.0},
}

// Deck holds the platform layout. Immutable after New.
type Deck struct {
	originX float64
	originY float64
	slots   map[string]Slot
}

// New returns a Deck with the stock layout.
func New() *Deck {
	slots := make(map[string]Slot, len(slotCenters))
	for id, s := range slotCenters {
		slots[id] = s
	}
	return &Deck{
		originX: originX,
		originY: originY,
		slots:   slots,
	}
}

// DeckToMachine translates a deck-space coordinate into machine space.
func (d *Deck) DeckToMachine(x, y float64) (float64, float64) {
	return d.originX + x, d.originY + y
}

// Slot looks up a slot by id.
func (d *Deck) Slot(id string) (Slot, error) {
	s, ok := d.slots[id]
	if !ok {
		return Slot{}, errors.Wrapf(ErrUnknownSlot, "slot %q", id)
	}
	return s, nil
}

// SlotIDs returns all slot ids in sorted order.
func (d *Deck) SlotIDs() []string {
	ids := make([]string, 0, len(d.slots))
	for id := range d.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SlotCenterMachine returns a slot center in machine coordinates.
func (d *Deck) SlotCenterMachine(id string) (float64, float64, error) {
	s, err := d.Slot(id)
	if err != nil {
		return 0, 0, err
	}
	x, y := d.DeckToMachine(s.X, s.Y)
	return x, y, nil
}
