package deck_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipette/pipet/pkg/deck"
)

func TestSlotCenterMachine(t *testing.T) {
	d := deck.New()

	// Golden machine coordinates for the stock layout (origin -8, -5).
	tests := []struct {
		slot string
		x    float64
		y    float64
	}{
		{"1", 82.9, 65.0},
		{"2", 234.1, 65.0},
		{"3", 82.9, 165.0},
		{"4", 234.1, 165.0},
		{"5", 82.9, 265.0},
		{"6", 234.1, 265.0},
	}

	for _, tt := range tests {
		x, y, err := d.SlotCenterMachine(tt.slot)
		require.NoError(t, err, "slot %s", tt.slot)
		assert.InDelta(t, tt.x, x, 1e-9, "slot %s x", tt.slot)
		assert.InDelta(t, tt.y, y, 1e-9, "slot %s y", tt.slot)
	}
}

func TestSlotCenterMatchesTranslation(t *testing.T) {
	d := deck.New()

	for _, id := range d.SlotIDs() {
		s, err := d.Slot(id)
		require.NoError(t, err)

		wantX, wantY := d.DeckToMachine(s.X, s.Y)
		gotX, gotY, err := d.SlotCenterMachine(id)
		require.NoError(t, err)
		assert.Equal(t, wantX, gotX)
		assert.Equal(t, wantY, gotY)
	}
}

func TestUnknownSlot(t *testing.T) {
	d := deck.New()

	_, _, err := d.SlotCenterMachine("99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, deck.ErrUnknownSlot))

	_, err = d.Slot("")
	assert.True(t, errors.Is(err, deck.ErrUnknownSlot))
}

func TestDeckToMachineIsPureTranslation(t *testing.T) {
	d := deck.New()

	x1, y1 := d.DeckToMachine(0, 0)
	x2, y2 := d.DeckToMachine(10, 20)
	assert.InDelta(t, 10.0, x2-x1, 1e-9)
	assert.InDelta(t, 20.0, y2-y1, 1e-9)
}
