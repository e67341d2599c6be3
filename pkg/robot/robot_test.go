package robot_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipette/pipet/pkg/deck"
	"github.com/openpipette/pipet/pkg/gcode"
	"github.com/openpipette/pipet/pkg/labware"
	"github.com/openpipette/pipet/pkg/robot"
	"github.com/openpipette/pipet/pkg/syringe"
)

func newTestRobot(t *testing.T) (*robot.Controller, *gcode.MockPort) {
	t.Helper()
	p := gcode.NewMockPort()
	c := robot.New(gcode.NewWithPort(p), deck.New())
	c.AckTimeout = 50 * time.Millisecond
	return c, p
}

// wellXY resolves a well center the same way the controller does, so
// sequence tests stay readable.
func wellXY(t *testing.T, lt *labware.Type, slot, well string) (float64, float64) {
	t.Helper()
	inst, err := labware.NewInstance(lt, deck.New(), slot, "test")
	require.NoError(t, err)
	x, y, err := inst.WellPositionMachine(well)
	require.NoError(t, err)
	return x, y
}

func TestHomeFiltersAxisLetters(t *testing.T) {
	c, p := newTestRobot(t)

	require.NoError(t, c.Home("xQz9", time.Second))
	assert.Equal(t, []string{"G28 X Z"}, p.Sent())
}

func TestHomeAllLiftsPlunger(t *testing.T) {
	c, p := newTestRobot(t)

	require.NoError(t, c.HomeAll(time.Second))
	assert.Equal(t, []string{"G28", "G1 U5.000 F200"}, p.Sent())
}

func TestDwellEmitsFirmwarePause(t *testing.T) {
	c, p := newTestRobot(t)

	require.NoError(t, c.Dwell(0.2))
	assert.Equal(t, []string{"G4 P200"}, p.Sent())
}

func TestMoveToOmitsUnsetAxes(t *testing.T) {
	c, p := newTestRobot(t)

	err := c.MoveTo(robot.Target{Z: robot.Float(100), Feedrate: robot.Float(750)}, time.Second)
	require.NoError(t, err)
	err = c.MoveTo(robot.Target{X: robot.Float(1.5), Y: robot.Float(-2)}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"G1 Z100.000 F750", "G1 X1.500 Y-2.000"}, p.Sent())
}

func TestMoveRelativeRestoresAbsoluteMode(t *testing.T) {
	c, p := newTestRobot(t)

	require.NoError(t, c.MoveRelative(1.5, 0, -2, 0, nil, time.Second))
	assert.Equal(t, []string{"G91", "G1 X1.500 Z-2.000", "G90"}, p.Sent())
	assert.Equal(t, robot.ModeAbsolute, c.Mode())
}

func TestMoveRelativeRestoresModeOnTimeout(t *testing.T) {
	c, p := newTestRobot(t)
	p.AutoAck = false

	// No acks at all: every send times out and is tolerated.
	require.NoError(t, c.MoveRelative(0, 0, 0, 3, nil, 10*time.Millisecond))
	assert.Equal(t, []string{"G91", "G1 U3.000", "G90"}, p.Sent())
	assert.Equal(t, robot.ModeAbsolute, c.Mode())
}

func TestMoveRelativeRestoresModeOnFirmwareError(t *testing.T) {
	c, p := newTestRobot(t)
	p.AutoAck = false
	p.Reply("ok", "Error: axis blocked", "ok")

	err := c.MoveRelative(0, 0, 0, 3, nil, time.Second)
	var fe *gcode.FirmwareError
	require.True(t, errors.As(err, &fe))

	// G90 was still issued after the failed move.
	assert.Equal(t, []string{"G91", "G1 U3.000", "G90"}, p.Sent())
	assert.Equal(t, robot.ModeAbsolute, c.Mode())
}

func TestQueryPosition(t *testing.T) {
	c, p := newTestRobot(t)
	p.AutoAck = false
	p.Reply(
		"echo: busy processing",
		"X:10.000 Y:20.000 Z:30.000 U:5.000 Count X:800 Y:123",
	)

	pos, err := c.QueryPosition()
	require.NoError(t, err)
	assert.Equal(t, []string{"M114"}, p.Sent())

	// The report values win over the trailing step counts.
	assert.Equal(t, map[string]float64{"X": 10, "Y": 20, "Z": 30, "U": 5}, pos)
}

func TestQueryPositionNoReport(t *testing.T) {
	c, p := newTestRobot(t)
	p.AutoAck = false

	pos, err := c.QueryPosition()
	require.NoError(t, err)
	assert.Empty(t, pos)
}

func TestTransferScenario(t *testing.T) {
	c, p := newTestRobot(t)
	require.NoError(t, c.SetSyringe("1ml"))

	// 50 uL at 0.06 U/uL from baseline 5.0: plunger 5 -> 8 -> 5.
	require.NoError(t, c.Transfer("4", "A1", "4", "B3", 50.0, "1ml"))

	srcX, srcY := wellXY(t, labware.Plate48, "4", "A1")
	dstX, dstY := wellXY(t, labware.Plate48, "4", "B3")
	want := []string{
		"G90",
		"G1 U5.000 F200",
		"G1 Z158.000 F300",
		fmt.Sprintf("G1 X%.3f Y%.3f F3000", srcX, srcY),
		"G1 Z170.000 F200",
		"G1 U8.000 F200",
		"G1 Z158.000 F300",
		"G1 Z158.000 F300",
		fmt.Sprintf("G1 X%.3f Y%.3f F3000", dstX, dstY),
		"G1 Z170.000 F200",
		"G1 U5.000 F200",
		"G1 Z158.000 F300",
	}
	assert.Equal(t, want, p.Sent())
}

func TestPickUpTipSequence(t *testing.T) {
	c, p := newTestRobot(t)

	require.NoError(t, c.PickUpTip("1", "A1", 2))

	x, y := wellXY(t, labware.Tiprack96, "1", "A1")
	want := []string{
		"G90",
		"G1 Z100.000 F750",
		fmt.Sprintf("G1 X%.3f Y%.3f F7500", x, y),
		"G1 Z170.000 F750",
		"G4 P200",
		"G1 Z172.000 F600", "G4 P200", "G1 Z170.000 F600", "G4 P200",
		"G1 Z172.000 F600", "G4 P200", "G1 Z170.000 F600", "G4 P200",
		"G1 Z176.000 F750",
		"G4 P200",
		"G1 Z172.000 F750",
		"G1 Z100.000 F600",
	}
	assert.Equal(t, want, p.Sent())
}

func TestDropTipScrapeRightEdge(t *testing.T) {
	c, p := newTestRobot(t)

	require.NoError(t, c.DropTipScrape("2", robot.EdgeRight))

	// Slot 2 center is machine (234.1, 65.0); the scrape target is past
	// the right wall, not the left one.
	want := []string{
		"G90",
		"G1 Z100.000 F600",
		"G1 X234.100 Y65.000 F7500",
		"G1 Z170.000 F750",
		"G1 X318.100 Y65.000 F2000",
		"G1 Z100.000 F600",
	}
	assert.Equal(t, want, p.Sent())
}

func TestDropTipScrapeInvalidEdge(t *testing.T) {
	c, p := newTestRobot(t)

	err := c.DropTipScrape("2", "up")
	assert.True(t, errors.Is(err, robot.ErrInvalidEdge))
	assert.Empty(t, p.Sent())
}

func TestAspirateAddressedPlate(t *testing.T) {
	c, p := newTestRobot(t)
	require.NoError(t, c.SetSyringe("1ml"))

	require.NoError(t, c.Aspirate(robot.LiquidOp{VolumeUL: 50, Slot: "4", Well: "A1"}))

	x, y := wellXY(t, labware.Plate48, "4", "A1")
	want := []string{
		// Plates are approached laterally first, then the height drops.
		"G90",
		fmt.Sprintf("G1 X%.3f Y%.3f F7500", x, y),
		"G1 Z170.000 F600",
		"G91", "G1 U3.000 F200", "G90",
		"G1 Z158.000 F750",
	}
	assert.Equal(t, want, p.Sent())
}

func TestAspirateFromBeakerClimbsBeforeLateral(t *testing.T) {
	c, p := newTestRobot(t)
	require.NoError(t, c.SetSyringe("1ml"))

	require.NoError(t, c.AspirateFromBeaker("3", 50, ""))

	want := []string{
		// Reservoir: lift to safe height before any lateral travel.
		"G90",
		"G1 Z100.000 F750",
		"G1 X82.900 Y165.000 F7500",
		"G1 Z150.000 F600",
		"G91", "G1 U3.000 F200", "G90",
		"G1 Z100.000 F750",
	}
	assert.Equal(t, want, p.Sent())
}

func TestDispenseAtCurrentPosition(t *testing.T) {
	c, p := newTestRobot(t)
	require.NoError(t, c.SetSyringe("1ml"))

	err := c.Dispense(robot.LiquidOp{
		VolumeUL: 50,
		SafeZ:    robot.Float(100),
		WorkZ:    robot.Float(150),
	})
	require.NoError(t, err)

	want := []string{
		"G90",
		"G1 Z100.000 F750",
		"G1 Z150.000 F600",
		"G91", "G1 U-3.000 F200", "G90",
		"G1 Z100.000 F750",
	}
	assert.Equal(t, want, p.Sent())
}

func TestPreconditionFailuresIssueNoMotion(t *testing.T) {
	tests := []struct {
		name    string
		run     func(c *robot.Controller) error
		wantErr error
	}{
		{
			name:    "well out of range",
			run:     func(c *robot.Controller) error { return c.Transfer("4", "Z9", "4", "B3", 50, "1ml") },
			wantErr: labware.ErrAddressOutOfRange,
		},
		{
			name:    "unknown slot",
			run:     func(c *robot.Controller) error { return c.PickUpTip("9", "A1", 2) },
			wantErr: deck.ErrUnknownSlot,
		},
		{
			name:    "volume over calibration bound",
			run:     func(c *robot.Controller) error { return c.Transfer("4", "A1", "4", "B3", 1100, "1ml") },
			wantErr: syringe.ErrTravelOutOfRange,
		},
		{
			name:    "aspirate over calibration bound",
			run:     func(c *robot.Controller) error { return c.Aspirate(robot.LiquidOp{VolumeUL: 1100, Syringe: "1ml", Slot: "4", Well: "A1"}) },
			wantErr: syringe.ErrTravelOutOfRange,
		},
		{
			name:    "no syringe selected",
			run:     func(c *robot.Controller) error { return c.Transfer("4", "A1", "4", "B3", 50, "") },
			wantErr: syringe.ErrNoSyringeSelected,
		},
		{
			name:    "unknown syringe",
			run:     func(c *robot.Controller) error { return c.Transfer("4", "A1", "4", "B3", 50, "50ml") },
			wantErr: syringe.ErrUnknownSyringe,
		},
		{
			name:    "no addressing mode",
			run:     func(c *robot.Controller) error { return c.Aspirate(robot.LiquidOp{VolumeUL: 50, Syringe: "1ml"}) },
			wantErr: robot.ErrMissingAddress,
		},
		{
			name: "both addressing modes",
			run: func(c *robot.Controller) error {
				return c.Aspirate(robot.LiquidOp{
					VolumeUL: 50, Syringe: "1ml",
					Slot: "4", Well: "A1",
					SafeZ: robot.Float(100), WorkZ: robot.Float(150),
				})
			},
			wantErr: robot.ErrMissingAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p := newTestRobot(t)
			err := tt.run(c)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, p.Sent(), "no command may be issued on a precondition failure")
		})
	}
}
