package protocol

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openpipette/pipet/pkg/labware"
	"github.com/openpipette/pipet/pkg/robot"
)

// Machine is the slice of the robot controller a protocol run needs.
type Machine interface {
	Home(axes string, timeout time.Duration) error
	PickUpTip(slot, well string, cycles int) error
	DropTipScrape(slot string, edge robot.Edge) error
	Transfer(srcSlot, srcWell, dstSlot, dstWell string, volumeUL float64, syringe string) error
	Aspirate(op robot.LiquidOp) error
	Dispense(op robot.LiquidOp) error
	Dwell(seconds float64) error
}

// StepFailure reports where a run halted and why. Steps after the
// failing one are never executed.
type StepFailure struct {
	Index int // zero-based
	Step  Step
	Err   error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Step.Kind(), e.Err)
}

func (e *StepFailure) Unwrap() error {
	return e.Err
}

// Run executes steps strictly in order and halts at the first failure.
// Nothing is skipped, retried, or rolled back.
func Run(m Machine, steps []Step) error {
	for i, s := range steps {
		logrus.WithFields(logrus.Fields{
			"step": i + 1,
			"of":   len(steps),
			"kind": s.Kind(),
		}).Info("running protocol step")

		if err := runStep(m, s); err != nil {
			return &StepFailure{Index: i, Step: s, Err: err}
		}
	}
	return nil
}

func runStep(m Machine, s Step) error {
	switch st := s.(type) {
	case HomeXYZ:
		return m.Home("XYZ", robot.DefaultHomeTimeout)

	case PickTip:
		return m.PickUpTip(st.Slot, st.Well, robot.DefaultSeatCycles)

	case DropTip:
		return m.DropTipScrape(st.Slot, st.Edge)

	case Transfer:
		return m.Transfer(st.SrcSlot, st.SrcWell, st.DstSlot, st.DstWell, st.VolumeUL, st.Syringe)

	case Aspirate:
		return m.Aspirate(liquidOp(st.Slot, st.Well, st.VolumeUL, st.Syringe))

	case Dispense:
		return m.Dispense(liquidOp(st.Slot, st.Well, st.VolumeUL, st.Syringe))

	case Dwell:
		return m.Dwell(st.Seconds)
	}

	return errors.Wrapf(ErrUnknownStepKind, "%T", s)
}

// liquidOp builds the controller request for a liquid step. A step with
// no well addresses the canonical single-well reservoir on that slot
// instead of a plate well.
func liquidOp(slot, well string, volumeUL float64, syr string) robot.LiquidOp {
	op := robot.LiquidOp{
		VolumeUL: volumeUL,
		Syringe:  syr,
		Slot:     slot,
		Well:     well,
	}
	if well == "" {
		op.Well = labware.ReservoirWell
		op.Labware = labware.Beaker
	}
	return op
}
