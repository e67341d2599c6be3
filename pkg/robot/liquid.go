package robot

import (
	"github.com/openpipette/pipet/pkg/labware"
)

// Feedrates (mm/min) from bench tuning of the shipped platform. Transfers
// run Z slower than single aspirates because the syringe is loaded.
const (
	feedTravelXY   = 7500.0
	feedTransferXY = 3000.0
	feedScrapeXY   = 2000.0

	feedTipZ  = 750.0
	feedSeatZ = 600.0
	feedSafeZ = 600.0

	feedPlateDownZ = 600.0
	feedPlateUpZ   = 750.0

	feedTransferDownZ = 200.0
	feedTransferUpZ   = 300.0

	feedPlungerU = 200.0
)

// Tip seating dwell between height changes.
const seatDwellSeconds = 0.2

// DefaultSeatCycles is how many press/touch oscillations seat a tip.
const DefaultSeatCycles = 2

// Waste box scrape geometry: slot center to wall, plus how far past the
// wall the carriage travels so the tip collar clears it.
const (
	slotHalfWidth   = 64.0
	scrapeOvershoot = 20.0
)

// Edge selects which waste box wall a tip is scraped against.
type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// PickUpTip seats a fresh tip from a tip rack well by pressing into it.
// The press/touch oscillation seats the tip through friction; cycles <= 0
// uses DefaultSeatCycles. No motion is issued if the rack geometry or the
// well address does not resolve.
func (c *Controller) PickUpTip(slotID, well string, cycles int) error {
	if cycles <= 0 {
		cycles = DefaultSeatCycles
	}

	rack, err := labware.NewInstance(labware.Tiprack96, c.deck, slotID, "tiprack_slot"+slotID)
	if err != nil {
		return err
	}
	touch, press, full, err := rack.Type.TipHeights()
	if err != nil {
		return err
	}
	x, y, err := rack.WellPositionMachine(well)
	if err != nil {
		return err
	}

	c.log.WithField("slot", slotID).WithField("well", well).Info("picking up tip")

	if err := c.SetAbsoluteMode(); err != nil {
		return err
	}
	if err := c.moveZ(rack.Type.SafeZ, feedTipZ); err != nil {
		return err
	}
	if err := c.moveXY(x, y, feedTravelXY); err != nil {
		return err
	}
	if err := c.moveZ(touch, feedTipZ); err != nil {
		return err
	}
	if err := c.Dwell(seatDwellSeconds); err != nil {
		return err
	}
	for i := 0; i < cycles; i++ {
		if err := c.moveZ(press, feedSeatZ); err != nil {
			return err
		}
		if err := c.Dwell(seatDwellSeconds); err != nil {
			return err
		}
		if err := c.moveZ(touch, feedSeatZ); err != nil {
			return err
		}
		if err := c.Dwell(seatDwellSeconds); err != nil {
			return err
		}
	}
	if err := c.moveZ(full, feedTipZ); err != nil {
		return err
	}
	if err := c.Dwell(seatDwellSeconds); err != nil {
		return err
	}
	if err := c.moveZ(press, feedTipZ); err != nil {
		return err
	}
	return c.moveZ(rack.Type.SafeZ, feedSafeZ)
}

// DropTipScrape strips the mounted tip by shearing it against a waste
// box wall: descend to scrape height at the slot center, then travel
// laterally past the wall.
func (c *Controller) DropTipScrape(slotID string, edge Edge) error {
	waste, err := labware.NewInstance(labware.TipWasteBox, c.deck, slotID, "tipwaste_slot"+slotID)
	if err != nil {
		return err
	}
	scrape, err := waste.Type.ScrapeHeight()
	if err != nil {
		return err
	}
	cx, cy, err := c.deck.SlotCenterMachine(slotID)
	if err != nil {
		return err
	}

	var xTarget float64
	switch edge {
	case EdgeLeft:
		xTarget = cx - slotHalfWidth - scrapeOvershoot
	case EdgeRight:
		xTarget = cx + slotHalfWidth + scrapeOvershoot
	default:
		return ErrInvalidEdge
	}

	c.log.WithField("slot", slotID).WithField("edge", edge).Info("scraping off tip")

	if err := c.SetAbsoluteMode(); err != nil {
		return err
	}
	if err := c.moveZ(waste.Type.SafeZ, feedSafeZ); err != nil {
		return err
	}
	if err := c.moveXY(cx, cy, feedTravelXY); err != nil {
		return err
	}
	if err := c.moveZ(scrape, feedTipZ); err != nil {
		return err
	}
	if err := c.moveXY(xTarget, cy, feedScrapeXY); err != nil {
		return err
	}
	return c.moveZ(waste.Type.SafeZ, feedSafeZ)
}

// Transfer moves volumeUL from one well to another using absolute
// plunger positions: baseline, baseline+travel at the source, back to
// baseline at the destination. Source and destination are resolved
// independently as 48-well plates, each with its own heights. All
// geometry and calibration checks pass before the first command leaves.
func (c *Controller) Transfer(srcSlot, srcWell, dstSlot, dstWell string, volumeUL float64, syringeName string) error {
	syr, err := c.resolveSyringe(syringeName)
	if err != nil {
		return err
	}
	travel := syr.TravelForVolume(volumeUL)
	if err := syr.CheckTravel(travel); err != nil {
		return err
	}
	uBase := syr.UBase
	uAspirate := uBase + travel

	src, err := labware.NewInstance(labware.Plate48, c.deck, srcSlot, "plate_src_slot"+srcSlot)
	if err != nil {
		return err
	}
	dst, err := labware.NewInstance(labware.Plate48, c.deck, dstSlot, "plate_dst_slot"+dstSlot)
	if err != nil {
		return err
	}
	srcX, srcY, err := src.WellPositionMachine(srcWell)
	if err != nil {
		return err
	}
	dstX, dstY, err := dst.WellPositionMachine(dstWell)
	if err != nil {
		return err
	}

	c.log.WithField("volume_ul", volumeUL).
		WithField("src", srcSlot+"/"+srcWell).
		WithField("dst", dstSlot+"/"+dstWell).
		Info("transferring")

	if err := c.SetAbsoluteMode(); err != nil {
		return err
	}

	// Aspirate at the source.
	if err := c.moveU(uBase, feedPlungerU); err != nil {
		return err
	}
	if err := c.moveZ(src.Type.SafeZ, feedTransferUpZ); err != nil {
		return err
	}
	if err := c.moveXY(srcX, srcY, feedTransferXY); err != nil {
		return err
	}
	if err := c.moveZ(src.Type.AspirateHeight(), feedTransferDownZ); err != nil {
		return err
	}
	if err := c.moveU(uAspirate, feedPlungerU); err != nil {
		return err
	}
	if err := c.moveZ(src.Type.SafeZ, feedTransferUpZ); err != nil {
		return err
	}

	// Dispense at the destination.
	if err := c.moveZ(dst.Type.SafeZ, feedTransferUpZ); err != nil {
		return err
	}
	if err := c.moveXY(dstX, dstY, feedTransferXY); err != nil {
		return err
	}
	if err := c.moveZ(dst.Type.DispenseHeight(), feedTransferDownZ); err != nil {
		return err
	}
	if err := c.moveU(uBase, feedPlungerU); err != nil {
		return err
	}
	return c.moveZ(dst.Type.SafeZ, feedTransferUpZ)
}

// LiquidOp describes a single aspirate or dispense.
//
// Addressing is one of two modes, and exactly one must be supplied:
// Slot+Well resolves heights from the labware type (Plate48 unless
// Labware is set); SafeZ+WorkZ operates wherever the machine currently
// sits, for vessels with no well grid.
type LiquidOp struct {
	VolumeUL float64

	// Syringe names a calibration; empty falls back to the selected one.
	Syringe string

	Slot    string
	Well    string
	Labware *labware.Type

	SafeZ *float64
	WorkZ *float64
}

func (op LiquidOp) addressed() bool {
	return op.Slot != "" && op.Well != ""
}

func (op LiquidOp) atCurrentXY() bool {
	return op.SafeZ != nil && op.WorkZ != nil
}

// Aspirate pulls volumeUL into the syringe with a relative plunger move.
// The controller does not track how much liquid the syringe holds.
func (c *Controller) Aspirate(op LiquidOp) error {
	return c.plunge(op, true)
}

// Dispense pushes volumeUL out of the syringe with a relative plunger
// move.
func (c *Controller) Dispense(op LiquidOp) error {
	return c.plunge(op, false)
}

func (c *Controller) plunge(op LiquidOp, aspirate bool) error {
	syr, err := c.resolveSyringe(op.Syringe)
	if err != nil {
		return err
	}
	travel := syr.TravelForVolume(op.VolumeUL)
	if err := syr.CheckTravel(travel); err != nil {
		return err
	}

	du := travel
	verb := "aspirating"
	if !aspirate {
		du = -travel
		verb = "dispensing"
	}

	if op.addressed() == op.atCurrentXY() {
		// Neither mode, or an ambiguous mix of both.
		return ErrMissingAddress
	}

	if !op.addressed() {
		c.log.WithField("volume_ul", op.VolumeUL).Info(verb + " at current position")

		if err := c.SetAbsoluteMode(); err != nil {
			return err
		}
		if err := c.moveZ(*op.SafeZ, feedPlateUpZ); err != nil {
			return err
		}
		if err := c.moveZ(*op.WorkZ, feedPlateDownZ); err != nil {
			return err
		}
		if err := c.MoveRelative(0, 0, 0, du, Float(feedPlungerU), c.AckTimeout); err != nil {
			return err
		}
		return c.moveZ(*op.SafeZ, feedPlateUpZ)
	}

	lt := op.Labware
	if lt == nil {
		lt = labware.Plate48
	}
	vessel, err := labware.NewInstance(lt, c.deck, op.Slot, lt.Name+"_slot"+op.Slot)
	if err != nil {
		return err
	}
	x, y, err := vessel.WellPositionMachine(op.Well)
	if err != nil {
		return err
	}
	workZ := lt.AspirateHeight()
	if !aspirate {
		workZ = lt.DispenseHeight()
	}

	c.log.WithField("volume_ul", op.VolumeUL).
		WithField("slot", op.Slot).
		WithField("well", op.Well).
		Info(verb)

	if err := c.SetAbsoluteMode(); err != nil {
		return err
	}

	if lt.Reservoir {
		// Reservoir walls rise above plate clearance: climb to the
		// vessel's safe height before any lateral travel.
		if err := c.moveZ(lt.SafeZ, feedPlateUpZ); err != nil {
			return err
		}
		if err := c.moveXY(x, y, feedTravelXY); err != nil {
			return err
		}
	} else {
		// Plates are approachable at the current clearance; leave the
		// height adjustment for after the lateral move.
		if err := c.moveXY(x, y, feedTravelXY); err != nil {
			return err
		}
	}
	if err := c.moveZ(workZ, feedPlateDownZ); err != nil {
		return err
	}
	if err := c.MoveRelative(0, 0, 0, du, Float(feedPlungerU), c.AckTimeout); err != nil {
		return err
	}
	return c.moveZ(lt.SafeZ, feedPlateUpZ)
}

// AspirateFromBeaker draws from the single-well reservoir centered on a
// slot.
func (c *Controller) AspirateFromBeaker(slotID string, volumeUL float64, syringeName string) error {
	return c.Aspirate(LiquidOp{
		VolumeUL: volumeUL,
		Syringe:  syringeName,
		Slot:     slotID,
		Well:     labware.ReservoirWell,
		Labware:  labware.Beaker,
	})
}

// DispenseToBeaker empties into the single-well reservoir centered on a
// slot.
func (c *Controller) DispenseToBeaker(slotID string, volumeUL float64, syringeName string) error {
	return c.Dispense(LiquidOp{
		VolumeUL: volumeUL,
		Syringe:  syringeName,
		Slot:     slotID,
		Well:     labware.ReservoirWell,
		Labware:  labware.Beaker,
	})
}
