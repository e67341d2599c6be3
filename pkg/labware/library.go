package labware

// ReservoirWell is the canonical well address of single-well vessels.
const ReservoirWell = "A1"

// Tiprack96 is the stock 96-tip rack. Touch/Press/Full are the tip
// seating heights; ScrapeZ is unused for racks but kept from the bench
// calibration sheet.
var Tiprack96 = &Type{
	Name:    "tiprack_96",
	Rows:    8,
	Cols:    12,
	PitchX:  9.0,
	PitchY:  9.0,
	OffsetX: -49.7,
	OffsetY: -31.5,
	SafeZ:   100.0,
	BottomZ: 0.0,

	TouchZ: Height(170.0),
	PressZ: Height(172.0),
	FullZ:  Height(176.0),

	ScrapeZ: Height(152.0),
}

// TipWasteBox is the open box used tips are scraped off into.
var TipWasteBox = &Type{
	Name:    "tip_waste_box",
	Rows:    1,
	Cols:    1,
	SafeZ:   100.0,
	BottomZ: 0.0,

	ScrapeZ: Height(170.0),
}

// Plate48 is the default working plate: 48 wells, 10 mm depth.
var Plate48 = &Type{
	Name:    "48well_10mm",
	Rows:    6,
	Cols:    8,
	PitchX:  12.47,
	PitchY:  12.47,
	OffsetX: -43.88,
	OffsetY: -32.04,
	SafeZ:   158.0,
	BottomZ: 170.0,
}

// Beaker is a single-well reservoir centered on its slot. Its working
// height sits below plate clearance, hence Reservoir.
var Beaker = &Type{
	Name:    "beaker_1well",
	Rows:    1,
	Cols:    1,
	SafeZ:   100.0,
	BottomZ: 150.0,

	AspirateZ: Height(150.0),
	DispenseZ: Height(150.0),

	Reservoir: true,
}
