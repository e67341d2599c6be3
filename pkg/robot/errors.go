package robot

import "github.com/pkg/errors"

var (
	// ErrInvalidEdge is returned for a tip-scrape edge other than
	// EdgeLeft or EdgeRight.
	ErrInvalidEdge = errors.New(`edge must be "left" or "right"`)

	// ErrMissingAddress is returned when an aspirate/dispense request
	// satisfies neither addressing mode: it must carry either slot+well
	// or explicit safe and working heights, not both and not neither.
	ErrMissingAddress = errors.New("either slot+well or explicit heights required")
)
