// Package syringe holds the calibration model that maps liquid volume to
// plunger (U axis) travel. Calibrations are registered once at process
// start and read-only afterwards.
package syringe

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownSyringe is returned when a calibration name is not
	// registered.
	ErrUnknownSyringe = errors.New("unknown syringe")

	// ErrNoSyringeSelected is returned when an operation needs a
	// calibration but none was named and none is selected.
	ErrNoSyringeSelected = errors.New("no syringe selected")

	// ErrTravelOutOfRange is returned when the plunger travel required
	// for a volume would leave the syringe's mechanical limits.
	ErrTravelOutOfRange = errors.New("plunger travel outside syringe limits")
)

// Type is one syringe calibration: a linear volume-to-travel fit plus the
// baseline plunger position and optional mechanical bounds.
type Type struct {
	Name        string
	MaxVolumeUL float64

	// UPerUL is the plunger travel per microliter (linear fit).
	UPerUL float64

	// UBase is the plunger position every aspirate starts from.
	UBase float64

	// Mechanical limits of the plunger axis, nil when unbounded.
	UMin *float64
	UMax *float64
}

// TravelForVolume converts a volume to plunger travel.
func (t *Type) TravelForVolume(volumeUL float64) float64 {
	return volumeUL * t.UPerUL
}

// CheckTravel validates that a pull of travel units starting at UBase
// stays within the mechanical limits. This is a precondition check, not
// a clamp: callers must not move at all when it fails.
func (t *Type) CheckTravel(travel float64) error {
	if t.UMin != nil && t.UBase < *t.UMin {
		return errors.Wrapf(ErrTravelOutOfRange, "%s: baseline %.3f below minimum %.3f", t.Name, t.UBase, *t.UMin)
	}
	if t.UMax != nil && t.UBase+travel > *t.UMax {
		return errors.Wrapf(ErrTravelOutOfRange, "%s: target %.3f above maximum %.3f", t.Name, t.UBase+travel, *t.UMax)
	}
	return nil
}

// bound is a convenience for declaring calibrations.
func bound(v float64) *float64 { return &v }

// Bench calibrations for the shipped platform.
var registry = map[string]*Type{
	"1ml": {
		Name:        "1ml",
		MaxVolumeUL: 1000.0,
		UPerUL:      0.06,
		UBase:       5.0,
		UMin:        bound(0.0),
		UMax:        bound(65.0),
	},
}

// Resolve looks up a calibration by name.
func Resolve(name string) (*Type, error) {
	t, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSyringe, "%q", name)
	}
	return t, nil
}

// Names returns all registered calibration names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
