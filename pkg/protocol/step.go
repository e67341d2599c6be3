// Package protocol defines the step records a liquid-handling run is
// made of and executes them against a robot. The wire form is the JSON
// protocol editors save and load: an ordered list of records, each a
// step-kind tag plus a parameter map. Records are validated into typed
// steps once at decode time, so a malformed protocol fails at load
// instead of halfway through a run.
package protocol

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/openpipette/pipet/pkg/robot"
)

// Kind tags a protocol step.
type Kind string

const (
	KindHomeXYZ  Kind = "home_xyz"
	KindPickTip  Kind = "pick_tip"
	KindDropTip  Kind = "drop_tip"
	KindTransfer Kind = "transfer"
	KindAspirate Kind = "aspirate"
	KindDispense Kind = "dispense"
	KindDwell    Kind = "dwell"
)

// ErrUnknownStepKind is returned for a tag outside the closed kind set.
var ErrUnknownStepKind = errors.New("unknown step kind")

// MissingParameterError names the parameter a step record lacks.
type MissingParameterError struct {
	Kind  Kind
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("step %s: missing parameter %q", e.Kind, e.Param)
}

// Record is the persisted wire form of one step.
type Record struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Step is a single validated protocol step.
type Step interface {
	Kind() Kind

	// Record returns the wire form of the step. Decoding it again
	// yields an equal step.
	Record() Record
}

// HomeXYZ homes the gantry axes, leaving the plunger alone.
type HomeXYZ struct{}

func (HomeXYZ) Kind() Kind { return KindHomeXYZ }

func (HomeXYZ) Record() Record {
	return Record{Type: string(KindHomeXYZ)}
}

// PickTip seats a fresh tip from a tip rack well.
type PickTip struct {
	Slot string
	Well string
}

func (PickTip) Kind() Kind { return KindPickTip }

func (s PickTip) Record() Record {
	return Record{Type: string(KindPickTip), Params: map[string]any{
		"slot": s.Slot,
		"well": s.Well,
	}}
}

// DropTip scrapes the mounted tip off against a waste box wall.
type DropTip struct {
	Slot string
	Edge robot.Edge
}

func (DropTip) Kind() Kind { return KindDropTip }

func (s DropTip) Record() Record {
	return Record{Type: string(KindDropTip), Params: map[string]any{
		"slot": s.Slot,
		"edge": string(s.Edge),
	}}
}

// Transfer moves a volume from one plate well to another.
type Transfer struct {
	SrcSlot  string
	SrcWell  string
	DstSlot  string
	DstWell  string
	VolumeUL float64
	Syringe  string
}

func (Transfer) Kind() Kind { return KindTransfer }

func (s Transfer) Record() Record {
	p := map[string]any{
		"src_slot":  s.SrcSlot,
		"src_well":  s.SrcWell,
		"dst_slot":  s.DstSlot,
		"dst_well":  s.DstWell,
		"volume_ul": s.VolumeUL,
	}
	if s.Syringe != "" {
		p["syringe"] = s.Syringe
	}
	return Record{Type: string(KindTransfer), Params: p}
}

// Aspirate draws a volume. An empty Well selects reservoir mode: the
// slot holds a single-well beaker rather than a plate.
type Aspirate struct {
	Slot     string
	Well     string
	VolumeUL float64
	Syringe  string
}

func (Aspirate) Kind() Kind { return KindAspirate }

func (s Aspirate) Record() Record {
	return liquidRecord(KindAspirate, s.Slot, s.Well, s.VolumeUL, s.Syringe)
}

// Dispense pushes a volume out. Well semantics match Aspirate.
type Dispense struct {
	Slot     string
	Well     string
	VolumeUL float64
	Syringe  string
}

func (Dispense) Kind() Kind { return KindDispense }

func (s Dispense) Record() Record {
	return liquidRecord(KindDispense, s.Slot, s.Well, s.VolumeUL, s.Syringe)
}

func liquidRecord(k Kind, slot, well string, volumeUL float64, syr string) Record {
	p := map[string]any{
		"slot":      slot,
		"volume_ul": volumeUL,
	}
	if well != "" {
		p["well"] = well
	}
	if syr != "" {
		p["syringe"] = syr
	}
	return Record{Type: string(k), Params: p}
}

// Dwell pauses the firmware.
type Dwell struct {
	Seconds float64
}

func (Dwell) Kind() Kind { return KindDwell }

func (s Dwell) Record() Record {
	return Record{Type: string(KindDwell), Params: map[string]any{
		"seconds": s.Seconds,
	}}
}

// Decode validates a record into a typed step.
func Decode(rec Record) (Step, error) {
	p := params{kind: Kind(rec.Type), m: rec.Params}

	switch p.kind {
	case KindHomeXYZ:
		return HomeXYZ{}, nil

	case KindPickTip:
		slot, err := p.str("slot")
		if err != nil {
			return nil, err
		}
		well, err := p.str("well")
		if err != nil {
			return nil, err
		}
		return PickTip{Slot: slot, Well: well}, nil

	case KindDropTip:
		slot, err := p.str("slot")
		if err != nil {
			return nil, err
		}
		edge := p.optStr("edge", string(robot.EdgeLeft))
		return DropTip{Slot: slot, Edge: robot.Edge(edge)}, nil

	case KindTransfer:
		s := Transfer{Syringe: p.optStr("syringe", "")}
		var err error
		if s.SrcSlot, err = p.str("src_slot"); err != nil {
			return nil, err
		}
		if s.SrcWell, err = p.str("src_well"); err != nil {
			return nil, err
		}
		if s.DstSlot, err = p.str("dst_slot"); err != nil {
			return nil, err
		}
		if s.DstWell, err = p.str("dst_well"); err != nil {
			return nil, err
		}
		if s.VolumeUL, err = p.num("volume_ul"); err != nil {
			return nil, err
		}
		return s, nil

	case KindAspirate:
		slot, well, vol, syr, err := p.liquid()
		if err != nil {
			return nil, err
		}
		return Aspirate{Slot: slot, Well: well, VolumeUL: vol, Syringe: syr}, nil

	case KindDispense:
		slot, well, vol, syr, err := p.liquid()
		if err != nil {
			return nil, err
		}
		return Dispense{Slot: slot, Well: well, VolumeUL: vol, Syringe: syr}, nil

	case KindDwell:
		return Dwell{Seconds: p.optNum("seconds", 1.0)}, nil
	}

	return nil, errors.Wrapf(ErrUnknownStepKind, "%q", rec.Type)
}

// DecodeList validates a whole step list, so every missing parameter
// surfaces before anything runs.
func DecodeList(recs []Record) ([]Step, error) {
	steps := make([]Step, 0, len(recs))
	for i, rec := range recs {
		s, err := Decode(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d", i+1)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// params wraps the untyped parameter map with conversion helpers.
type params struct {
	kind Kind
	m    map[string]any
}

func (p params) str(name string) (string, error) {
	v, ok := p.m[name]
	if !ok {
		return "", &MissingParameterError{Kind: p.kind, Param: name}
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("step %s: parameter %q must be a string, got %T", p.kind, name, v)
	}
	return s, nil
}

func (p params) optStr(name, fallback string) string {
	s, err := p.str(name)
	if err != nil {
		return fallback
	}
	return s
}

func (p params) num(name string) (float64, error) {
	v, ok := p.m[name]
	if !ok {
		return 0, &MissingParameterError{Kind: p.kind, Param: name}
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, errors.Errorf("step %s: parameter %q is not a number: %q", p.kind, name, n)
		}
		return f, nil
	}
	return 0, errors.Errorf("step %s: parameter %q must be a number, got %T", p.kind, name, v)
}

func (p params) optNum(name string, fallback float64) float64 {
	f, err := p.num(name)
	if err != nil {
		return fallback
	}
	return f
}

func (p params) liquid() (slot, well string, vol float64, syr string, err error) {
	if slot, err = p.str("slot"); err != nil {
		return
	}
	well = p.optStr("well", "")
	if vol, err = p.num("volume_ul"); err != nil {
		return
	}
	syr = p.optStr("syringe", "")
	return
}
