// Package types holds the request and response bodies shared between
// the pipet daemon and its clients.
package types

import "github.com/openpipette/pipet/pkg/protocol"

// ConnectRequest opens the serial connection. Empty fields fall back to
// the daemon's configuration.
type ConnectRequest struct {
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`
}

// HomeRequest homes a subset of axes, e.g. "XYZ". Empty homes all axes.
type HomeRequest struct {
	Axes string `json:"axes,omitempty"`
}

// PickTipRequest seats a tip from a rack well.
type PickTipRequest struct {
	Slot   string `json:"slot"`
	Well   string `json:"well"`
	Cycles int    `json:"cycles,omitempty"`
}

// DropTipRequest scrapes the mounted tip off into the waste box.
type DropTipRequest struct {
	Slot string `json:"slot"`
	Edge string `json:"edge,omitempty"`
}

// TransferRequest moves a volume between two plate wells.
type TransferRequest struct {
	SrcSlot  string  `json:"srcSlot"`
	SrcWell  string  `json:"srcWell"`
	DstSlot  string  `json:"dstSlot"`
	DstWell  string  `json:"dstWell"`
	VolumeUL float64 `json:"volumeUL"`
	Syringe  string  `json:"syringe,omitempty"`
}

// LiquidRequest aspirates or dispenses. Slot+Well addresses a plate
// well; Slot alone addresses the single-well reservoir on that slot;
// SafeZ+WorkZ (and no slot) operates at the current XY.
type LiquidRequest struct {
	VolumeUL float64  `json:"volumeUL"`
	Syringe  string   `json:"syringe,omitempty"`
	Slot     string   `json:"slot,omitempty"`
	Well     string   `json:"well,omitempty"`
	SafeZ    *float64 `json:"safeZ,omitempty"`
	WorkZ    *float64 `json:"workZ,omitempty"`
}

// DwellRequest pauses the firmware.
type DwellRequest struct {
	Seconds float64 `json:"seconds"`
}

// JogRequest nudges axes by relative deltas.
type JogRequest struct {
	DX       float64  `json:"dx,omitempty"`
	DY       float64  `json:"dy,omitempty"`
	DZ       float64  `json:"dz,omitempty"`
	DU       float64  `json:"du,omitempty"`
	Feedrate *float64 `json:"feedrate,omitempty"`
}

// RunRequest executes a step list.
type RunRequest struct {
	Steps []protocol.Record `json:"steps"`
}

// RunResult reports how far a step list got. FailedAt is the zero-based
// index of the failing step, nil when every step completed.
type RunResult struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	FailedAt  *int   `json:"failedAt,omitempty"`
	Error     string `json:"error,omitempty"`
}
