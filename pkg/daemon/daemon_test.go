package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipette/pipet/pkg/gcode"
	"github.com/openpipette/pipet/pkg/robot"
	"github.com/openpipette/pipet/pkg/types"
)

// installMockRobot wires the package-level controller to an in-memory
// port so handlers can be exercised without a serial device.
func installMockRobot(t *testing.T) *gcode.MockPort {
	t.Helper()

	port := gcode.NewMockPort()
	sess := gcode.NewWithPort(port)

	mu.Lock()
	ctrl = robot.New(sess, theDeck)
	ctrl.AckTimeout = 50 * time.Millisecond
	require.NoError(t, ctrl.SetSyringe("1ml"))
	mu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		ctrl = nil
		mu.Unlock()
	})
	return port
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&rd).Encode(body))
	}
	req := httptest.NewRequest(method, path, &rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNotConnected(t *testing.T) {
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPost, "/home", types.HomeRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetPosition(t *testing.T) {
	port := installMockRobot(t)
	router := setupRoutes()

	port.Reply("X:10.00 Y:20.00 Z:30.00 U:5.00")
	w := doJSON(t, router, http.MethodGet, "/position", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pos map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pos))
	assert.Equal(t, 10.0, pos["X"])
	assert.Equal(t, 5.0, pos["U"])
	assert.Equal(t, []string{"M114"}, port.Sent())
}

func TestBadWellIsABadRequest(t *testing.T) {
	port := installMockRobot(t)
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPost, "/pick-tip", types.PickTipRequest{
		Slot: "1",
		Well: "Z99",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, port.Sent(), "a rejected request must not move the robot")
}

func TestUnknownSlotIsABadRequest(t *testing.T) {
	port := installMockRobot(t)
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPost, "/transfer", types.TransferRequest{
		SrcSlot:  "9",
		SrcWell:  "A1",
		DstSlot:  "4",
		DstWell:  "B2",
		VolumeUL: 50,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, port.Sent())
}

func TestVolumeOutOfRangeIsABadRequest(t *testing.T) {
	installMockRobot(t)
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPost, "/aspirate", types.LiquidRequest{
		VolumeUL: 5000,
		Slot:     "6",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetSyringe(t *testing.T) {
	installMockRobot(t)
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPut, "/syringe", "1ml")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPut, "/syringe", "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunProtocolHaltsAtFailure(t *testing.T) {
	port := installMockRobot(t)
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPost, "/protocol/run", types.RunRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	// Step 2 (zero-based index 1) names a slot that does not exist, so
	// the run must stop there with one completed step.
	w = doJSON(t, router, http.MethodPost, "/protocol/run", map[string]any{
		"steps": []map[string]any{
			{"type": "dwell", "params": map[string]any{"seconds": 0.1}},
			{"type": "pick_tip", "params": map[string]any{"slot": "9", "well": "A1"}},
			{"type": "home_xyz"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res types.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Completed)
	require.NotNil(t, res.FailedAt)
	assert.Equal(t, 1, *res.FailedAt)
	assert.NotEmpty(t, res.Error)

	// Only the dwell before the failing step reached the firmware.
	assert.Equal(t, []string{"G4 P100"}, port.Sent())
}

func TestRunProtocolBadStepList(t *testing.T) {
	installMockRobot(t)
	router := setupRoutes()

	w := doJSON(t, router, http.MethodPost, "/protocol/run", map[string]any{
		"steps": []map[string]any{
			{"type": "levitate"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
