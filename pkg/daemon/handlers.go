package daemon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openpipette/pipet/pkg/deck"
	"github.com/openpipette/pipet/pkg/gcode"
	"github.com/openpipette/pipet/pkg/labware"
	"github.com/openpipette/pipet/pkg/protocol"
	"github.com/openpipette/pipet/pkg/robot"
	"github.com/openpipette/pipet/pkg/syringe"
	"github.com/openpipette/pipet/pkg/types"
	"github.com/openpipette/pipet/pkg/version"
)

// statusFor maps a robot error onto an HTTP status. Anything the caller
// could have gotten right, bad slot, bad well, bad volume, is a 400; a
// missing serial connection is a 409; everything else, including
// firmware errors and strict ack timeouts, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, deck.ErrUnknownSlot),
		errors.Is(err, labware.ErrBadWell),
		errors.Is(err, labware.ErrAddressOutOfRange),
		errors.Is(err, labware.ErrIncompleteLabware),
		errors.Is(err, syringe.ErrUnknownSyringe),
		errors.Is(err, syringe.ErrNoSyringeSelected),
		errors.Is(err, syringe.ErrTravelOutOfRange),
		errors.Is(err, robot.ErrInvalidEdge),
		errors.Is(err, robot.ErrMissingAddress),
		errors.Is(err, protocol.ErrUnknownStepKind):
		return http.StatusBadRequest
	case errors.Is(err, gcode.ErrNotConnected):
		return http.StatusConflict
	}
	var mp *protocol.MissingParameterError
	if errors.As(err, &mp) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abortWith(c *gin.Context, err error) {
	status := statusFor(err)
	c.IndentedJSON(status, err.Error())
	_ = c.AbortWithError(status, err)
}

// robotLocked returns the connected controller with the command lock
// held. The caller must unlock. A nil controller means the request was
// already answered.
func robotLocked(c *gin.Context) *robot.Controller {
	mu.Lock()
	if ctrl == nil || !ctrl.Connected() {
		mu.Unlock()
		err := gcode.ErrNotConnected
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return nil
	}
	return ctrl
}

func connect(c *gin.Context) {
	var req types.ConnectRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if ctrl != nil && ctrl.Connected() {
		c.IndentedJSON(http.StatusOK, "already connected")
		return
	}

	device := req.Device
	if device == "" {
		device = conf.Device
	}
	baud := req.Baud
	if baud == 0 {
		baud = conf.Baud
	}

	sess := gcode.New(&gcode.Config{
		Device:      device,
		Baud:        baud,
		ReadTimeout: time.Duration(conf.ReadTimeoutMS) * time.Millisecond,
	})
	sess.SetTolerateTimeout(conf.TolerateTimeout)
	if err := sess.Open(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	ctrl = robot.New(sess, theDeck)
	if conf.DefaultSyringe != "" {
		if err := ctrl.SetSyringe(conf.DefaultSyringe); err != nil {
			logrus.Errorf("failed to select default syringe %q: %v", conf.DefaultSyringe, err)
		}
	}

	logrus.Infof("connected to %s at %d baud", device, baud)
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("connected to %s", device))
}

func disconnect(c *gin.Context) {
	mu.Lock()
	defer mu.Unlock()

	if ctrl == nil {
		c.IndentedJSON(http.StatusOK, "not connected")
		return
	}
	if err := ctrl.Close(); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	ctrl = nil
	c.IndentedJSON(http.StatusOK, "disconnected")
}

func home(c *gin.Context) {
	var req types.HomeRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.Home(req.Axes, robot.DefaultHomeTimeout); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func homeAll(c *gin.Context) {
	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.HomeAll(robot.DefaultHomeTimeout); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func getSyringes(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, syringe.Names())
}

func setSyringe(c *gin.Context) {
	var name string
	if err := c.BindJSON(&name); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.SetSyringe(name); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("selected syringe %s", name))
}

func pickTip(c *gin.Context) {
	var req types.PickTipRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.PickUpTip(req.Slot, req.Well, req.Cycles); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func dropTip(c *gin.Context) {
	var req types.DropTipRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	edge := robot.Edge(req.Edge)
	if req.Edge == "" {
		edge = robot.EdgeLeft
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.DropTipScrape(req.Slot, edge); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func transfer(c *gin.Context) {
	var req types.TransferRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.Transfer(req.SrcSlot, req.SrcWell, req.DstSlot, req.DstWell, req.VolumeUL, req.Syringe); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

// liquidOpFromRequest maps the wire request onto a controller op. A slot
// with no well means the single-well reservoir centered on that slot.
func liquidOpFromRequest(req types.LiquidRequest) robot.LiquidOp {
	op := robot.LiquidOp{
		VolumeUL: req.VolumeUL,
		Syringe:  req.Syringe,
		Slot:     req.Slot,
		Well:     req.Well,
		SafeZ:    req.SafeZ,
		WorkZ:    req.WorkZ,
	}
	if op.Slot != "" && op.Well == "" {
		op.Well = labware.ReservoirWell
		op.Labware = labware.Beaker
	}
	return op
}

func aspirate(c *gin.Context) {
	var req types.LiquidRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.Aspirate(liquidOpFromRequest(req)); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func dispense(c *gin.Context) {
	var req types.LiquidRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.Dispense(liquidOpFromRequest(req)); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func dwell(c *gin.Context) {
	var req types.DwellRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.Dwell(req.Seconds); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func jog(c *gin.Context) {
	var req types.JogRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	if err := r.MoveRelative(req.DX, req.DY, req.DZ, req.DU, req.Feedrate, r.AckTimeout); err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, "ok")
}

func getPosition(c *gin.Context) {
	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	pos, err := r.QueryPosition()
	if err != nil {
		abortWith(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, pos)
}

func runProtocol(c *gin.Context) {
	var req types.RunRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	steps, err := protocol.DecodeList(req.Steps)
	if err != nil {
		abortWith(c, err)
		return
	}

	r := robotLocked(c)
	if r == nil {
		return
	}
	defer mu.Unlock()

	result := types.RunResult{
		Total:     len(steps),
		Completed: len(steps),
	}
	if err := protocol.Run(r, steps); err != nil {
		var sf *protocol.StepFailure
		if errors.As(err, &sf) {
			idx := sf.Index
			result.FailedAt = &idx
			result.Completed = idx
		}
		result.Error = err.Error()
	}
	c.IndentedJSON(http.StatusOK, result)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"version":   version.Version,
		"gitCommit": version.GitCommit,
	})
}
