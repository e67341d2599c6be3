package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/openpipette/pipet/pkg/protocol"
	"github.com/openpipette/pipet/pkg/types"
)

func (c *Client) postJSON(path string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return c.Post(path, string(payload))
}

func (c *Client) Connect(device string, baud int) (string, error) {
	return c.postJSON("/connect", types.ConnectRequest{Device: device, Baud: baud})
}

func (c *Client) Disconnect() (string, error) {
	return c.Post("/disconnect", "")
}

func (c *Client) Home(axes string) (string, error) {
	return c.postJSON("/home", types.HomeRequest{Axes: axes})
}

func (c *Client) HomeAll() (string, error) {
	return c.Post("/home-all", "")
}

func (c *Client) SetSyringe(name string) (string, error) {
	payload, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	return c.Put("/syringe", string(payload))
}

func (c *Client) GetSyringes() ([]string, error) {
	ret, err := c.Get("/syringes")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list syringes")
	}
	var names []string
	if err := json.Unmarshal([]byte(ret), &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) PickTip(slot, well string, cycles int) (string, error) {
	return c.postJSON("/pick-tip", types.PickTipRequest{Slot: slot, Well: well, Cycles: cycles})
}

func (c *Client) DropTip(slot, edge string) (string, error) {
	return c.postJSON("/drop-tip", types.DropTipRequest{Slot: slot, Edge: edge})
}

func (c *Client) Transfer(req types.TransferRequest) (string, error) {
	return c.postJSON("/transfer", req)
}

func (c *Client) Aspirate(req types.LiquidRequest) (string, error) {
	return c.postJSON("/aspirate", req)
}

func (c *Client) Dispense(req types.LiquidRequest) (string, error) {
	return c.postJSON("/dispense", req)
}

func (c *Client) Dwell(seconds float64) (string, error) {
	return c.postJSON("/dwell", types.DwellRequest{Seconds: seconds})
}

func (c *Client) Jog(req types.JogRequest) (string, error) {
	return c.postJSON("/jog", req)
}

func (c *Client) GetPosition() (map[string]float64, error) {
	ret, err := c.Get("/position")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to query position")
	}
	var pos map[string]float64
	if err := json.Unmarshal([]byte(ret), &pos); err != nil {
		return nil, err
	}
	return pos, nil
}

func (c *Client) RunProtocol(steps []protocol.Record) (*types.RunResult, error) {
	ret, err := c.postJSON("/protocol/run", types.RunRequest{Steps: steps})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to run protocol")
	}
	var res types.RunResult
	if err := json.Unmarshal([]byte(ret), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", err
	}
	var v struct {
		Version   string `json:"version"`
		GitCommit string `json:"gitCommit"`
	}
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", err
	}
	return v.Version, nil
}
