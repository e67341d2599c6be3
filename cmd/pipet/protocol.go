package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openpipette/pipet/pkg/protocol"
)

// loadStepRecords reads a protocol file: either a bare JSON list of step
// records or an object with a "steps" list, which is what the daemon
// API accepts directly.
func loadStepRecords(path string) ([]protocol.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol file: %v", err)
	}

	var recs []protocol.Record
	if err := json.Unmarshal(b, &recs); err == nil {
		return recs, nil
	}

	var wrapped struct {
		Steps []protocol.Record `json:"steps"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse protocol file %s: %v", path, err)
	}
	return wrapped.Steps, nil
}

func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "run [protocol.json]",
		Short:   "Run a protocol file step by step",
		GroupID: gLiquid,
		Long: `Run a protocol file step by step.

The file holds an ordered list of step records. Steps run strictly in
order; the run halts at the first failing step and later steps are
never executed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("invalid number of arguments")
			}

			recs, err := loadStepRecords(args[0])
			if err != nil {
				return err
			}

			// Validate locally before bothering the robot, so a typo in
			// step 12 does not leave a run stranded at step 11.
			if _, err := protocol.DecodeList(recs); err != nil {
				return fmt.Errorf("invalid protocol: %v", err)
			}

			res, err := apiClient.RunProtocol(recs)
			if err != nil {
				return fmt.Errorf("failed to run protocol: %v", err)
			}

			if res.FailedAt != nil {
				cmd.Printf("%s %d/%d steps completed\n", color.RedString("FAILED:"), res.Completed, res.Total)
				cmd.Printf("  step %d: %s\n", *res.FailedAt+1, res.Error)
				return fmt.Errorf("protocol failed at step %d", *res.FailedAt+1)
			}

			cmd.Printf("%s %d/%d steps completed\n", color.GreenString("OK:"), res.Completed, res.Total)
			return nil
		},
	}
}
