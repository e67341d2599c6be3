package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openpipette/pipet/pkg/types"
)

func NewPickTipCommand() *cobra.Command {
	var cycles int

	cmd := &cobra.Command{
		Use:     "pick-tip [slot] [well]",
		Short:   "Pick up a fresh tip from a tip rack",
		GroupID: gLiquid,
		Long: `Pick up a fresh tip from a tip rack.

The slot must hold a 96-well tip rack; the well names which tip to take,
e.g. "A1". The tip is seated by pressing into it a few times.`,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("invalid number of arguments")
			}

			ret, err := apiClient.PickTip(args[0], args[1], cycles)
			if err != nil {
				return fmt.Errorf("failed to pick up tip: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&cycles, "cycles", 0, "press cycles used to seat the tip (0 = default)")

	return cmd
}

func NewDropTipCommand() *cobra.Command {
	var edge string

	cmd := &cobra.Command{
		Use:     "drop-tip [slot]",
		Short:   "Scrape the mounted tip off into the waste box",
		GroupID: gLiquid,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("invalid number of arguments")
			}

			ret, err := apiClient.DropTip(args[0], edge)
			if err != nil {
				return fmt.Errorf("failed to drop tip: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&edge, "edge", "left", "waste box wall to scrape against (left or right)")

	return cmd
}

func NewTransferCommand() *cobra.Command {
	var syringeName string

	cmd := &cobra.Command{
		Use:     "transfer [src-slot] [src-well] [dst-slot] [dst-well] [volume-ul]",
		Short:   "Transfer a volume between two plate wells",
		GroupID: gLiquid,
		Long: `Transfer a volume between two plate wells.

Both slots must hold 48-well plates. The volume is in microliters and
must fit the selected syringe.`,
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) != 5 {
				return fmt.Errorf("invalid number of arguments")
			}
			volume, err := parseFloatArg(args, 4, "volume")
			if err != nil {
				return err
			}

			ret, err := apiClient.Transfer(types.TransferRequest{
				SrcSlot:  args[0],
				SrcWell:  args[1],
				DstSlot:  args[2],
				DstWell:  args[3],
				VolumeUL: volume,
				Syringe:  syringeName,
			})
			if err != nil {
				return fmt.Errorf("failed to transfer: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&syringeName, "syringe", "", "syringe calibration to use (default: the selected one)")

	return cmd
}

// newLiquidCommand builds aspirate and dispense, which differ only in
// the verb and the direction of the plunger move.
func newLiquidCommand(
	use, short, long string,
	call func(types.LiquidRequest) (string, error),
) *cobra.Command {
	var syringeName string

	cmd := &cobra.Command{
		Use:     use + " [slot] [well] [volume-ul]",
		Short:   short,
		GroupID: gLiquid,
		Long:    long,
		RunE: func(_ *cobra.Command, args []string) error {
			req := types.LiquidRequest{Syringe: syringeName}

			switch len(args) {
			case 3:
				// Plate well.
				req.Slot = args[0]
				req.Well = args[1]
				volume, err := parseFloatArg(args, 2, "volume")
				if err != nil {
					return err
				}
				req.VolumeUL = volume
			case 2:
				// Single-well reservoir on a slot.
				req.Slot = args[0]
				volume, err := parseFloatArg(args, 1, "volume")
				if err != nil {
					return err
				}
				req.VolumeUL = volume
			default:
				return fmt.Errorf("invalid number of arguments")
			}

			ret, err := call(req)
			if err != nil {
				return fmt.Errorf("failed to %s: %v", use, err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&syringeName, "syringe", "", "syringe calibration to use (default: the selected one)")

	return cmd
}

func NewAspirateCommand() *cobra.Command {
	return newLiquidCommand(
		"aspirate",
		"Draw a volume into the syringe",
		`Draw a volume into the syringe.

With slot and well the robot moves to a 48-well plate well first. With
just a slot it draws from the single-well reservoir centered on that
slot. The volume is in microliters.`,
		func(req types.LiquidRequest) (string, error) { return apiClient.Aspirate(req) },
	)
}

func NewDispenseCommand() *cobra.Command {
	return newLiquidCommand(
		"dispense",
		"Push a volume out of the syringe",
		`Push a volume out of the syringe.

With slot and well the robot moves to a 48-well plate well first. With
just a slot it dispenses into the single-well reservoir centered on
that slot. The volume is in microliters.`,
		func(req types.LiquidRequest) (string, error) { return apiClient.Dispense(req) },
	)
}
