package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openpipette/pipet/pkg/types"
	"github.com/openpipette/pipet/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewConnectCommand() *cobra.Command {
	var (
		device string
		baud   int
	)

	cmd := &cobra.Command{
		Use:     "connect",
		Short:   "Open the serial connection to the robot",
		GroupID: gBasic,
		Long: `Open the serial connection to the robot.

The daemon falls back to its configured device and baud rate when the
flags are not given.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.Connect(device, baud)
			if err != nil {
				return fmt.Errorf("failed to connect: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&device, "device", "", "serial device path, e.g. /dev/ttyUSB0")
	f.IntVar(&baud, "baud", 0, "serial baud rate")

	return cmd
}

func NewDisconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "disconnect",
		Short:   "Close the serial connection to the robot",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.Disconnect()
			if err != nil {
				return fmt.Errorf("failed to disconnect: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewHomeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "home [axes]",
		Short:   "Home the robot",
		GroupID: gBasic,
		Long: `Home the robot.

With no argument every axis is homed and the plunger is lifted to its
safety clearance. With an axis string, e.g. "XYZ" or "Z", only those
axes are homed.`,
		RunE: func(_ *cobra.Command, args []string) error {
			var (
				ret string
				err error
			)
			if len(args) == 0 {
				ret, err = apiClient.HomeAll()
			} else {
				ret, err = apiClient.Home(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to home: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewSyringeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "syringe",
		Short:   "Select or list syringe calibrations",
		GroupID: gBasic,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List known syringe calibrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := apiClient.GetSyringes()
				if err != nil {
					return fmt.Errorf("failed to list syringes: %v", err)
				}
				for _, n := range names {
					cmd.Println(n)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set [name]",
			Short: "Select the syringe calibration used for volumes",
			RunE: func(_ *cobra.Command, args []string) error {
				if len(args) != 1 {
					return fmt.Errorf("invalid number of arguments")
				}

				ret, err := apiClient.SetSyringe(args[0])
				if err != nil {
					return fmt.Errorf("failed to set syringe: %v", err)
				}

				if ret != "" {
					logrus.Infof("daemon responded: %s", ret)
				}

				return nil
			},
		},
	)

	return cmd
}

func NewPositionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "position",
		Short:   "Query the current machine position",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pos, err := apiClient.GetPosition()
			if err != nil {
				return fmt.Errorf("failed to query position: %v", err)
			}

			if len(pos) == 0 {
				cmd.Println(color.YellowString("no position report from firmware"))
				return nil
			}

			cmd.Println(bold("Machine position:"))
			for _, axis := range []string{"X", "Y", "Z", "U"} {
				if v, ok := pos[axis]; ok {
					cmd.Printf("  %s: %s\n", axis, bold("%.3f mm", v))
				}
			}
			return nil
		},
	}
}

func NewJogCommand() *cobra.Command {
	var req types.JogRequest
	var feedrate float64

	cmd := &cobra.Command{
		Use:     "jog",
		Short:   "Nudge axes by relative distances",
		GroupID: gBasic,
		Long: `Nudge axes by relative distances, in millimeters.

The firmware is returned to absolute positioning afterwards, so jogs
never disturb later operations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("feedrate") {
				req.Feedrate = &feedrate
			}

			ret, err := apiClient.Jog(req)
			if err != nil {
				return fmt.Errorf("failed to jog: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.Float64VarP(&req.DX, "dx", "x", 0, "X delta in mm")
	f.Float64VarP(&req.DY, "dy", "y", 0, "Y delta in mm")
	f.Float64VarP(&req.DZ, "dz", "z", 0, "Z delta in mm")
	f.Float64VarP(&req.DU, "du", "u", 0, "plunger delta in mm")
	f.Float64VarP(&feedrate, "feedrate", "f", 0, "feedrate in mm/min")

	return cmd
}

func NewDwellCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "dwell [seconds]",
		Short:   "Pause the firmware",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, args []string) error {
			seconds, err := parseFloatArg(args, 0, "seconds")
			if err != nil {
				return err
			}

			ret, err := apiClient.Dwell(seconds)
			if err != nil {
				return fmt.Errorf("failed to dwell: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}
