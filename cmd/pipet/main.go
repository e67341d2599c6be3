package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openpipette/pipet/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/pipet.sock"
	configPath     = "/etc/pipet.json"
)

var (
	gBasic        = "Basic:"
	gLiquid       = "Liquid handling:"
	commandGroups = []string{
		gBasic,
		gLiquid,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: pipet daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'pipet daemon' (as root, or with access to the serial device)")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipet",
		Short: "pipet controls a motorized liquid-handling robot",
		Long: `pipet controls a motorized liquid-handling robot over a G-code serial link.

The daemon ('pipet daemon') owns the serial connection; every other
command talks to it over a unix socket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			apiClient = client.NewClient(unixSocketPath)
			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "pipet daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewConnectCommand(),
		NewDisconnectCommand(),
		NewHomeCommand(),
		NewSyringeCommand(),
		NewPositionCommand(),
		NewJogCommand(),
		NewDwellCommand(),
		NewPickTipCommand(),
		NewDropTipCommand(),
		NewTransferCommand(),
		NewAspirateCommand(),
		NewDispenseCommand(),
		NewRunCommand(),
	)

	return cmd
}
