package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openpipette/pipet/pkg/daemon"
	"github.com/openpipette/pipet/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "daemon",
		Short:   "Run the pipet daemon in the foreground",
		GroupID: gBasic,
		Long: `Run the pipet daemon in the foreground.

The daemon owns the serial connection to the robot and serializes every
command, so only one motion sequence is ever in flight.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("pipet daemon starting")
			return daemon.Run(configPath, unixSocketPath)
		},
	}
}
