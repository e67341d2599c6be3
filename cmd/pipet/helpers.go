package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/openpipette/pipet/pkg/client"
)

// apiClient is rebuilt on every invocation so the --daemon-socket flag
// takes effect before any command runs.
var apiClient = client.NewClient(unixSocketPath)

func parseFloatArg(args []string, i int, valueName string) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s argument", valueName)
	}

	value, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
