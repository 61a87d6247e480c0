package main

import (
	"fmt"
	"os"

	"webdesk/cmd"
)

// Version information - these will be set at build time
var (
	version   = "0.3.0" // Default version
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	rootCmd := cmd.NewRootCmd(cmd.BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
