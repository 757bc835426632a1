// main is the entry point of the runlens CLI.
package main

import (
	"github.com/huangsam/runlens/cmd"
	"github.com/huangsam/runlens/internal/contract"
	"go.uber.org/zap"
)

func main() {
	defer func() { _ = zap.L().Sync() }()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
