// main is the entry point for the boardline CLI.
package main

import (
	"github.com/huangsam/boardline/cmd"
	"github.com/huangsam/boardline/internal/contract"
	"github.com/huangsam/boardline/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
