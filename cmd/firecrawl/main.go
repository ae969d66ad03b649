package main

import (
	"fmt"

	"github.com/pimcabanlit/firecrawl-cli/internal/cli"
	"github.com/pimcabanlit/firecrawl-cli/internal/utils"
)

// main is the entry point for the firecrawl command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger()
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	defer loggerInstance.Sync()
	if applicationExecutionError := cli.Execute(loggerInstance); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
