// Package main is the entry point for the kauth CLI.
package main

import (
	"os"

	"github.com/kauth-dev/kauth/cmd/kauth/app"
	"github.com/kauth-dev/kauth/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(app.ExitCode(err))
	}
}
