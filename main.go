package main

import (
	"os"

	"github.com/firefly-engineering/jail/cmd"
	"github.com/firefly-engineering/jail/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
