//go:build !tinygo

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"taskcore/internal/buildinfo"
)

func main() {
	app := &cli.App{
		Name:    "taskcore",
		Usage:   "run user programs on a cooperative single-core kernel",
		Version: buildinfo.String(),
		Commands: []*cli.Command{
			runCommand(),
			appsCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
