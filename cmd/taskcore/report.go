//go:build !tinygo

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"taskcore/abi"
	"taskcore/apps"
	"taskcore/kernel"
)

func printReport(w io.Writer, snaps []kernel.TaskSnapshot) {
	if w == nil {
		w = os.Stderr
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tEXIT\tCPU(ms)\tSYSCALLS")
	for _, s := range snaps {
		exit := "-"
		if s.Status == abi.StatusExited {
			exit = fmt.Sprint(s.ExitCode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", s.ID, s.Name, s.Status, exit, s.TimeMs(), s.Syscalls())
	}
	tw.Flush()
}

func appsCommand() *cli.Command {
	return &cli.Command{
		Name:  "apps",
		Usage: "list loadable apps",
		Action: func(c *cli.Context) error {
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			for _, app := range apps.All() {
				fmt.Fprintf(tw, "%s\t%s\n", app.Name, app.Usage)
			}
			return tw.Flush()
		},
	}
}
