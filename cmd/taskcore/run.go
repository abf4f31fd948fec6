//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"taskcore/apps"
	"taskcore/hal"
	"taskcore/kernel"
	"taskcore/metrics"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "load apps and run them to completion",
		ArgsUsage: "[app...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "log every syscall",
			},
			&cli.IntFlag{
				Name:  "max-tasks",
				Usage: "task table size (0 = unbounded)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address (e.g. :2112)",
			},
			&cli.BoolFlag{
				Name:  "hold",
				Usage: "keep serving metrics after every task exited, until interrupted",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	names := c.Args().Slice()
	if len(names) == 0 {
		names = apps.Default()
	}
	var load []apps.App
	for _, name := range names {
		app, ok := apps.Lookup(name)
		if !ok {
			return cli.Exit(fmt.Sprintf("unknown app %q (see 'taskcore apps')", name), 2)
		}
		load = append(load, app)
	}

	h := hal.New()
	k, err := kernel.New(h, kernel.Config{
		MaxTasks: c.Int("max-tasks"),
		Trace:    c.Bool("trace"),
		PanicHandler: func(info kernel.PanicInfo) {
			h.Logger().WriteLineString(fmt.Sprintf("taskcore panic: task=%d panic=%v", info.TaskID, info.Value))
			for _, line := range strings.Split(string(info.Stack), "\n") {
				if line != "" {
					h.Logger().WriteLineString(line)
				}
			}
		},
	})
	if err != nil {
		return err
	}
	for _, app := range load {
		if _, err := k.AddTask(app.Name, app.Entry); err != nil {
			return fmt.Errorf("load %s: %w", app.Name, err)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	var srv *http.Server
	if addr := c.String("metrics-addr"); addr != "" {
		reg := prom.NewRegistry()
		if _, err := metrics.Register(reg, k, metrics.Options{BootID: k.BootID().String()}); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: addr, Handler: mux}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	hold := c.Bool("hold") && srv != nil
	g.Go(func() error {
		err := k.Run(ctx)
		if err == nil && hold {
			<-ctx.Done()
		}
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		return err
	})

	err = g.Wait()
	printReport(c.App.ErrWriter, k.Snapshot())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
