// Package metrics exports kernel task accounting to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"

	"taskcore/abi"
	"taskcore/kernel"
)

// SnapshotSource provides task records. *kernel.Kernel implements it.
type SnapshotSource interface {
	Snapshot() []kernel.TaskSnapshot
}

// Options controls collector configuration.
type Options struct {
	Namespace string
	// BootID is attached to every series as the boot_id label when set.
	BootID string
}

var statuses = []abi.TaskStatus{abi.StatusUninit, abi.StatusReady, abi.StatusRunning, abi.StatusExited}

// Collector reads a fresh snapshot on every scrape, so exported values are
// never older than the scrape itself.
type Collector struct {
	src SnapshotSource

	syscalls *prom.Desc
	cpu      *prom.Desc
	status   *prom.Desc
	exitCode *prom.Desc
	tasks    *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector creates a collector over src.
func NewCollector(src SnapshotSource, opts Options) *Collector {
	ns := opts.Namespace
	if ns == "" {
		ns = "taskcore"
	}
	var constLabels prom.Labels
	if opts.BootID != "" {
		constLabels = prom.Labels{"boot_id": opts.BootID}
	}
	desc := func(name, help string, labels ...string) *prom.Desc {
		return prom.NewDesc(prom.BuildFQName(ns, "", name), help, labels, constLabels)
	}
	return &Collector{
		src:      src,
		syscalls: desc("task_syscalls_total", "Syscalls invoked per task and syscall.", "task", "name", "syscall"),
		cpu:      desc("task_cpu_seconds_total", "CPU time spent Running per task.", "task", "name"),
		status:   desc("task_status", "Task scheduling state (1 for the current state).", "task", "name", "status"),
		exitCode: desc("task_exit_code", "Exit code of exited tasks.", "task", "name"),
		tasks:    desc("tasks", "Number of tasks per scheduling state.", "status"),
	}
}

// Register creates a collector and registers it with reg. An identical
// collector already registered is reused.
func Register(reg prom.Registerer, src SnapshotSource, opts Options) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	c := NewCollector(src, opts)
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(*Collector)
		if !ok {
			return nil, fmt.Errorf("collector type mismatch for %T", alreadyRegisteredErr.ExistingCollector)
		}
		return existing, nil
	}
	return nil, err
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prom.Desc) {
	ch <- c.syscalls
	ch <- c.cpu
	ch <- c.status
	ch <- c.exitCode
	ch <- c.tasks
}

// Collect implements prometheus.Collector. It reads one snapshot per scrape.
func (c *Collector) Collect(ch chan<- prom.Metric) {
	if c.src == nil {
		return
	}
	counts := make(map[abi.TaskStatus]int, len(statuses))
	for _, snap := range c.src.Snapshot() {
		id := strconv.FormatUint(uint64(snap.ID), 10)
		counts[snap.Status]++

		for sc, n := range snap.SyscallTimes {
			if n == 0 {
				continue
			}
			ch <- prom.MustNewConstMetric(c.syscalls, prom.CounterValue, float64(n), id, snap.Name, syscallLabel(abi.SyscallID(sc)))
		}
		ch <- prom.MustNewConstMetric(c.cpu, prom.CounterValue, float64(snap.TimeUs)/1e6, id, snap.Name)
		for _, st := range statuses {
			v := 0.0
			if snap.Status == st {
				v = 1
			}
			ch <- prom.MustNewConstMetric(c.status, prom.GaugeValue, v, id, snap.Name, st.String())
		}
		if snap.Status == abi.StatusExited {
			ch <- prom.MustNewConstMetric(c.exitCode, prom.GaugeValue, float64(snap.ExitCode), id, snap.Name)
		}
	}
	for _, st := range statuses {
		ch <- prom.MustNewConstMetric(c.tasks, prom.GaugeValue, float64(counts[st]), st.String())
	}
}

func syscallLabel(id abi.SyscallID) string {
	if id.Known() {
		return id.String()
	}
	return strconv.Itoa(int(id))
}
