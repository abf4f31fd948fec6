// Package apps holds the demo programs the host kernel can load.
package apps

import (
	"sort"

	"taskcore/kernel"
)

// App is a loadable program.
type App struct {
	Name  string
	Usage string
	Entry kernel.Entry
}

var registry = map[string]App{}

func register(app App) {
	registry[app.Name] = app
}

func init() {
	register(App{Name: "hello", Usage: "print a greeting and exit", Entry: Hello})
	register(App{Name: "yield_a", Usage: "print a row of A five times, yielding between rows", Entry: Power('A', 5)})
	register(App{Name: "yield_b", Usage: "print a row of B five times, yielding between rows", Entry: Power('B', 5)})
	register(App{Name: "yield_c", Usage: "print a row of C five times, yielding between rows", Entry: Power('C', 5)})
	register(App{Name: "sleep", Usage: "yield until 1s of timer time has passed", Entry: Sleep(1000)})
	register(App{Name: "taskinfo", Usage: "check task_info against get_time", Entry: TaskInfoCheck(200)})
	register(App{Name: "spin", Usage: "burn 50ms of CPU time without yielding", Entry: Spin(50)})
	register(App{Name: "fault", Usage: "crash and get killed by the kernel", Entry: Fault})
}

// Lookup returns the app registered under name.
func Lookup(name string) (App, bool) {
	app, ok := registry[name]
	return app, ok
}

// All returns every app sorted by name.
func All() []App {
	out := make([]App, 0, len(registry))
	for _, app := range registry {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Default is the batch loaded when no app is named.
func Default() []string {
	return []string{"hello", "yield_a", "yield_b", "yield_c", "sleep", "taskinfo", "spin"}
}
