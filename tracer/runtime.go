package tracer

import "runtime"

// Version is the library version reported in exported run records.
const Version = "0.1.0"

// runtimeEnvironment describes the executing environment. It is injected
// into each run's extra mapping at conversion time and not interpreted
// further.
func runtimeEnvironment() map[string]interface{} {
	return map[string]interface{}{
		"library":         "runtrail",
		"library_version": Version,
		"runtime":         "go",
		"runtime_version": runtime.Version(),
		"platform":        runtime.GOOS + "/" + runtime.GOARCH,
	}
}
