// Package version holds build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns only the version number
func Short() string {
	return Version
}

// Info returns detailed version information
func Info() string {
	return fmt.Sprintf("chatctx %s\ncommit: %s\nbuilt: %s\ngo: %s",
		Version, Commit, BuildTime, runtime.Version())
}
