// Package version holds build metadata injected with -ldflags "-X".
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.3.0
	Commit    = "none"                          // ex: 4f2a9c1
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-06-01T08:00:00Z
	GoVersion = runtime.Version()
)

// String is the one-line form used in startup logs.
func String() string {
	return Version + " (commit=" + Commit + ", built=" + BuildDate + ", go=" + GoVersion + ")"
}
