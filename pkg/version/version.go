// Package version reports build information stamped in by the linker:
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/docgap/pkg/version.Version=v1.2.0 ..."
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata. Overridden with -ldflags -X at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by `docgap version`.
func String() string {
	commit := Commit

	if commit == "none" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
				}
			}
		}
	}

	return fmt.Sprintf("docgap %s (commit %s, built %s)", Version, commit, Date)
}
