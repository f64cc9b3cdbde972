package version

import "github.com/seekerror/build"

// Version is the orchestrator's release version.
var Version = build.NewVersion(0, 1, 0)

// GitCommit and BuildDate are set via ldflags at build time. Defaults apply
// to local builds that skip that step.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)
