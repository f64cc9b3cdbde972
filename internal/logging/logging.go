// Package logging is the thin, ambient layer every component logs through.
// It does not replace logw (github.com/seekerror/logw) — every call site
// still uses logw.Infof/Warningf/Errorf/Debugf directly with a
// context.Context, the shape already used throughout this repo — it only
// adds the handful of cross-cutting concerns the CLI needs before any
// component-level logging happens: resolving the requested verbosity from
// a flag into the environment variable logw itself reads, and formatting
// the engine-name/PID fields the session package attaches to stderr lines.
package logging

import "fmt"

// LevelEnv is the environment variable logw's own logger configuration
// reads to pick its minimum level. Setting it here, before any logw call,
// lets --log-level behave the same as if the operator had exported it
// themselves.
const LevelEnv = "LOG_LEVEL"

// ValidLevels are the recognized values for --log-level.
var ValidLevels = []string{"debug", "info", "warning", "error"}

// IsValidLevel reports whether level is one of ValidLevels.
func IsValidLevel(level string) bool {
	for _, l := range ValidLevels {
		if l == level {
			return true
		}
	}
	return false
}

// EngineFields formats the name/PID pair attached to every stderr line
// logged from a child engine process (§4.1: "Stderr lines are logged at
// debug level with the engine name and PID as fields").
func EngineFields(name string, pid int) string {
	return fmt.Sprintf("engine=%s pid=%d", name, pid)
}
