// Package cli contains the command line interface for flk.
//
// # Usage
//
//	flk [flags] <command> [args]
//	flk conf.fl                        # same as: flk parse conf.fl
//	flk get conf.fl port
//	flk set conf.fl port 8000 + 80
//	flk new conf.fl tags list [web, api]
//	flk fmt json --indent=0 conf.fl
//	flk check -j 8 a.fl b.fl c.fl
//
// # Configuration
//
// Flag defaults are read from config.fl in the user configuration directory,
// written in FL itself with hyphens in flag names replaced by underscores:
//
//	log_level(str) = "debug"
//	log_pretty(bool) = false
//	path(list) = [/usr/share/fl]
//
// The init command writes this file from the current flag values. A
// config.json beside it is also consulted. Flags on the command line take
// precedence over both.
//
// # Language Options
//
//   - --path/-I: Directory searched for imports (repeatable)
//   - --extension: File extension of imported sources (default: fl)
//   - --[no-]atomic: Write edits through a temporary file and rename
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --[no-]log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o flk .
//
//   - --pprof-mode/-p: Enable profiling (allocs, block, clock, cpu,
//     goroutine, heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: pprof in the user
//     cache directory)
package cli
