// Package config holds process-wide constants and build-time settings.
package config

// Version is the current mint version. Set at build time via
// -ldflags "-X github.com/mint-lang/mint/internal/config.Version=...".
var Version = "0.1.0"

// SourceFileExt is the canonical extension for mint scripts.
const SourceFileExt = ".mn"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".mn", ".mint"}

// Quantum is the number of VM steps a cursor is granted per scheduler
// round before it is preempted back onto the run queue.
const Quantum = 42

// PollTimeoutMillis is the timeout passed to the OS-level poll call when
// the scheduler has blocked cursors waiting on socket readiness.
const PollTimeoutMillis = 50

// ModuleSearchPathEnv is consulted, in addition to the script's own
// directory, when resolving canonical module names to files.
const ModuleSearchPathEnv = "MINT_MODULE_PATH"

// IsTestMode indicates the process is running under the test harness.
var IsTestMode = false
