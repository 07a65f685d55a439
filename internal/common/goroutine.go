// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks spawned goroutines for diagnostics
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the service.
// Use this for async operations like a media DAG task or a bulk-batch
// orchestrator run where a single panicking job should not bring down doclingd.
//
// Example:
//
//	common.SafeGo(o.logger, "bulk-batch-"+batchID, func() {
//	    o.executor.ExecuteBulk(ctx, jobs)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Get stack trace
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				// Log the panic
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing service operation")
				} else {
					// Fallback to stderr if no logger
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}

				// Optionally write to crash log file for post-mortem analysis
				// But don't exit - this is a non-fatal goroutine crash
				writeCrashLog(name, r, stackTrace)
			}
		}()

		fn()
	}()
}

// SafeGoWithContext runs a function in a goroutine with panic recovery and context support.
// The context is checked once, before fn starts: if it is already cancelled
// the goroutine exits without running fn. A cancellation after fn has
// started does not stop fn.
//
// Example:
//
//	common.SafeGoWithContext(ctx, logger, "pdf-ingest", func() {
//	    doc, err = pipeline.IngestPDF(path, cfg)
//	})
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Get stack trace
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				// Log the panic
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing service operation")
				}

				// Write to crash log for analysis
				writeCrashLog(name, r, stackTrace)
			}
		}()

		// Check context before running
		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Debug().Str("goroutine", name).Msg("Goroutine cancelled before start")
			}
			return
		default:
		}

		fn()
	}()
}

// writeCrashLog writes a non-fatal crash log entry for a recovered goroutine
// panic. These use a "goroutine-panic-" filename prefix, distinct from
// WriteCrashFile's "crash-" prefix, so an operator scanning CrashLogDir can
// tell a recovered task failure from a process-ending one at a glance.
func writeCrashLog(goroutineName string, panicVal interface{}, stackTrace string) {
	timestamp := time.Now().Format("2006-01-02T15-04-05")
	path := filepath.Join(CrashLogDir, fmt.Sprintf("goroutine-panic-%s-%s.log", goroutineName, timestamp))

	report := fmt.Sprintf(
		"=== DOCLING GOROUTINE PANIC (recovered) ===\nTime: %s\nVersion: %s\nGoroutine: %s\n\n=== PANIC VALUE ===\n%v\n\n=== STACK TRACE ===\n%s\n",
		time.Now().Format(time.RFC3339), GetFullVersion(), goroutineName, panicVal, stackTrace,
	)

	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write goroutine crash log %s: %v\n", path, err)
	}
}
