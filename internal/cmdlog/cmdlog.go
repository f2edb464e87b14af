package cmdlog

import (
	"time"

	"tweetsieve/internal/logging"
	"tweetsieve/internal/metrics"
)

// Run executes one CLI command, counts it, and logs <cmd>_ok or <cmd>_error
// with the elapsed time.
func Run(cmd string, f func() error) error {
	start := time.Now()
	metrics.IncCommandRun(cmd)
	err := f()
	fields := map[string]any{"command": cmd, "elapsed": time.Since(start).String()}
	if err != nil {
		metrics.IncCommandError(cmd)
		fields["error"] = err
		logging.Error(cmd+"_error", fields)
		return err
	}
	logging.Info(cmd+"_ok", fields)
	return nil
}
