// Package zap invokes the destructive wipe for one device on one node.
package zap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"zapfleet/internal/config"
	"zapfleet/internal/runner"
	"zapfleet/internal/zapfleet"
)

// Executor runs the configured zap command through the remote runner, or
// previews it in dry-run mode. The destructive call is never retried.
type Executor struct {
	Runner  runner.Runner
	Command config.ZapCommand
	DryRun  bool
}

// Zap wipes one device. In dry-run mode it returns immediately after logging
// the exact command that would run; no transport call is made. A failed zap
// is recorded and does not stop the node's remaining devices.
func (e *Executor) Zap(ctx context.Context, device zapfleet.Device) zapfleet.ZapOutcome {
	command := e.Command.CommandFor(device.Name)

	if e.DryRun {
		log.Printf("[INFO] Dry-run: would zap /dev/%s on %s: %s", device.Name, device.Node, command)
		return zapfleet.ZapOutcome{Device: device.Name, Status: zapfleet.ZapDryRun, Detail: command}
	}

	log.Printf("[INFO] Zapping /dev/%s on %s", device.Name, device.Node)
	res, err := e.Runner.Run(ctx, device.Node, command)
	if err != nil {
		log.Printf("[ERROR] Zap of /dev/%s on %s failed: %v", device.Name, device.Node, err)
		return zapfleet.ZapOutcome{
			Device: device.Name,
			Status: zapfleet.ZapFailed,
			Detail: fmt.Sprintf("transport failure: %v", err),
		}
	}
	if res.ExitCode != 0 {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", res.ExitCode)
		}
		log.Printf("[ERROR] Zap of /dev/%s on %s failed: %s", device.Name, device.Node, detail)
		return zapfleet.ZapOutcome{Device: device.Name, Status: zapfleet.ZapFailed, Detail: detail}
	}

	log.Printf("[INFO] Zapped /dev/%s on %s", device.Name, device.Node)
	return zapfleet.ZapOutcome{Device: device.Name, Status: zapfleet.ZapSucceeded}
}
