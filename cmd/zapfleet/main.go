// Package main implements the zapfleet CLI that classifies fleet storage
// devices and orchestrates their destructive wipe.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"zapfleet/internal/classify"
	"zapfleet/internal/config"
	"zapfleet/internal/fleet"
	"zapfleet/internal/gate"
	"zapfleet/internal/orchestrator"
	"zapfleet/internal/report"
	"zapfleet/internal/runner"
	"zapfleet/internal/zap"
)

var (
	dryRun        = flag.Bool("dry-run", false, "Classify and report without wiping anything")
	force         = flag.Bool("force", false, "Skip all confirmation prompts")
	parallel      = flag.Int("parallel", 1, "Maximum number of nodes processed concurrently")
	ocBinary      = flag.String("oc", "oc", "Cluster client binary")
	configFile    = flag.String("config", "", "Probe rules file (defaults to the embedded rules)")
	nodeFilter    = flag.String("node-filter", "", "Only process nodes whose name matches this regex")
	skipSignature = flag.Bool("skip-signature-check", false, "Skip the advisory storage-signature probe")
	jsonOut       = flag.String("json-out", "", "Write the fleet report as JSON to this file")
	timeout       = flag.Duration("timeout", 2*time.Minute, "Per-command timeout")
	debugMode     = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *parallel < 1 {
		log.Fatal("[ERROR] -parallel must be at least 1")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	var filter *regexp.Regexp
	if *nodeFilter != "" {
		filter, err = regexp.Compile(*nodeFilter)
		if err != nil {
			log.Fatalf("[ERROR] Invalid -node-filter regex: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	oc := &runner.OCRunner{Binary: *ocBinary, Timeout: *timeout, Debug: *debugMode}

	orch := &orchestrator.Orchestrator{
		Verifier:   oc,
		Nodes:      &fleet.NodeEnumerator{Client: oc, Filter: filter, Debug: *debugMode},
		Devices:    &fleet.DeviceEnumerator{Runner: oc, Debug: *debugMode},
		Classifier: &classify.Classifier{Runner: oc, Config: cfg, SkipSignature: *skipSignature, Debug: *debugMode},
		Zapper:     &zap.Executor{Runner: oc, Command: cfg.Zap, DryRun: *dryRun},
		Gate:       gate.NewTerminal(),
		DryRun:     *dryRun,
		Force:      *force,
		Parallel:   *parallel,
		Debug:      *debugMode,
	}

	fleetReport, err := orch.Run(ctx)
	if err != nil {
		if errors.Is(err, orchestrator.ErrAborted) {
			log.Print("[INFO] Run aborted, nothing was touched")
			return
		}
		log.Fatalf("[ERROR] %v", err)
	}

	report.Render(os.Stdout, fleetReport)

	if *jsonOut != "" {
		if err := report.WriteJSON(*jsonOut, fleetReport); err != nil {
			log.Printf("[WARN] %v", err)
		} else {
			log.Printf("[INFO] Report written to %s", *jsonOut)
		}
	}

	// Per-device failures are reported above, not escalated to process
	// failure, so unattended batch runs can inspect the JSON report instead.
}
