// Package orchestrator drives the fleet wipe pipeline: enumerate nodes, then
// per node enumerate devices, classify, gate, execute, and aggregate into a
// fleet report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"zapfleet/internal/gate"
	"zapfleet/internal/zapfleet"
)

// ErrAborted is returned when the operator declines the global confirmation.
var ErrAborted = errors.New("run aborted by operator")

// State names the run-level phases. Transitions are linear; verification
// failure aborts before any node is touched.
type State string

const (
	StateInit            State = "init"
	StateVerified        State = "verified"
	StateNodesDiscovered State = "nodes-discovered"
	StateProcessing      State = "processing"
	StateCompleted       State = "completed"
)

// NodeState names the per-node phases.
type NodeState string

const (
	NodeDevicesDiscovered NodeState = "devices-discovered"
	NodeClassified        NodeState = "classified"
	NodeGated             NodeState = "gated"
	NodeExecuting         NodeState = "executing"
	NodeSummarized        NodeState = "summarized"
)

// Verifier checks run prerequisites: execution capability, fleet
// reachability, admin privilege.
type Verifier interface {
	Verify(ctx context.Context) error
}

// NodeSource lists candidate nodes.
type NodeSource interface {
	Nodes(ctx context.Context) ([]zapfleet.Node, error)
}

// DeviceSource lists candidate devices on a node.
type DeviceSource interface {
	Devices(ctx context.Context, node string) ([]zapfleet.Device, error)
}

// Classifier yields a safety verdict for a device.
type Classifier interface {
	Classify(ctx context.Context, device zapfleet.Device) zapfleet.Classification
}

// Zapper wipes (or previews wiping) a device.
type Zapper interface {
	Zap(ctx context.Context, device zapfleet.Device) zapfleet.ZapOutcome
}

// Orchestrator coordinates one run. Parallel <= 1 means sequential node
// processing; larger values bound the number of concurrent node workers.
// Device processing within a node is always strictly sequential.
type Orchestrator struct {
	Verifier   Verifier
	Nodes      NodeSource
	Devices    DeviceSource
	Classifier Classifier
	Zapper     Zapper
	Gate       gate.Gate
	DryRun     bool
	Force      bool
	Parallel   int
	Debug      bool

	state State

	mu        sync.Mutex
	summaries []indexedSummary
}

type indexedSummary struct {
	index   int
	summary zapfleet.NodeSummary
}

// Run executes the full pipeline and returns the fleet report. Verification
// failure and an empty fleet are fatal; per-device failures are reported in
// the summary, not escalated.
func (o *Orchestrator) Run(ctx context.Context) (zapfleet.FleetReport, error) {
	report := zapfleet.FleetReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Mode:      o.mode(),
		Execution: o.execution(),
	}
	o.transition(StateInit)
	log.Printf("[INFO] Starting run %s (%s, %s)", report.RunID, report.Mode, report.Execution)

	if err := o.Verifier.Verify(ctx); err != nil {
		return report, fmt.Errorf("prerequisite verification failed: %w", err)
	}
	o.transition(StateVerified)

	nodes, err := o.Nodes.Nodes(ctx)
	if err != nil {
		return report, err
	}
	if len(nodes) == 0 {
		return report, errors.New("no candidate nodes found")
	}
	o.transition(StateNodesDiscovered)
	log.Printf("[INFO] Discovered %d candidate node(s)", len(nodes))

	if !o.Force {
		names := make([]string, 0, len(nodes))
		for _, node := range nodes {
			names = append(names, node.Name)
		}
		prompt := fmt.Sprintf("Start %s run against %d node(s) (%s)?",
			report.Mode, len(nodes), strings.Join(names, ", "))
		if !o.Gate.Confirm(prompt) {
			return report, ErrAborted
		}
	}

	o.transition(StateProcessing)
	o.summaries = o.summaries[:0]

	if o.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.Parallel)
		for i, node := range nodes {
			g.Go(func() error {
				o.record(i, o.processNode(gctx, node))
				return nil
			})
		}
		// Workers never return errors; node failures live in the summaries.
		_ = g.Wait()
	} else {
		for i, node := range nodes {
			o.record(i, o.processNode(ctx, node))
		}
	}

	report.Summaries = o.collect()
	report.FinishedAt = time.Now()
	o.transition(StateCompleted)
	return report, nil
}

// processNode runs one node through its device pipeline. All failures below
// node level are recorded in the summary and never abort the fleet.
func (o *Orchestrator) processNode(ctx context.Context, node zapfleet.Node) zapfleet.NodeSummary {
	summary := zapfleet.NodeSummary{Node: node}

	devices, err := o.Devices.Devices(ctx, node.Name)
	if err != nil {
		log.Printf("[ERROR] Skipping node %s: %v", node.Name, err)
		summary.Err = err.Error()
		o.nodeTransition(node.Name, NodeSummarized)
		return summary
	}
	o.nodeTransition(node.Name, NodeDevicesDiscovered)

	if len(devices) == 0 {
		log.Printf("[INFO] No candidate devices on %s", node.Name)
		o.nodeTransition(node.Name, NodeSummarized)
		return summary
	}

	// Classify every device before touching any of them.
	var safe []zapfleet.Classification
	for _, device := range devices {
		cls := o.Classifier.Classify(ctx, device)
		if cls.Safe {
			safe = append(safe, cls)
			continue
		}
		summary.Outcomes = append(summary.Outcomes, zapfleet.ZapOutcome{
			Device: device.Name,
			Status: zapfleet.ZapSkipped,
			Detail: cls.Reason,
		})
	}
	o.nodeTransition(node.Name, NodeClassified)

	if len(safe) == 0 {
		log.Printf("[INFO] No safe devices on %s", node.Name)
		o.nodeTransition(node.Name, NodeSummarized)
		return summary
	}

	// One confirmation per node, covering its whole safe-device set.
	if !o.Force {
		names := make([]string, 0, len(safe))
		for _, cls := range safe {
			names = append(names, cls.Device.Path())
		}
		prompt := fmt.Sprintf("Zap %d device(s) on %s (%s)?", len(safe), node.Name, strings.Join(names, ", "))
		if !o.Gate.Confirm(prompt) {
			log.Printf("[INFO] Operator declined node %s", node.Name)
			for _, cls := range safe {
				summary.Outcomes = append(summary.Outcomes, zapfleet.ZapOutcome{
					Device:   cls.Device.Name,
					Status:   zapfleet.ZapSkipped,
					Detail:   "confirmation declined",
					Advisory: cls.Advisory,
				})
			}
			o.nodeTransition(node.Name, NodeSummarized)
			return summary
		}
	}
	o.nodeTransition(node.Name, NodeGated)

	// Strictly sequential device loop: one zap completes before the next
	// begins on the same per-node execution channel.
	o.nodeTransition(node.Name, NodeExecuting)
	for _, cls := range safe {
		outcome := o.Zapper.Zap(ctx, cls.Device)
		outcome.Advisory = cls.Advisory
		summary.Outcomes = append(summary.Outcomes, outcome)
		summary.Attempted++
		if outcome.Status != zapfleet.ZapFailed {
			summary.Succeeded++
		}
	}

	o.nodeTransition(node.Name, NodeSummarized)
	return summary
}

// record appends a node summary under mutual exclusion; the index preserves
// discovery order for the final report.
func (o *Orchestrator) record(index int, summary zapfleet.NodeSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summaries = append(o.summaries, indexedSummary{index: index, summary: summary})
}

// collect sorts the accumulated summaries back into discovery order.
func (o *Orchestrator) collect() []zapfleet.NodeSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	sort.Slice(o.summaries, func(i, j int) bool { return o.summaries[i].index < o.summaries[j].index })
	out := make([]zapfleet.NodeSummary, 0, len(o.summaries))
	for _, s := range o.summaries {
		out = append(out, s.summary)
	}
	return out
}

func (o *Orchestrator) transition(next State) {
	if o.Debug {
		log.Printf("[DEBUG] Run state: %s -> %s", o.state, next)
	}
	o.state = next
}

func (o *Orchestrator) nodeTransition(node string, next NodeState) {
	if o.Debug {
		log.Printf("[DEBUG] Node %s state: %s", node, next)
	}
}

func (o *Orchestrator) mode() string {
	if o.DryRun {
		return zapfleet.ModeDryRun
	}
	return zapfleet.ModeLive
}

func (o *Orchestrator) execution() string {
	if o.Parallel > 1 {
		return fmt.Sprintf("parallel:%d", o.Parallel)
	}
	return "sequential"
}
