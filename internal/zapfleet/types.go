// Package zapfleet defines shared data structures for zapfleet.
package zapfleet

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies a node's scheduling role in the cluster.
type Role string

const (
	RoleWorker       Role = "worker"
	RoleControlPlane Role = "control-plane"
)

// Node represents a machine in the fleet. Nodes are discovered once per run
// and immutable afterwards.
type Node struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Device is a block device discovered on a node. Only class "disk" devices
// are wipe candidates.
type Device struct {
	Name  string `json:"name"`  // kernel name, e.g. "sdb"
	Node  string `json:"node"`  // owning node name
	Class string `json:"class"` // lsblk TYPE column
}

// Path returns the device node path on the host.
func (d Device) Path() string { return "/dev/" + d.Name }

// CheckKind identifies a safety check.
type CheckKind string

const (
	CheckExistence  CheckKind = "existence"
	CheckMounted    CheckKind = "mounted"
	CheckLvmMember  CheckKind = "lvm_member"
	CheckRaidMember CheckKind = "raid_member"
	CheckSwapMember CheckKind = "swap_member"
	CheckSignature  CheckKind = "signature_present"
)

// BlockingChecks is the fixed evaluation order of the checks whose failure
// excludes a device from zapping. The signature check is advisory and always
// runs last.
var BlockingChecks = []CheckKind{
	CheckExistence,
	CheckMounted,
	CheckLvmMember,
	CheckRaidMember,
	CheckSwapMember,
}

// Blocking reports whether a failed check excludes the device from zapping.
func (k CheckKind) Blocking() bool { return k != CheckSignature }

// CheckResult is the three-valued outcome of a single safety check. A probe
// that cannot be completed (transport failure, unexpected probe exit) is
// Inconclusive, never silently Pass.
type CheckResult string

const (
	ResultPass         CheckResult = "pass"
	ResultFail         CheckResult = "fail"
	ResultInconclusive CheckResult = "inconclusive"
)

// CheckOutcome is the result of one safety check against one device.
type CheckOutcome struct {
	Kind   CheckKind   `json:"kind"`
	Result CheckResult `json:"result"`
	Reason string      `json:"reason,omitempty"`
}

// Classification is the verdict for one device: the ordered check outcomes
// that were evaluated plus whether the device is safe to zap.
type Classification struct {
	Device   Device         `json:"device"`
	Outcomes []CheckOutcome `json:"outcomes"`
	Safe     bool           `json:"safe"`
	Reason   string         `json:"reason,omitempty"`   // why the device is unsafe
	Advisory string         `json:"advisory,omitempty"` // warning that never blocks
}

// ZapStatus is the terminal state of a zap attempt for one device.
type ZapStatus string

const (
	ZapSkipped   ZapStatus = "skipped"
	ZapDryRun    ZapStatus = "dry-run"
	ZapSucceeded ZapStatus = "succeeded"
	ZapFailed    ZapStatus = "failed"
)

// ZapOutcome records what happened to one device.
type ZapOutcome struct {
	Device   string    `json:"device"`
	Status   ZapStatus `json:"status"`
	Detail   string    `json:"detail,omitempty"`   // skip reason, failure detail, or previewed command
	Advisory string    `json:"advisory,omitempty"` // surfaced from classification
}

// NodeSummary aggregates the outcomes for one node. Attempted counts zap
// invocations (live or dry-run); Succeeded counts the ones that completed
// (or previewed) without error.
type NodeSummary struct {
	Node      Node         `json:"node"`
	Outcomes  []ZapOutcome `json:"outcomes"`
	Attempted int          `json:"attempted"`
	Succeeded int          `json:"succeeded"`
	Err       string       `json:"error,omitempty"` // node-fatal enumeration failure
}

// Run modes and execution styles as rendered in the fleet report.
const (
	ModeDryRun = "dry-run"
	ModeLive   = "live"
)

// FleetReport is the final summary of a run. Summaries are kept in
// node-discovery order regardless of completion order.
type FleetReport struct {
	RunID      uuid.UUID     `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Mode       string        `json:"mode"`      // dry-run | live
	Execution  string        `json:"execution"` // sequential | parallel:N
	Summaries  []NodeSummary `json:"summaries"`
}
