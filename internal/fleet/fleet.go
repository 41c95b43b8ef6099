// Package fleet enumerates candidate nodes and block devices.
package fleet

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"zapfleet/internal/runner"
	"zapfleet/internal/zapfleet"
)

const (
	// Retry configuration for the read-only node listing.
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Device name prefixes that are never wipe candidates: loopback, ram disks,
// floppy, optical, network-block, compressed ram, device-mapper, md arrays,
// and drbd replicas.
var excludedDevicePrefixes = []string{"loop", "ram", "fd", "sr", "nbd", "zram", "dm-", "md", "drbd"}

// ClusterClient runs read-only inventory queries against the cluster.
type ClusterClient interface {
	Local(ctx context.Context, args ...string) (runner.Result, error)
}

// NodeEnumerator lists candidate fleet nodes, excluding control-plane
// machines. The same inventory always yields the same sorted sequence.
type NodeEnumerator struct {
	Client ClusterClient
	Filter *regexp.Regexp // optional node-name filter
	Debug  bool
}

// Nodes returns the candidate worker nodes sorted by name. A transport
// failure here is fatal to the run.
func (e *NodeEnumerator) Nodes(ctx context.Context) ([]zapfleet.Node, error) {
	var res runner.Result
	err := retry.Do(func() error {
		var err error
		res, err = e.Client.Local(ctx, "get", "nodes", "--no-headers")
		return err
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("failed to list nodes: %s", strings.TrimSpace(res.Stderr))
	}

	var nodes []zapfleet.Node
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		node := zapfleet.Node{Name: fields[0], Role: parseRole(fields[2])}

		if node.Role == zapfleet.RoleControlPlane {
			if e.Debug {
				log.Printf("[DEBUG] Excluding control-plane node %s", node.Name)
			}
			continue
		}
		if e.Filter != nil && !e.Filter.MatchString(node.Name) {
			if e.Debug {
				log.Printf("[DEBUG] Excluding node %s (does not match filter)", node.Name)
			}
			continue
		}
		nodes = append(nodes, node)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes, nil
}

// parseRole maps the kubectl ROLES column to a node role. A node labeled
// both worker and control-plane is still excluded.
func parseRole(roles string) zapfleet.Role {
	for _, role := range strings.Split(roles, ",") {
		switch strings.TrimSpace(role) {
		case "control-plane", "master":
			return zapfleet.RoleControlPlane
		}
	}
	return zapfleet.RoleWorker
}

// DeviceEnumerator lists candidate block devices on a node.
type DeviceEnumerator struct {
	Runner runner.Runner
	Debug  bool
}

// Devices returns the candidate disk-class devices on a node sorted by name.
// A transport failure here is node-fatal: the caller records it and moves on
// to the rest of the fleet.
func (e *DeviceEnumerator) Devices(ctx context.Context, node string) ([]zapfleet.Device, error) {
	res, err := e.Runner.Run(ctx, node, "lsblk -dno NAME,TYPE")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices on %s: %w", node, err)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("failed to enumerate devices on %s: %s", node, strings.TrimSpace(res.Stderr))
	}

	var devices []zapfleet.Device
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		device := zapfleet.Device{Name: fields[0], Node: node, Class: fields[1]}

		if device.Class != "disk" || excludedDevice(device.Name) {
			if e.Debug {
				log.Printf("[DEBUG] Excluding %s on %s (class %s)", device.Name, node, device.Class)
			}
			continue
		}
		devices = append(devices, device)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

func excludedDevice(name string) bool {
	for _, prefix := range excludedDevicePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
