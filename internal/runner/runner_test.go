package runner

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDebugArgs(t *testing.T) {
	got := debugArgs("worker-1", "lsblk -dno NAME,TYPE")
	want := []string{"debug", "node/worker-1", "--quiet", "--", "chroot", "/host", "bash", "-c", "lsblk -dno NAME,TYPE"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("debugArgs: got %v, want %v", got, want)
	}
}

// Local and Run both record the command given to the transport, without the
// client binary prefixed.
func TestLocalRecordsCommand(t *testing.T) {
	r := &OCRunner{Binary: "echo", Timeout: 5 * time.Second}

	res, err := r.Local(context.Background(), "get", "nodes", "--no-headers")
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	if res.Command != "get nodes --no-headers" {
		t.Errorf("Command: got %q, want %q", res.Command, "get nodes --no-headers")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode: got %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(res.Stdout); got != "get nodes --no-headers" {
		t.Errorf("Stdout: got %q", got)
	}
}

func TestLimitOutput(t *testing.T) {
	small := []byte("hello")
	if got := limitOutput(small, maxOutputSize); got != "hello" {
		t.Errorf("limitOutput(small): got %q", got)
	}

	big := strings.Repeat("x", maxOutputSize+1)
	got := limitOutput([]byte(big), maxOutputSize)
	if len(got) <= maxOutputSize {
		t.Error("Truncation marker missing")
	}
	if !strings.Contains(got, "truncated") {
		t.Errorf("limitOutput(big) missing marker: %q", got[len(got)-50:])
	}
}
