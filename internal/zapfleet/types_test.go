package zapfleet

import "testing"

func TestBlockingChecksOrder(t *testing.T) {
	want := []CheckKind{CheckExistence, CheckMounted, CheckLvmMember, CheckRaidMember, CheckSwapMember}
	if len(BlockingChecks) != len(want) {
		t.Fatalf("BlockingChecks length: got %d, want %d", len(BlockingChecks), len(want))
	}
	for i, kind := range want {
		if BlockingChecks[i] != kind {
			t.Errorf("BlockingChecks[%d]: got %q, want %q", i, BlockingChecks[i], kind)
		}
	}
}

func TestBlocking(t *testing.T) {
	for _, kind := range BlockingChecks {
		if !kind.Blocking() {
			t.Errorf("%q must be blocking", kind)
		}
	}
	if CheckSignature.Blocking() {
		t.Error("Signature check must be advisory")
	}
}

func TestDevicePath(t *testing.T) {
	d := Device{Name: "nvme0n1", Node: "worker-1", Class: "disk"}
	if got, want := d.Path(), "/dev/nvme0n1"; got != want {
		t.Errorf("Path: got %q, want %q", got, want)
	}
}
