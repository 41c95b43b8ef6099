package config

import (
	"strings"
	"testing"

	"zapfleet/internal/zapfleet"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse embedded config: %v", err)
	}

	for _, kind := range zapfleet.BlockingChecks {
		rule, ok := cfg.Checks[string(kind)]
		if !ok {
			t.Errorf("Missing blocking check %q", kind)
			continue
		}
		if rule.Reason == "" {
			t.Errorf("Check %q has no reason", kind)
		}
	}

	if _, ok := cfg.Checks[string(zapfleet.CheckSignature)]; !ok {
		t.Error("Missing advisory signature check")
	}
	if cfg.Zap.Command == "" {
		t.Error("Missing zap command")
	}
}

func TestDefaultReasons(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse embedded config: %v", err)
	}

	want := map[zapfleet.CheckKind]string{
		zapfleet.CheckExistence:  "does not exist",
		zapfleet.CheckMounted:    "mounted",
		zapfleet.CheckLvmMember:  "used by LVM",
		zapfleet.CheckRaidMember: "used by mdadm",
		zapfleet.CheckSwapMember: "used as swap",
	}
	for kind, reason := range want {
		if got := cfg.Checks[string(kind)].Reason; got != reason {
			t.Errorf("Check %q reason: got %q, want %q", kind, got, reason)
		}
	}
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "checks: [",
			wantErr: "failed to parse",
		},
		{
			name: "missing blocking check",
			yaml: `
checks:
  existence: {command: "test -b /dev/{device}", exitcode: 1, reason: "does not exist"}
zap: {command: "true"}
`,
			wantErr: "missing blocking check",
		},
		{
			name: "no failure criteria",
			yaml: `
checks:
  existence: {command: "true", reason: "does not exist"}
  mounted: {command: "true", includes: "x", reason: "mounted"}
  lvm_member: {command: "true", includes: "x", reason: "used by LVM"}
  raid_member: {command: "true", includes: "x", reason: "used by mdadm"}
  swap_member: {command: "true", includes: "x", reason: "used as swap"}
zap: {command: "true"}
`,
			wantErr: "no failure criteria",
		},
		{
			name: "invalid regex",
			yaml: `
checks:
  existence: {command: "true", exitcode: 1, reason: "does not exist"}
  mounted: {command: "true", includes: "[", reason: "mounted"}
  lvm_member: {command: "true", includes: "x", reason: "used by LVM"}
  raid_member: {command: "true", includes: "x", reason: "used by mdadm"}
  swap_member: {command: "true", includes: "x", reason: "used as swap"}
zap: {command: "true"}
`,
			wantErr: "invalid includes regex",
		},
		{
			name: "missing zap command",
			yaml: `
checks:
  existence: {command: "true", exitcode: 1, reason: "does not exist"}
  mounted: {command: "true", includes: "x", reason: "mounted"}
  lvm_member: {command: "true", includes: "x", reason: "used by LVM"}
  raid_member: {command: "true", includes: "x", reason: "used by mdadm"}
  swap_member: {command: "true", includes: "x", reason: "used as swap"}
`,
			wantErr: "no zap command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPlaceholderExpansion(t *testing.T) {
	rule := Rule{
		Command:  "test -b /dev/{device}",
		Includes: "^/dev/{device}$",
	}

	if got, want := rule.CommandFor("sdb"), "test -b /dev/sdb"; got != want {
		t.Errorf("CommandFor: got %q, want %q", got, want)
	}

	// Device names are regex-quoted inside patterns.
	if got, want := rule.IncludesFor("sd.b"), `^/dev/sd\.b$`; got != want {
		t.Errorf("IncludesFor: got %q, want %q", got, want)
	}
}

func TestZapCommandExpansion(t *testing.T) {
	z := ZapCommand{Command: "sgdisk --zap-all /dev/{device} && partprobe /dev/{device}"}
	got := z.CommandFor("nvme0n1")
	want := "sgdisk --zap-all /dev/nvme0n1 && partprobe /dev/nvme0n1"
	if got != want {
		t.Errorf("CommandFor: got %q, want %q", got, want)
	}
}
