package gate

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestConfirmAnswers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes short", "y\n", true},
		{"yes long", "yes\n", true},
		{"yes uppercase", "YES\n", true},
		{"yes padded", "  y  \n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"garbage", "sure\n", false},
		{"closed stdin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			g := newTerminal(strings.NewReader(tt.input), &out, true)

			if got := g.Confirm("Proceed?"); got != tt.want {
				t.Errorf("Confirm(%q): got %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "Proceed?") {
				t.Errorf("Prompt not written: %q", out.String())
			}
		})
	}
}

// Without a terminal the gate refuses rather than blocking or assuming yes.
func TestConfirmRefusesWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	g := newTerminal(strings.NewReader("y\n"), &out, false)

	if g.Confirm("Proceed?") {
		t.Error("Confirm must refuse when stdin is not a terminal")
	}
}

// Parallel node workers share one gate. Each Confirm call must consume
// exactly one answer line, so a batch of concurrent calls sees every typed
// answer exactly once and no call steals another call's input.
func TestConfirmConcurrentCallsConsumeOneAnswerEach(t *testing.T) {
	const callers = 4
	var out bytes.Buffer
	g := newTerminal(strings.NewReader("y\nn\nyes\nn\n"), &out, true)

	var wg sync.WaitGroup
	var confirmed atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Confirm("Zap node?") {
				confirmed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := confirmed.Load(); got != 2 {
		t.Errorf("Confirmed count: got %d, want 2", got)
	}
	if got := strings.Count(out.String(), "[y/N]:"); got != callers {
		t.Errorf("Prompts written: got %d, want %d", got, callers)
	}
}

// A second prompt must see input that arrived while an earlier prompt was
// being answered; the long-lived reader keeps buffered lookahead.
func TestConfirmPreservesBufferedInputBetweenCalls(t *testing.T) {
	var out bytes.Buffer
	g := newTerminal(strings.NewReader("n\ny\n"), &out, true)

	if g.Confirm("First?") {
		t.Error("First Confirm: got true, want false")
	}
	if !g.Confirm("Second?") {
		t.Error("Second Confirm: got false, want true")
	}
}
