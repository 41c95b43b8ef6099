// Package gate provides the interactive confirmation capability.
package gate

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Gate asks the operator a yes/no question. The orchestrator never invokes
// the gate when force mode is set.
type Gate interface {
	Confirm(prompt string) bool
}

// Terminal prompts on the controlling terminal. When stdin is not a terminal
// it refuses instead of blocking or defaulting to yes; unattended runs must
// opt in with force mode.
//
// Confirmations are serialized: concurrent node workers each get a complete
// prompt-and-answer exchange, and a single long-lived reader keeps buffered
// input intact between prompts. Beyond the report accumulator, stdin is the
// one resource parallel workers would otherwise contend on.
type Terminal struct {
	mu         sync.Mutex
	scanner    *bufio.Scanner
	out        io.Writer
	isTerminal bool
}

// NewTerminal builds a gate bound to the process's stdin/stdout.
func NewTerminal() *Terminal {
	fd := os.Stdin.Fd()
	return newTerminal(os.Stdin, os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func newTerminal(in io.Reader, out io.Writer, isTerminal bool) *Terminal {
	return &Terminal{
		scanner:    bufio.NewScanner(in),
		out:        out,
		isTerminal: isTerminal,
	}
}

// Confirm prompts and reads one line. Only an explicit "y" or "yes" answer
// confirms. Each call consumes exactly one answer line.
func (t *Terminal) Confirm(prompt string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isTerminal {
		log.Print("[WARN] stdin is not a terminal; refusing confirmation (use -force for unattended runs)")
		return false
	}

	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)

	if !t.scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(t.scanner.Text()))
	return answer == "y" || answer == "yes"
}
