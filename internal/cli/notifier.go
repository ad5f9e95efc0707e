package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/ledgerline/crm-api/internal/cli/formatter"
)

// consoleNotifier prints store notices to w. Loading notices are only
// shown when verbose.
type consoleNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

func (n *consoleNotifier) print(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, s)
}

func (n *consoleNotifier) Loading(_, message string) {
	if n.verbose {
		n.print(formatter.StyleDim.Render("… " + message))
	}
}

func (n *consoleNotifier) Success(_, message string) {
	n.print(formatter.StyleGreen.Render("✓ " + message))
}

func (n *consoleNotifier) Failure(_, message string) {
	n.print(formatter.StyleRed.Render("✗ " + message))
}
