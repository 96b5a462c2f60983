package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"budget/internal/dialog"
)

// ConsoleNotifier prints dialog notifications to a terminal. Loading
// messages are only shown when Verbose is set.
type ConsoleNotifier struct {
	Out     io.Writer
	Verbose bool

	mu   sync.Mutex
	last map[string]dialog.Notification
}

var _ dialog.Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(out io.Writer, verbose bool) *ConsoleNotifier {
	return &ConsoleNotifier{Out: out, Verbose: verbose, last: make(map[string]dialog.Notification)}
}

func (c *ConsoleNotifier) Notify(_ context.Context, n dialog.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[n.ID] = n

	switch n.Kind {
	case dialog.KindLoading:
		if c.Verbose {
			fmt.Fprintln(c.Out, SubtleStyle.Render("… "+n.Message))
		}
	case dialog.KindSuccess:
		fmt.Fprintln(c.Out, SuccessStyle.Render("✓ "+n.Message))
	case dialog.KindError:
		fmt.Fprintln(c.Out, ErrorStyle.Render("✗ "+n.Message))
	default:
		fmt.Fprintln(c.Out, n.Message)
	}
}

// Last returns the latest notification sent under id.
func (c *ConsoleNotifier) Last(id string) (dialog.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.last[id]
	return n, ok
}
