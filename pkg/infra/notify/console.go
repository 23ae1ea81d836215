package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sokoide/shopfront/pkg/domain"
)

// ConsoleNotifier prints toasts as single lines on the terminal.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) Notify(ctx context.Context, n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", badge(n.Kind), n.Message)
	return err
}

func badge(k domain.NotificationKind) string {
	switch k {
	case domain.NotifySuccess:
		return "[ok]"
	case domain.NotifyError:
		return "[error]"
	default:
		return "[info]"
	}
}
