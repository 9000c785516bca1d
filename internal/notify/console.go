package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorInfo    = lipgloss.Color("#06B6D4") // Cyan
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#64748B") // Slate 500
)

var (
	badgeStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	detailStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func levelColor(l Level) lipgloss.Color {
	switch l {
	case Success:
		return colorSuccess
	case Warning:
		return colorWarning
	case Error:
		return colorError
	default:
		return colorInfo
	}
}

func levelIcon(l Level) string {
	switch l {
	case Success:
		return "✓"
	case Warning:
		return "!"
	case Error:
		return "✗"
	default:
		return "•"
	}
}

// Console prints styled notifications for terminal users.
type Console struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Notify(n Notification) {
	line := badgeStyle.Foreground(levelColor(n.Level)).Render(levelIcon(n.Level)) + " " + n.Message
	if n.Description != "" {
		line += " " + detailStyle.Render(n.Description)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}
