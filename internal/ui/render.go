// Package ui renders the conversation transcript and status line for the
// terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"voice-assistant-client/internal/models"
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("208"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	errorStatusStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	fileChipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
)

// Console renders transcript entries, notices and the status line to a
// writer. Safe for concurrent use; channel events arrive from the read
// loop goroutine.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console renderer writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// ShowEntry renders one transcript entry.
func (c *Console) ShowEntry(entry models.TranscriptEntry) {
	label := userLabelStyle.Render("You:")
	if entry.Role == models.RoleAssistant {
		label = assistantLabelStyle.Render("Assistant:")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", label, entry.Text)
}

// ShowStatus renders the status line. Error statuses get their own style.
func (c *Console) ShowStatus(status string) {
	style := statusStyle
	if strings.HasPrefix(status, "Error:") {
		style = errorStatusStyle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, style.Render("["+status+"]"))
}

// ShowNotice renders a system notice, such as an upload result.
func (c *Console) ShowNotice(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, systemStyle.Render(text))
}

// ShowFiles renders the uploaded file list as chips with short hashes.
func (c *Console) ShowFiles(files []models.UploadedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(files) == 0 {
		fmt.Fprintln(c.out, systemStyle.Render("No files uploaded"))
		return
	}
	chips := make([]string, len(files))
	for i, f := range files {
		hash := f.Hash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		chips[i] = fileChipStyle.Render(fmt.Sprintf("%s %s", f.Name, hash))
	}
	fmt.Fprintln(c.out, strings.Join(chips, " "))
}
