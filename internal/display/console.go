package display

import (
	"fmt"
	"io"
	"sync"
)

// Console prints styled lines to a writer. It is safe for concurrent use.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

var _ Screen = (*Console)(nil)
var _ Screen = (*UI)(nil)

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// PrintChat prints a line the assistant says.
func (c *Console) PrintChat(text string) { c.println(chatStyle.Render("  " + text)) }

// PrintHint prints a dimmed line.
func (c *Console) PrintHint(text string) { c.println(secondaryStyle.Render("  " + text)) }

// PrintUrgent prints an error line.
func (c *Console) PrintUrgent(text string) { c.println(urgentOutputStyle.Render("  " + text)) }

// PrintVoice prints a line recognised from voice input.
func (c *Console) PrintVoice(text string) {
	c.println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// Prompt writes the input prompt without a newline.
func (c *Console) Prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, promptStyle.Render(promptText))
}
