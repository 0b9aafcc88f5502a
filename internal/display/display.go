// Package display provides the terminal front end.
//
// [UI] is a Bubble Tea prompt with a status bar (indexed animals, speech
// and voice mode, last clip played). All output is printed above the
// rendered area via Program.Println, so concurrent writes never garble
// the prompt. [Console] is the plain line-oriented fallback used for
// one-shot commands and non-interactive input.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// promptText is plain so textinput's width math stays correct.
const promptText = "animal> "

// Screen is where the host loop prints. *UI and *Console implement it.
type Screen interface {
	PrintChat(text string)
	PrintHint(text string)
	PrintUrgent(text string)
	PrintVoice(text string)
}

// Status is what the status bar shows.
type Status struct {
	Animals    int    // codes in the sound index
	Speech     string // "azure", "text", ...
	Voice      bool   // voice input running
	LastPlayed string // base name of the last clip started
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may call the
// print helpers and read [UI.InputChan] once [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	status  atomic.Pointer[Status]
	done    atomic.Bool
}

// NewUI creates the display with an initial status. Call Run to start.
func NewUI(initial Status) *UI {
	u := &UI{
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
	}
	u.status.Store(&initial)
	return u
}

// Status returns a copy of the current status.
func (u *UI) Status() Status { return *u.status.Load() }

// UpdateStatus applies fn to a copy of the status and publishes it. The
// bar picks it up on the next tick.
func (u *UI) UpdateStatus(fn func(*Status)) {
	for {
		old := u.status.Load()
		next := *old
		fn(&next)
		if u.status.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Println prints a line above the prompt, or to stdout before Run starts
// and after it ends. Thread-safe.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintChat prints a line the assistant says.
func (u *UI) PrintChat(text string) { u.Println(chatStyle.Render("  " + text)) }

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) { u.Println(secondaryStyle.Render("  " + text)) }

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) { u.Println(urgentOutputStyle.Render("  " + text)) }

// PrintVoice prints a line recognised from voice input.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes typed input into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("animal") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// Run starts the event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Placeholder = "what does the cow say?"
	ti.Focus()
	ti.CharLimit = 300
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		status:  u.Status,
		status0: u.Status(),
		echoFn:  u.PrintUserInput,
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	status  func() Status
	status0 Status // snapshot rendered until the next tick
	width   int
}

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			m.inputCh <- v
			// Echo from a Cmd so Println does not deadlock inside Update.
			echoFn := m.echoFn
			return m, func() tea.Msg {
				echoFn(v)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		return m, nil

	case tickMsg:
		m.status0 = m.status()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(titleStr(m.status0)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(renderBar(m.status0, m.width))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func titleStr(s Status) string {
	if s.LastPlayed == "" {
		return "AnimalSay"
	}
	return "AnimalSay - " + s.LastPlayed
}

func renderBar(s Status, width int) string {
	onOff := func(label string, on bool, value string) string {
		if !on {
			return labelStyle.Render(label+": ") + offStyle.Render("off")
		}
		return labelStyle.Render(label+": ") + valueStyle.Render(value)
	}

	parts := []string{
		valueStyle.Render(fmt.Sprintf("%d", s.Animals)) + labelStyle.Render(" animals"),
		onOff("speech", s.Speech != "", s.Speech),
		onOff("voice", s.Voice, "listening"),
	}
	if s.LastPlayed != "" {
		parts = append(parts, labelStyle.Render("playing: ")+valueStyle.Render(s.LastPlayed))
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
	if width <= 0 {
		width = 80
	}
	return barBg.Width(width).Render(content)
}
