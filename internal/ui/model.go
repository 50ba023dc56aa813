// ABOUTME: Bubbletea model for the engine status TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	semitone = 1.0594630943592953 // 2^(1/12)
	minFreq  = 20.0
	maxFreq  = 20000.0
	ampStep  = 0.05
)

// Model represents the TUI state
type Model struct {
	// Engine
	status engine.Stats
	stats  StatsFunc

	// Tone
	tone     ToneChangeMsg
	toneCtrl *ToneControl

	// Debug
	showDebug bool

	interval time.Duration

	// Dimensions
	width  int
	height int
}

type tickMsg time.Time

// StatusMsg pushes a stats snapshot into the TUI
type StatusMsg struct {
	Stats engine.Stats
}

// Init starts polling engine stats
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	if m.stats == nil {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case tickMsg:
		m.applyStatus(StatusMsg{Stats: m.stats()})
		return m, m.tick()
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := m.renderHeader()
	s += m.renderTone()
	s += m.renderPool()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders engine state and device
func (m Model) renderHeader() string {
	state := "Stopped"
	icon := "✗"
	if m.status.State == engine.StateRunning {
		state = "Running"
		icon = "✓"
	}
	if m.status.Device != "" {
		state = fmt.Sprintf("%s on %s/%s", state, m.status.Backend, m.status.Device)
	}

	return fmt.Sprintf(`┌─ Noisemaker ─────────────────────────────────────────┐
│ Status: %s %-43s │
│ Format: %-45s │
├──────────────────────────────────────────────────────┤
`, icon, truncate(state, 43), m.status.Format)
}

// renderTone renders the current waveform
func (m Model) renderTone() string {
	ampBar := renderBar(int(math.Round(m.tone.Amplitude*100)), 100, 10)

	return fmt.Sprintf("│ Tone:   %-8s %10.2f Hz%-24s │\n"+
		"│ Level:  [%s] %3.0f%%%-29s │\n",
		m.tone.Shape, m.tone.Frequency, "",
		ampBar, m.tone.Amplitude*100, "")
}

// renderPool renders block pool occupancy
func (m Model) renderPool() string {
	queued := m.status.BlockCount - m.status.Free
	return fmt.Sprintf("│ Blocks: [%s] %d/%d queued%-19s │\n"+
		"│ Time:   %-45s │\n",
		renderBar(queued, m.status.BlockCount, 10), queued, m.status.BlockCount, "",
		formatTime(m.status.Time))
}

// renderStats renders block counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  Sent: %d  Played: %d  Failed: %d  Underruns: %d%-2s │
│                                                      │
`, m.status.Submitted, m.status.Completed, m.status.Failed, m.status.Underruns, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Level  ←/→:Pitch  w:Wave  d:Debug  q:Quit        │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Session: %-41s │
│   Current block: %-35d │
│   Spurious completions: %-28d │
`, m.status.SessionID, m.status.Current, m.status.Spurious)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tone := m.tone

	switch msg.String() {
	case "q", "ctrl+c":
		if m.toneCtrl != nil {
			select {
			case m.toneCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		tone.Amplitude = math.Min(1, math.Round((tone.Amplitude+ampStep)*100)/100)
	case "down":
		tone.Amplitude = math.Max(0, math.Round((tone.Amplitude-ampStep)*100)/100)
	case "right":
		tone.Frequency = math.Min(maxFreq, tone.Frequency*semitone)
	case "left":
		tone.Frequency = math.Max(minFreq, tone.Frequency/semitone)
	case "w":
		tone.Shape = nextShape(tone.Shape)
	case "d":
		m.showDebug = !m.showDebug
	}

	if tone != m.tone {
		m.tone = tone
		m.sendTone()
	}

	return m, nil
}

func (m Model) sendTone() {
	if m.toneCtrl == nil {
		return
	}
	select {
	case m.toneCtrl.Changes <- m.tone:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.status = msg.Stats
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = (value * width) / max
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func nextShape(shape string) string {
	i := slices.Index(engine.Shapes, shape)
	return engine.Shapes[(i+1)%len(engine.Shapes)]
}

func formatTime(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return fmt.Sprintf("%02d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, d.Milliseconds()%1000)
}
