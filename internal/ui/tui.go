// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the engine status UI
package ui

import (
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/pkg/engine"
	tea "github.com/charmbracelet/bubbletea"
)

// ToneControl holds channels for tone control communication
type ToneControl struct {
	Changes chan ToneChangeMsg
	Quit    chan QuitMsg
}

// ToneChangeMsg carries the tone selected in the TUI
type ToneChangeMsg struct {
	Shape     string
	Frequency float64
	Amplitude float64
}

// QuitMsg is sent when the user quits the TUI
type QuitMsg struct{}

// NewToneControl creates a new tone control handler
func NewToneControl() *ToneControl {
	return &ToneControl{
		Changes: make(chan ToneChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// StatsFunc returns the current engine counters
type StatsFunc func() engine.Stats

// NewModel creates a new TUI model
func NewModel(ctrl *ToneControl, tone ToneChangeMsg, stats StatsFunc) Model {
	return Model{
		tone:     tone,
		toneCtrl: ctrl,
		stats:    stats,
		interval: 100 * time.Millisecond,
	}
}

// Run creates the TUI program
func Run(ctrl *ToneControl, tone ToneChangeMsg, stats StatsFunc) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl, tone, stats), tea.WithAltScreen())
	return p, nil
}
