package tui

import tea "github.com/charmbracelet/bubbletea"

// ChannelObserver turns store change callbacks into Bubble Tea messages.
// Bursts of changes coalesce into one pending message.
type ChannelObserver struct {
	ch chan struct{}
}

// NewChannelObserver creates an observer with a single-slot buffer
func NewChannelObserver() *ChannelObserver {
	return &ChannelObserver{ch: make(chan struct{}, 1)}
}

// Notify records a change (non-blocking if one is already pending)
func (o *ChannelObserver) Notify() {
	select {
	case o.ch <- struct{}{}:
	default:
	}
}

// Wait returns a command that delivers the next change
func (o *ChannelObserver) Wait() tea.Cmd {
	return func() tea.Msg {
		<-o.ch
		return StateChangedMsg{}
	}
}
