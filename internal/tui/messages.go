package tui

import (
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/session"
)

// StateChangedMsg signals that a subscribed store changed; re-render from snapshots
type StateChangedMsg struct{}

// SessionReadyMsg reports the outcome of restoring the persisted session
type SessionReadyMsg struct {
	Authenticated bool
}

// LoginDoneMsg carries the outcome of a login attempt
type LoginDoneMsg struct {
	Result session.LoginResult
}

// LogoutDoneMsg signals that the session was cleared
type LogoutDoneMsg struct{}

// ActionDoneMsg carries the outcome of a mutation (borrow, return, pay).
// Refresh names the screen whose page should be re-fetched on success.
type ActionDoneMsg struct {
	Success string
	Failure *domain.Failure
	Refresh []Screen
}

// PageLoadedMsg carries the outcome of a page fetch on screen
type PageLoadedMsg struct {
	Screen  Screen
	Failure *domain.Failure
}
