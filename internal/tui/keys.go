package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the application-level key bindings
type KeyMap struct {
	// Screens
	Catalog key.Binding
	Loans   key.Binding
	Fines   key.Binding
	NextTab key.Binding

	// Paging
	NextPage key.Binding
	PrevPage key.Binding
	Refresh  key.Binding

	// Actions
	Lookup          key.Binding
	ToggleAvailable key.Binding
	Borrow          key.Binding
	Return          key.Binding
	Pay             key.Binding
	Dismiss         key.Binding
	Logout          key.Binding
	Quit            key.Binding
	Help            key.Binding
	Escape          key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Catalog: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "catalog"),
		),
		Loans: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "loans"),
		),
		Fines: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "fines"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next screen"),
		),

		NextPage: key.NewBinding(
			key.WithKeys("n", "right", "pgdown"),
			key.WithHelp("n/→", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "left", "pgup"),
			key.WithHelp("p/←", "previous page"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),

		Lookup: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "find a book"),
		),
		ToggleAvailable: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "available only"),
		),
		Borrow: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "borrow"),
		),
		Return: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "return"),
		),
		Pay: key.NewBinding(
			key.WithKeys("$"),
			key.WithHelp("$", "pay fine"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss message"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
