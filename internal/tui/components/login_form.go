package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/tui/styles"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// LoginForm collects credentials and shows per-field errors inline
type LoginForm struct {
	inputs      [fieldCount]textinput.Model
	focus       int
	submitting  bool
	errMsg      string
	fieldErrors map[string]string
	width       int
	height      int
}

// NewLoginForm creates an empty form focused on the email field
func NewLoginForm() LoginForm {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 128
		ti.Width = 30
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		return ti
	}

	f := LoginForm{}
	f.inputs[fieldEmail] = newInput("you@example.com")
	f.inputs[fieldPassword] = newInput("password")
	f.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	f.inputs[fieldPassword].EchoCharacter = '•'
	f.inputs[fieldEmail].Focus()
	return f
}

// Reset clears the form, keeping the email for convenience
func (f *LoginForm) Reset() {
	f.inputs[fieldPassword].SetValue("")
	f.submitting = false
	f.errMsg = ""
	f.fieldErrors = nil
	f.setFocus(fieldEmail)
}

// SetSize updates the form's bounding area
func (f *LoginForm) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// SetSubmitting marks the form busy; input is ignored while busy
func (f *LoginForm) SetSubmitting(v bool) {
	f.submitting = v
}

// SetError shows a failed login. Field errors are keyed by JSON name.
func (f *LoginForm) SetError(msg string, fields map[string]string) {
	f.submitting = false
	f.errMsg = msg
	f.fieldErrors = fields
	f.inputs[fieldPassword].SetValue("")
}

// Credentials returns the entered credentials
func (f LoginForm) Credentials() domain.Credentials {
	return domain.Credentials{
		Email:    strings.TrimSpace(f.inputs[fieldEmail].Value()),
		Password: f.inputs[fieldPassword].Value(),
	}
}

func (f *LoginForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// Update handles input. The bool is true when the form was submitted.
func (f LoginForm) Update(msg tea.Msg) (LoginForm, tea.Cmd, bool) {
	if f.submitting {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, LoginKeys.Submit):
			if f.focus == fieldEmail {
				f.setFocus(fieldPassword)
				return f, nil, false
			}
			return f, nil, true
		case key.Matches(keyMsg, LoginKeys.Next):
			f.setFocus(f.focus + 1)
			return f, nil, false
		case key.Matches(keyMsg, LoginKeys.Prev):
			f.setFocus(f.focus - 1)
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

// View renders the form centered in its bounding area
func (f LoginForm) View(spinner string) string {
	const width = 40

	label := func(i int, text, field string) string {
		style := styles.SubtitleStyle
		if i == f.focus {
			style = styles.AccentStyle
		}
		out := style.Render(text) + "\n" + f.inputs[i].View()
		if msg, ok := f.fieldErrors[field]; ok {
			out += "\n" + styles.ErrorStyle.Render(field+" "+msg)
		}
		return out
	}

	var status string
	switch {
	case f.submitting:
		status = spinner + " " + styles.DimStyle.Render("Signing in...")
	case f.errMsg != "":
		status = styles.ErrorStyle.Render(f.errMsg)
	default:
		status = styles.DimStyle.Render("enter to continue · ctrl+c to quit")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Sign in to the library"),
		label(fieldEmail, "Email", "email"),
		"",
		label(fieldPassword, "Password", "password"),
		"",
		status,
	)

	modal := styles.ModalStyle.Width(width).Render(content)
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, modal)
}
