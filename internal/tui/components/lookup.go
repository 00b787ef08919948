package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/stacks/internal/debounce"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/search"
	"github.com/mmcdole/stacks/internal/tui/styles"
)

const maxLookupResults = 10

// Lookup is the book lookup modal. The query is fed to a debounced
// trigger by the owner; the modal only renders the trigger's state.
type Lookup struct {
	input     textinput.Model
	state     debounce.State[domain.Book]
	cursor    int
	visible   bool
	width     int
	height    int
	prevQuery string
}

// NewLookup creates a hidden lookup modal
func NewLookup() Lookup {
	ti := textinput.New()
	ti.Placeholder = "Title, author or ISBN..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Lookup{input: ti}
}

// Show makes the modal visible with an empty query
func (o *Lookup) Show() {
	o.visible = true
	o.input.Focus()
	o.input.SetValue("")
	o.state = debounce.State[domain.Book]{}
	o.cursor = 0
	o.prevQuery = ""
}

// Hide hides the modal
func (o *Lookup) Hide() {
	o.visible = false
	o.input.Blur()
}

// IsVisible returns true if the modal is shown
func (o Lookup) IsVisible() bool {
	return o.visible
}

// SetSize updates the modal's bounding area
func (o *Lookup) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.input.Width = max(width-10, 10)
}

// SetState replaces the rendered trigger state
func (o *Lookup) SetState(state debounce.State[domain.Book]) {
	o.state = state
	if o.cursor >= len(state.Results) {
		o.cursor = max(len(state.Results)-1, 0)
	}
}

// Query returns the current input
func (o Lookup) Query() string {
	return o.input.Value()
}

// QueryChanged reports whether the input changed since the last call
func (o *Lookup) QueryChanged() bool {
	current := o.input.Value()
	if current != o.prevQuery {
		o.prevQuery = current
		return true
	}
	return false
}

// Selected returns the highlighted book, or nil
func (o Lookup) Selected() *domain.Book {
	if o.cursor >= len(o.state.Results) {
		return nil
	}
	b := o.state.Results[o.cursor]
	return &b
}

// Update handles key input. The bool is true when a result was chosen.
func (o Lookup) Update(msg tea.Msg) (Lookup, tea.Cmd, bool) {
	if !o.visible {
		return o, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, LookupKeys.Escape):
			o.Hide()
			return o, nil, false
		case key.Matches(keyMsg, LookupKeys.Enter):
			return o, nil, o.Selected() != nil
		case key.Matches(keyMsg, LookupKeys.Down):
			if o.cursor < min(len(o.state.Results), maxLookupResults)-1 {
				o.cursor++
			}
			return o, nil, false
		case key.Matches(keyMsg, LookupKeys.Up):
			if o.cursor > 0 {
				o.cursor--
			}
			return o, nil, false
		}
	}

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return o, cmd, false
}

// View renders the modal centered in its bounding area
func (o Lookup) View(spinner string) string {
	if !o.visible {
		return ""
	}

	modalWidth := min(max(o.width*2/3, 40), 80)

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Find a book"))
	b.WriteString("\n")
	b.WriteString(o.input.View())
	b.WriteString("\n\n")

	switch o.state.Phase {
	case debounce.Idle:
		if strings.TrimSpace(o.input.Value()) != "" {
			b.WriteString(styles.DimStyle.Render("Keep typing..."))
		}
	case debounce.Pending, debounce.Fetching:
		b.WriteString(spinner + " " + styles.DimStyle.Render("Searching..."))
	case debounce.Settled:
		o.renderResults(&b, modalWidth)
	}

	content := lipgloss.NewStyle().Width(modalWidth - 4).Render(b.String())
	modal := styles.ModalStyle.Width(modalWidth).Render(content)
	return lipgloss.Place(o.width, o.height, lipgloss.Center, lipgloss.Center, modal)
}

func (o Lookup) renderResults(b *strings.Builder, modalWidth int) {
	if o.state.Error != "" {
		b.WriteString(styles.ErrorStyle.Render(o.state.Error))
		return
	}
	if len(o.state.Results) == 0 {
		b.WriteString(styles.DimStyle.Render("No matches found"))
		return
	}

	query := o.state.Query
	for i, book := range o.state.Results {
		if i >= maxLookupResults {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("... and %d more", len(o.state.Results)-maxLookupResults)))
			break
		}
		selected := i == o.cursor

		marker := styles.SuccessStyle.Render(styles.AvailableChar)
		if !book.Available() {
			marker = styles.DimStyle.Render(styles.UnavailableChar)
		}

		title := styles.Truncate(book.Title, modalWidth-36)
		line := styles.RenderHighlighted(title, search.Highlight(query, title), selected)
		author := styles.DimStyle.Render(" " + styles.Truncate(book.Description(), 26))
		if selected {
			line = styles.AccentStyle.Render("› ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(marker + line + author + "\n")
	}
}
