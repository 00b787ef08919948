package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/tui/styles"
)

// Column is a fixed-width column of a PagedList. Width 0 takes the rest.
type Column struct {
	Title string
	Width int
}

// PagedList renders one server page of rows with a cursor. Rows are
// supplied on every View so the list never holds stale data.
type PagedList struct {
	noun    string
	columns []Column
	cursor  int
	width   int
	height  int
}

// NewPagedList creates a list; noun names the rows in the footer ("books")
func NewPagedList(noun string, columns ...Column) PagedList {
	return PagedList{noun: noun, columns: columns}
}

// SetSize updates the list dimensions
func (l *PagedList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Cursor returns the selected row index
func (l PagedList) Cursor() int {
	return l.cursor
}

// ResetCursor moves the cursor to the first row
func (l *PagedList) ResetCursor() {
	l.cursor = 0
}

// Clamp keeps the cursor inside a page of n rows
func (l *PagedList) Clamp(n int) {
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// Update moves the cursor over a page of n rows
func (l PagedList) Update(msg tea.Msg, n int) PagedList {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l
	}
	switch {
	case key.Matches(keyMsg, ListKeys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(keyMsg, ListKeys.Down):
		if l.cursor < n-1 {
			l.cursor++
		}
	case key.Matches(keyMsg, ListKeys.Home):
		l.cursor = 0
	case key.Matches(keyMsg, ListKeys.End):
		l.cursor = max(n-1, 0)
	}
	return l
}

// View renders the header, the rows and a pagination line
func (l PagedList) View(rows [][]styles.RowPart, pag domain.Pagination, errMsg string) string {
	var b strings.Builder

	b.WriteString(l.renderHeader())
	b.WriteString("\n")

	// header + pagination line
	visible := max(l.height-2, 1)
	switch {
	case errMsg != "" && len(rows) == 0:
		b.WriteString(styles.ErrorStyle.Render("  " + errMsg))
		b.WriteString("\n")
		visible--
	case len(rows) == 0:
		b.WriteString(styles.DimStyle.Render("  No " + l.noun))
		b.WriteString("\n")
		visible--
	}

	for i, row := range rows {
		if i >= visible {
			break
		}
		b.WriteString(styles.RenderListRow(l.fit(row), i == l.cursor, l.width))
		b.WriteString("\n")
	}

	content := lipgloss.NewStyle().Height(max(l.height-1, 1)).Render(strings.TrimSuffix(b.String(), "\n"))
	return content + "\n" + l.renderPagination(pag)
}

func (l PagedList) renderHeader() string {
	parts := make([]string, len(l.columns))
	for i, c := range l.columns {
		parts[i] = styles.Pad(c.Title, l.columnWidth(i))
	}
	return " " + styles.DimStyle.Render(strings.Join(parts, ""))
}

func (l PagedList) renderPagination(pag domain.Pagination) string {
	if pag.PageCount == 0 {
		return styles.DimStyle.Render(fmt.Sprintf(" Page %d", pag.Page))
	}
	return styles.DimStyle.Render(fmt.Sprintf(" Page %d of %d · %d %s", pag.Page, pag.PageCount, pag.Total, l.noun))
}

// fit pads or truncates each part to its column width
func (l PagedList) fit(row []styles.RowPart) []styles.RowPart {
	out := make([]styles.RowPart, len(row))
	for i, part := range row {
		w := l.columnWidth(i)
		part.Text = styles.Pad(styles.Truncate(part.Text, w-1), w)
		out[i] = part
	}
	return out
}

func (l PagedList) columnWidth(i int) int {
	if i >= len(l.columns) {
		return 0
	}
	if w := l.columns[i].Width; w > 0 {
		return w
	}
	used := 0
	for _, c := range l.columns {
		used += c.Width
	}
	// 2 for row margins
	return max(l.width-used-2, 8)
}
