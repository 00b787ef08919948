package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/notify"
	"github.com/mmcdole/stacks/internal/tui/styles"
)

// dueSoon is how close to its due date an active loan is flagged
const dueSoon = 48 * time.Hour

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	spin := m.Spinner.View()
	bodyHeight := max(m.Height-ChromeHeight, 1)

	var body string
	switch {
	case m.Screen == ScreenLogin && m.restoring:
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center,
			spin+" "+styles.DimStyle.Render("Restoring session..."))
	case m.Screen == ScreenLogin:
		body = m.LoginForm.View(spin)
	case m.State == StateHelp:
		body = m.renderHelp(bodyHeight)
	case m.State == StateConfirmLogout:
		body = m.renderLogoutConfirmation(bodyHeight)
	case m.State == StateLookup:
		body = m.Lookup.View(spin)
	default:
		body = m.renderScreen() + "\n" + m.renderNotifications()
	}

	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderScreen() string {
	switch m.Screen {
	case ScreenCatalog:
		st := m.books.Snapshot()
		rows := make([][]styles.RowPart, len(st.Items))
		for i, b := range st.Items {
			rows[i] = bookRow(b)
		}
		return m.BookList.View(rows, st.Pagination, st.Error)
	case ScreenLoans:
		st := m.loans.Snapshot()
		now := m.clock.Now()
		rows := make([][]styles.RowPart, len(st.Items))
		for i, l := range st.Items {
			rows[i] = loanRow(l, now)
		}
		return m.LoanList.View(rows, st.Pagination, st.Error)
	case ScreenFines:
		st := m.fines.Snapshot()
		rows := make([][]styles.RowPart, len(st.Items))
		for i, f := range st.Items {
			rows[i] = fineRow(f)
		}
		return m.FineList.View(rows, st.Pagination, st.Error)
	}
	return ""
}

func (m Model) renderHeader() string {
	var tabViews []string
	for i, s := range tabs {
		label := fmt.Sprintf("%d %s", i+1, s)
		if m.Screen == s {
			tabViews = append(tabViews, styles.ActiveTabStyle.Render(label))
		} else {
			tabViews = append(tabViews, styles.TabStyle.Render(label))
		}
	}
	left := styles.TitleStyle.Render("Stacks") + " " + strings.Join(tabViews, "")
	if m.Screen == ScreenLogin {
		left = styles.TitleStyle.Render("Stacks")
	}

	var right string
	if u := m.session.Snapshot().User; u != nil {
		right = styles.SubtitleStyle.Render(u.DisplayName()) + " " + styles.RoleBadgeStyle.Render(string(u.Role))
	}
	if m.Screen == ScreenCatalog && m.availableOnly {
		left += " " + styles.AccentStyle.Render("[available only]")
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// renderNotifications shows the newest notifications, oldest first
func (m Model) renderNotifications() string {
	notes := m.notes.Snapshot()
	if len(notes) > MaxVisibleNotifications {
		notes = notes[len(notes)-MaxVisibleNotifications:]
	}

	lines := make([]string, 0, MaxVisibleNotifications)
	for _, n := range notes {
		lines = append(lines, renderNotification(n, m.Width))
	}
	for len(lines) < MaxVisibleNotifications {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func renderNotification(n notify.Notification, width int) string {
	style := styles.InfoStyle
	icon := "i"
	switch n.Kind {
	case notify.KindSuccess:
		style, icon = styles.SuccessStyle, styles.ReturnedChar
	case notify.KindWarning:
		style, icon = styles.WarningStyle, "!"
	case notify.KindError:
		style, icon = styles.ErrorStyle, "✗"
	}
	return " " + style.Render(icon+" "+styles.Truncate(n.Message, max(width-4, 1)))
}

func (m Model) renderFooter() string {
	var left string
	if m.loading() {
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading...")
	}

	var hints []key.Binding
	switch m.Screen {
	case ScreenLogin:
		return styles.DimStyle.Render(" ctrl+c quit")
	case ScreenCatalog:
		hints = []key.Binding{Keys.Lookup, Keys.Borrow, Keys.ToggleAvailable}
	case ScreenLoans:
		if m.session.IsStaff() {
			hints = []key.Binding{Keys.Return}
		}
	case ScreenFines:
		hints = []key.Binding{Keys.Pay}
	}
	hints = append(hints, Keys.NextPage, Keys.PrevPage, Keys.Help)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, styles.HelpKeyStyle.Render(h.Help().Key)+" "+styles.HelpDescStyle.Render(h.Help().Desc))
	}
	right := strings.Join(parts, "  ")

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHelp(height int) string {
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Screens", []key.Binding{Keys.Catalog, Keys.Loans, Keys.Fines, Keys.NextTab}},
		{"Pages", []key.Binding{Keys.NextPage, Keys.PrevPage, Keys.Refresh}},
		{"Catalog", []key.Binding{Keys.Lookup, Keys.ToggleAvailable, Keys.Borrow}},
		{"Loans & fines", []key.Binding{Keys.Return, Keys.Pay}},
		{"General", []key.Binding{Keys.Dismiss, Keys.Logout, Keys.Help, Keys.Quit}},
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(styles.SubtitleStyle.Render(sec.title))
		b.WriteString("\n")
		for _, k := range sec.bindings {
			h := k.Help()
			b.WriteString("  " + styles.HelpKeyStyle.Render(styles.Pad(h.Key, 10)) + styles.HelpDescStyle.Render(h.Desc) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("Press any key to close"))

	modal := styles.ModalStyle.Render(b.String())
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderLogoutConfirmation(height int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Sign out?"),
		"",
		styles.SubtitleStyle.Render("Your saved session on this device will be removed."),
		"",
		styles.HelpKeyStyle.Render("y")+" "+styles.HelpDescStyle.Render("sign out")+"   "+
			styles.HelpKeyStyle.Render("n")+" "+styles.HelpDescStyle.Render("cancel"),
	)
	modal := styles.ModalStyle.Render(content)
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, modal)
}

func bookRow(b domain.Book) []styles.RowPart {
	marker := styles.RowPart{Text: styles.AvailableChar, Foreground: &styles.Green}
	if !b.Available() {
		marker = styles.RowPart{Text: styles.UnavailableChar, Foreground: &styles.DimGray}
	}
	year := ""
	if b.PublishedYear > 0 {
		year = fmt.Sprint(b.PublishedYear)
	}
	return []styles.RowPart{
		marker,
		{Text: b.Title},
		{Text: b.Author},
		{Text: year},
		{Text: fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies)},
	}
}

func loanRow(l domain.Loan, now time.Time) []styles.RowPart {
	marker := styles.RowPart{Text: " "}
	status := styles.RowPart{Text: string(l.Status)}
	switch {
	case l.Status == domain.LoanReturned:
		marker = styles.RowPart{Text: styles.ReturnedChar, Foreground: &styles.Green}
	case l.IsOverdue(now):
		marker = styles.RowPart{Text: styles.OverdueChar, Foreground: &styles.Red}
		status = styles.RowPart{Text: "overdue", Foreground: &styles.Red}
	case l.DueDate.Sub(now) < dueSoon:
		status = styles.RowPart{Text: "due soon", Foreground: &styles.Yellow}
	}
	return []styles.RowPart{
		marker,
		{Text: l.BookTitle},
		{Text: formatDate(l.LoanDate)},
		{Text: formatDate(l.DueDate)},
		status,
	}
}

func fineRow(f domain.Fine) []styles.RowPart {
	status := styles.RowPart{Text: "unpaid", Foreground: &styles.Red}
	marker := styles.RowPart{Text: "$", Foreground: &styles.Amber}
	if f.Paid {
		status = styles.RowPart{Text: "paid", Foreground: &styles.Green}
		marker = styles.RowPart{Text: styles.ReturnedChar, Foreground: &styles.Green}
	}
	return []styles.RowPart{
		marker,
		{Text: f.Reason},
		{Text: formatDate(f.IssuedAt)},
		{Text: f.FormattedAmount()},
		status,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2 2006")
}
