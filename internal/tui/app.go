package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/stacks/internal/clock"
	"github.com/mmcdole/stacks/internal/config"
	"github.com/mmcdole/stacks/internal/debounce"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/fetch"
	"github.com/mmcdole/stacks/internal/notify"
	"github.com/mmcdole/stacks/internal/paging"
	"github.com/mmcdole/stacks/internal/search"
	"github.com/mmcdole/stacks/internal/session"
	"github.com/mmcdole/stacks/internal/tui/components"
	"github.com/mmcdole/stacks/internal/tui/styles"
)

// Screen is a top-level tab
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenCatalog
	ScreenLoans
	ScreenFines
)

var tabs = []Screen{ScreenCatalog, ScreenLoans, ScreenFines}

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "Sign in"
	case ScreenCatalog:
		return "Catalog"
	case ScreenLoans:
		return "Loans"
	case ScreenFines:
		return "Fines"
	default:
		return "Unknown"
	}
}

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateLookup
	StateHelp
	StateConfirmLogout
)

// Layout
const (
	// Header line plus footer line
	ChromeHeight = 2

	// Notifications shown above the footer
	MaxVisibleNotifications = 3
)

// Deps are the long-lived collaborators the model drives
type Deps struct {
	Session *session.Store
	Notify  *notify.Queue
	Client  domain.LibraryClient
	Config  *config.Config
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State  ApplicationState
	Screen Screen
	Ready  bool

	// Dimensions
	Width  int
	Height int

	// Stores
	session *session.Store
	notes   *notify.Queue
	client  domain.LibraryClient
	clock   clock.Clock
	logger  *slog.Logger

	books  *paging.Synchronizer[domain.Book]
	loans  *paging.Synchronizer[domain.Loan]
	fines  *paging.Synchronizer[domain.Fine]
	lookup *debounce.Trigger[domain.Book]

	borrow  *fetch.Unit[domain.LoanRequest, domain.Loan]
	returns *fetch.Unit[string, domain.Loan]
	pay     *fetch.Unit[string, domain.Fine]

	observer    *ChannelObserver
	unsubscribe []func()

	// UI Components
	LoginForm components.LoginForm
	Lookup    components.Lookup
	BookList  components.PagedList
	LoanList  components.PagedList
	FineList  components.PagedList
	Spinner   spinner.Model

	// UI state
	restoring     bool
	availableOnly bool
	visited       map[Screen]bool
}

// NewModel creates a new application model
func NewModel(deps Deps) Model {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pagingOpts := func(key string) []paging.Option {
		return []paging.Option{
			paging.WithLogger(logger),
			paging.WithLimit(cfg.Paging.Limit),
			paging.WithAutoClamp(cfg.Paging.AutoClamp),
			paging.WithKey(key),
			paging.WithImmediate(),
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		State:     StateBrowsing,
		Screen:    ScreenLogin,
		session:   deps.Session,
		notes:     deps.Notify,
		client:    deps.Client,
		clock:     clk,
		logger:    logger,
		books:     paging.New(deps.Client.ListBooks, pagingOpts("books")...),
		loans:     paging.New(deps.Client.ListLoans, pagingOpts("loans")...),
		fines:     paging.New(deps.Client.ListFines, pagingOpts("fines")...),
		borrow:    fetch.New(deps.Client.CreateLoan, fetch.WithLogger[domain.Loan](logger), fetch.WithKey[domain.Loan]("borrow")),
		returns:   fetch.New(deps.Client.ReturnLoan, fetch.WithLogger[domain.Loan](logger), fetch.WithKey[domain.Loan]("return")),
		pay:       fetch.New(deps.Client.PayFine, fetch.WithLogger[domain.Fine](logger), fetch.WithKey[domain.Fine]("pay")),
		observer:  NewChannelObserver(),
		LoginForm: components.NewLoginForm(),
		Lookup:    components.NewLookup(),
		BookList: components.NewPagedList("books",
			components.Column{Title: "", Width: 2},
			components.Column{Title: "Title"},
			components.Column{Title: "Author", Width: 24},
			components.Column{Title: "Year", Width: 6},
			components.Column{Title: "Copies", Width: 8},
		),
		LoanList: components.NewPagedList("loans",
			components.Column{Title: "", Width: 2},
			components.Column{Title: "Book"},
			components.Column{Title: "Borrowed", Width: 12},
			components.Column{Title: "Due", Width: 12},
			components.Column{Title: "Status", Width: 10},
		),
		FineList: components.NewPagedList("fines",
			components.Column{Title: "", Width: 2},
			components.Column{Title: "Reason"},
			components.Column{Title: "Issued", Width: 12},
			components.Column{Title: "Amount", Width: 10},
			components.Column{Title: "Status", Width: 8},
		),
		Spinner:   sp,
		restoring: true,
		visited:   make(map[Screen]bool),
	}

	m.lookup = debounce.New(deps.Client.SearchBooks, debounce.Config[domain.Book]{
		Clock:     clk,
		Logger:    logger,
		MinLength: cfg.Search.MinLength,
		Delay:     cfg.Search.Debounce,
		Rank: func(query string, books []domain.Book) []domain.Book {
			return search.Rank(query, books, func(b domain.Book) string { return b.Title })
		},
	})

	for _, subscribe := range []func(func()) func(){
		m.session.Subscribe,
		m.notes.Subscribe,
		m.books.Subscribe,
		m.loans.Subscribe,
		m.fines.Subscribe,
		m.lookup.Subscribe,
		m.borrow.Subscribe,
		m.returns.Subscribe,
		m.pay.Subscribe,
	} {
		m.unsubscribe = append(m.unsubscribe, subscribe(m.observer.Notify))
	}

	return m
}

// Close detaches the model from its stores and stops pending timers
func (m Model) Close() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.lookup.Close()
	m.books.Close()
	m.loans.Close()
	m.fines.Close()
	m.borrow.Close()
	m.returns.Close()
	m.pay.Close()
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		InitSessionCmd(m.session),
		m.observer.Wait(),
		m.Spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case StateChangedMsg:
		m.syncFromStores()
		return m, m.observer.Wait()

	case SessionReadyMsg:
		m.restoring = false
		if msg.Authenticated {
			return m, m.enterScreen(ScreenCatalog)
		}
		m.toLogin()
		return m, nil

	case LoginDoneMsg:
		m.LoginForm.SetSubmitting(false)
		if !msg.Result.Success {
			m.LoginForm.SetError(msg.Result.Error, msg.Result.FieldErrors)
			return m, nil
		}
		m.LoginForm.Reset()
		m.notes.Success("Welcome, " + msg.Result.User.DisplayName())
		return m, m.enterScreen(ScreenCatalog)

	case LogoutDoneMsg:
		m.notes.Info("Signed out")
		return m, nil

	case PageLoadedMsg:
		m.report(msg.Failure)
		return m, nil

	case ActionDoneMsg:
		if msg.Failure != nil {
			// Mutations have no form to carry field errors
			if msg.Failure.Kind == domain.FailureValidation {
				m.notes.Error(msg.Failure.Message)
			} else {
				m.report(msg.Failure)
			}
			return m, nil
		}
		m.notes.Success(msg.Success)
		var cmds []tea.Cmd
		for _, s := range msg.Refresh {
			if m.visited[s] {
				cmds = append(cmds, m.refreshCmd(s))
			}
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// syncFromStores reconciles UI state with the latest store snapshots
func (m *Model) syncFromStores() {
	if !m.restoring && m.Screen != ScreenLogin && !m.session.Snapshot().IsAuthenticated() {
		m.toLogin()
		m.notes.Warning("Your session has ended. Please sign in again.")
		return
	}

	if m.State == StateLookup {
		m.Lookup.SetState(m.lookup.Snapshot())
	}
	m.BookList.Clamp(len(m.books.Snapshot().Items))
	m.LoanList.Clamp(len(m.loans.Snapshot().Items))
	m.FineList.Clamp(len(m.fines.Snapshot().Items))
}

// report surfaces a failure. Unauthorized failures are handled by the
// session store, which sends the user back to sign in.
func (m *Model) report(f *domain.Failure) {
	if f == nil || f.Kind == domain.FailureUnauthorized {
		return
	}
	m.notes.Failure(f)
}

// toLogin shows the sign-in screen and drops per-account UI state
func (m *Model) toLogin() {
	m.Screen = ScreenLogin
	m.State = StateBrowsing
	m.LoginForm.Reset()
	m.Lookup.Hide()
	m.lookup.SetQuery("")
	m.visited = make(map[Screen]bool)
	m.BookList.ResetCursor()
	m.LoanList.ResetCursor()
	m.FineList.ResetCursor()
}

// enterScreen switches tabs and binds the screen's list to the current account
func (m *Model) enterScreen(s Screen) tea.Cmd {
	m.Screen = s
	m.State = StateBrowsing
	m.visited[s] = true

	userID := ""
	if u := m.session.Snapshot().User; u != nil {
		userID = u.ID
	}

	switch s {
	case ScreenCatalog:
		return AttachCmd(m.books, s, "books", m.client.ListBooks, userID)
	case ScreenLoans:
		return AttachCmd(m.loans, s, "loans:"+userID, m.client.ListLoans, userID)
	case ScreenFines:
		return AttachCmd(m.fines, s, "fines:"+userID, m.client.ListFines, userID)
	}
	return nil
}

func (m *Model) updateLayout() {
	contentHeight := max(m.Height-ChromeHeight-MaxVisibleNotifications, 1)

	m.BookList.SetSize(m.Width, contentHeight)
	m.LoanList.SetSize(m.Width, contentHeight)
	m.FineList.SetSize(m.Width, contentHeight)
	m.LoginForm.SetSize(m.Width, m.Height-ChromeHeight)
	m.Lookup.SetSize(m.Width, m.Height-ChromeHeight)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.Screen == ScreenLogin {
		return m.handleLoginKeys(msg)
	}

	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	case StateConfirmLogout:
		return m.handleConfirmLogoutKeys(msg)
	case StateLookup:
		return m.handleLookupKeys(msg)
	}

	return m.handleBrowsingKeys(msg)
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.restoring {
		return m, nil
	}
	var cmd tea.Cmd
	var submitted bool
	m.LoginForm, cmd, submitted = m.LoginForm.Update(msg)
	if submitted {
		m.LoginForm.SetSubmitting(true)
		return m, LoginCmd(m.session, m.LoginForm.Credentials())
	}
	return m, cmd
}

func (m Model) handleConfirmLogoutKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		m.toLogin()
		return m, LogoutCmd(m.session)
	case key.Matches(msg, Keys.Deny):
		m.State = StateBrowsing
	}
	return m, nil
}

func (m Model) handleLookupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var chosen bool
	m.Lookup, cmd, chosen = m.Lookup.Update(msg)

	if chosen {
		book := *m.Lookup.Selected()
		m.closeLookup()
		return m, m.borrowCmd(book)
	}
	if !m.Lookup.IsVisible() {
		m.closeLookup()
		return m, cmd
	}
	if m.Lookup.QueryChanged() {
		m.lookup.SetQuery(m.Lookup.Query())
	}
	return m, cmd
}

func (m *Model) closeLookup() {
	m.Lookup.Hide()
	m.lookup.SetQuery("")
	m.State = StateBrowsing
}

func (m Model) handleBrowsingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil
	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout
		return m, nil
	case key.Matches(msg, Keys.Catalog):
		return m, m.enterScreen(ScreenCatalog)
	case key.Matches(msg, Keys.Loans):
		return m, m.enterScreen(ScreenLoans)
	case key.Matches(msg, Keys.Fines):
		return m, m.enterScreen(ScreenFines)
	case key.Matches(msg, Keys.NextTab):
		return m, m.enterScreen(m.nextTab())
	case key.Matches(msg, Keys.NextPage):
		return m, m.changePageCmd(1)
	case key.Matches(msg, Keys.PrevPage):
		return m, m.changePageCmd(-1)
	case key.Matches(msg, Keys.Refresh):
		return m, m.refreshCmd(m.Screen)
	case key.Matches(msg, Keys.Dismiss):
		if notes := m.notes.Snapshot(); len(notes) > 0 {
			m.notes.Dismiss(notes[len(notes)-1].ID)
		}
		return m, nil
	}

	switch m.Screen {
	case ScreenCatalog:
		return m.handleCatalogKeys(msg)
	case ScreenLoans:
		return m.handleLoansKeys(msg)
	case ScreenFines:
		return m.handleFinesKeys(msg)
	}
	return m, nil
}

func (m Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.books.Snapshot()
	switch {
	case key.Matches(msg, Keys.Lookup):
		m.State = StateLookup
		m.Lookup.Show()
		return m, nil
	case key.Matches(msg, Keys.ToggleAvailable):
		m.availableOnly = !m.availableOnly
		var patch domain.Params
		if m.availableOnly {
			patch = domain.Params{"available": true}
		} else {
			patch = domain.Params{"available": nil}
		}
		m.BookList.ResetCursor()
		books := m.books
		return m, PageCmd(ScreenCatalog, func(ctx context.Context) domain.Result[[]domain.Book] {
			return books.UpdateParams(ctx, patch)
		})
	case key.Matches(msg, Keys.Borrow):
		if c := m.BookList.Cursor(); c < len(st.Items) {
			return m, m.borrowCmd(st.Items[c])
		}
		return m, nil
	}
	m.BookList = m.BookList.Update(msg, len(st.Items))
	return m, nil
}

func (m Model) handleLoansKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.loans.Snapshot()
	if key.Matches(msg, Keys.Return) {
		if !m.session.IsStaff() {
			m.notes.Warning("Only library staff can check books back in")
			return m, nil
		}
		c := m.LoanList.Cursor()
		if c >= len(st.Items) {
			return m, nil
		}
		loan := st.Items[c]
		if loan.Status == domain.LoanReturned {
			m.notes.Info("That loan is already returned")
			return m, nil
		}
		return m, ReturnCmd(m.returns, loan)
	}
	m.LoanList = m.LoanList.Update(msg, len(st.Items))
	return m, nil
}

func (m Model) handleFinesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.fines.Snapshot()
	if key.Matches(msg, Keys.Pay) {
		c := m.FineList.Cursor()
		if c >= len(st.Items) {
			return m, nil
		}
		fine := st.Items[c]
		if fine.Paid {
			m.notes.Info("That fine is already paid")
			return m, nil
		}
		return m, PayCmd(m.pay, fine)
	}
	m.FineList = m.FineList.Update(msg, len(st.Items))
	return m, nil
}

func (m Model) borrowCmd(book domain.Book) tea.Cmd {
	if !book.Available() {
		m.notes.Warning("No copies of " + book.Title + " are available")
		return nil
	}
	return BorrowCmd(m.borrow, book)
}

func (m Model) nextTab() Screen {
	for i, s := range tabs {
		if s == m.Screen {
			return tabs[(i+1)%len(tabs)]
		}
	}
	return tabs[0]
}

func (m *Model) changePageCmd(delta int) tea.Cmd {
	switch m.Screen {
	case ScreenCatalog:
		m.BookList.ResetCursor()
		return changePage(m.books, ScreenCatalog, delta)
	case ScreenLoans:
		m.LoanList.ResetCursor()
		return changePage(m.loans, ScreenLoans, delta)
	case ScreenFines:
		m.FineList.ResetCursor()
		return changePage(m.fines, ScreenFines, delta)
	}
	return nil
}

func changePage[T any](s *paging.Synchronizer[T], screen Screen, delta int) tea.Cmd {
	pag := s.Snapshot().Pagination
	target := pag.Page + delta
	if target < 1 || (pag.PageCount > 0 && target > pag.PageCount) {
		return nil
	}
	return PageCmd(screen, func(ctx context.Context) domain.Result[[]T] {
		return s.ChangePage(ctx, target)
	})
}

func (m Model) refreshCmd(s Screen) tea.Cmd {
	switch s {
	case ScreenCatalog:
		return PageCmd(s, m.books.Refresh)
	case ScreenLoans:
		return PageCmd(s, m.loans.Refresh)
	case ScreenFines:
		return PageCmd(s, m.fines.Refresh)
	}
	return nil
}

// loading reports whether the visible screen is waiting on the server
func (m Model) loading() bool {
	switch m.Screen {
	case ScreenLogin:
		return m.restoring
	case ScreenCatalog:
		return m.books.Snapshot().Loading || m.borrow.Snapshot().Loading
	case ScreenLoans:
		return m.loans.Snapshot().Loading || m.returns.Snapshot().Loading
	case ScreenFines:
		return m.fines.Snapshot().Loading || m.pay.Snapshot().Loading
	}
	return false
}
