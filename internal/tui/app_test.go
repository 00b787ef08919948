package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/stacks/internal/clock"
	"github.com/mmcdole/stacks/internal/config"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/log"
	"github.com/mmcdole/stacks/internal/notify"
	"github.com/mmcdole/stacks/internal/session"
	"github.com/mmcdole/stacks/internal/store"
)

type fakeAccounts struct {
	user domain.User
}

func (f *fakeAccounts) Login(context.Context, domain.Credentials) (domain.Envelope[domain.AuthResult], error) {
	return domain.Envelope[domain.AuthResult]{
		Success: true,
		Data:    domain.AuthResult{Token: "tok-1", User: f.user},
	}, nil
}

func (f *fakeAccounts) Logout(context.Context) error { return nil }

func (f *fakeAccounts) Me(context.Context) (domain.Envelope[domain.User], error) {
	return domain.Envelope[domain.User]{Success: true, Data: f.user}, nil
}

func (f *fakeAccounts) UpdateProfile(context.Context, domain.ProfilePatch) (domain.Envelope[domain.User], error) {
	return domain.Envelope[domain.User]{Success: true, Data: f.user}, nil
}

// fakeLibrary serves a fixed catalog of books
type fakeLibrary struct {
	mu        sync.Mutex
	books     []domain.Book
	bookCalls []domain.Params
	loanErr   *domain.APIError
}

func (f *fakeLibrary) ListBooks(_ context.Context, p domain.Params) (domain.Envelope[[]domain.Book], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls = append(f.bookCalls, p.Clone())

	page, limit := p.Page(), p.Limit()
	start := min((page-1)*limit, len(f.books))
	end := min(start+limit, len(f.books))
	return domain.Envelope[[]domain.Book]{
		Success: true,
		Data:    f.books[start:end],
		Pagination: &domain.Pagination{
			Page:      page,
			Limit:     limit,
			Total:     len(f.books),
			PageCount: (len(f.books) + limit - 1) / limit,
		},
	}, nil
}

func (f *fakeLibrary) SearchBooks(context.Context, string) (domain.Envelope[[]domain.Book], error) {
	return domain.Envelope[[]domain.Book]{Success: true, Data: f.books}, nil
}

func (f *fakeLibrary) ListLoans(context.Context, domain.Params) (domain.Envelope[[]domain.Loan], error) {
	return domain.Envelope[[]domain.Loan]{Success: true, Data: []domain.Loan{
		{ID: "l1", BookID: "b1", BookTitle: "The Hobbit", Status: domain.LoanActive},
	}}, nil
}

func (f *fakeLibrary) CreateLoan(_ context.Context, req domain.LoanRequest) (domain.Envelope[domain.Loan], error) {
	if f.loanErr != nil {
		return domain.Envelope[domain.Loan]{}, f.loanErr
	}
	return domain.Envelope[domain.Loan]{Success: true, Data: domain.Loan{ID: "l2", BookID: req.BookID}}, nil
}

func (f *fakeLibrary) ReturnLoan(_ context.Context, id string) (domain.Envelope[domain.Loan], error) {
	return domain.Envelope[domain.Loan]{Success: true, Data: domain.Loan{ID: id, Status: domain.LoanReturned}}, nil
}

func (f *fakeLibrary) ListFines(context.Context, domain.Params) (domain.Envelope[[]domain.Fine], error) {
	return domain.Envelope[[]domain.Fine]{Success: true, Data: []domain.Fine{}}, nil
}

func (f *fakeLibrary) PayFine(_ context.Context, id string) (domain.Envelope[domain.Fine], error) {
	return domain.Envelope[domain.Fine]{Success: true, Data: domain.Fine{ID: id, Paid: true}}, nil
}

func (f *fakeLibrary) bookCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookCalls)
}

func (f *fakeLibrary) lastBookParams() domain.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookCalls[len(f.bookCalls)-1]
}

type harness struct {
	model   Model
	session *session.Store
	notes   *notify.Queue
	library *fakeLibrary
}

func newHarness(t *testing.T, role domain.Role) *harness {
	t.Helper()

	kv, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	logger := log.NullLogger()
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	accounts := &fakeAccounts{user: domain.User{ID: "u1", Email: "ada@example.com", FirstName: "Ada", Role: role}}
	sess := session.New(accounts, kv, logger)
	notes := notify.New(notify.Config{Clock: clk, Logger: logger})

	lib := &fakeLibrary{}
	for i := range 25 {
		lib.books = append(lib.books, domain.Book{
			ID:              string(rune('a' + i)),
			Title:           "Book " + string(rune('A'+i)),
			TotalCopies:     1,
			AvailableCopies: i % 2,
		})
	}

	m := NewModel(Deps{
		Session: sess,
		Notify:  notes,
		Client:  lib,
		Config:  config.DefaultConfig(),
		Clock:   clk,
		Logger:  logger,
	})
	t.Cleanup(m.Close)

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return &harness{model: m, session: sess, notes: notes, library: lib}
}

// update applies msg and returns the new model, discarding the command
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// run applies msg and feeds every message produced by the resulting
// command back through Update, one level deep.
func run(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range drain(cmd) {
		m = update(t, m, out)
	}
	return m
}

// drain executes cmd, flattening batches
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	h.model = update(t, h.model, SessionReadyMsg{Authenticated: false})

	msg := LoginCmd(h.session, domain.Credentials{Email: "ada@example.com", Password: "secret123"})()
	h.model = run(t, h.model, msg)
}

func TestModel_UnauthenticatedStartsAtLogin(t *testing.T) {
	h := newHarness(t, domain.RoleUser)

	msg := InitSessionCmd(h.session)()
	assert.Equal(t, SessionReadyMsg{Authenticated: false}, msg)

	m := update(t, h.model, msg)
	assert.Equal(t, ScreenLogin, m.Screen)
	assert.False(t, m.restoring)
	assert.Contains(t, m.View(), "Sign in to the library")
}

func TestModel_LoginOpensCatalog(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	m := h.model
	assert.Equal(t, ScreenCatalog, m.Screen)
	st := m.books.Snapshot()
	assert.Len(t, st.Items, 10)
	assert.Equal(t, 3, st.Pagination.PageCount)
	assert.Contains(t, m.View(), "Book A")

	notes := h.notes.Snapshot()
	require.NotEmpty(t, notes)
	assert.Equal(t, "Welcome, Ada", notes[0].Message)
}

func TestModel_FailedLoginStaysOnForm(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.model = update(t, h.model, SessionReadyMsg{Authenticated: false})

	msg := LoginCmd(h.session, domain.Credentials{Email: "not-an-email", Password: "x"})()
	m := update(t, h.model, msg)

	assert.Equal(t, ScreenLogin, m.Screen)
	assert.False(t, h.session.Snapshot().IsAuthenticated())
}

func TestModel_Paging(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	_, cmd := h.model.Update(keyPress("p"))
	assert.Nil(t, cmd, "no page before the first")

	m := run(t, h.model, keyPress("n"))
	assert.Equal(t, 2, m.books.Snapshot().Pagination.Page)
	assert.Equal(t, 2, h.library.lastBookParams().Page())

	m = run(t, m, keyPress("n"))
	assert.Equal(t, 3, m.books.Snapshot().Pagination.Page)
	assert.Len(t, m.books.Snapshot().Items, 5)

	_, cmd = m.Update(keyPress("n"))
	assert.Nil(t, cmd, "no page after the last")
}

func TestModel_ToggleAvailableResetsToFirstPage(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	m := run(t, h.model, keyPress("n"))
	m = run(t, m, keyPress("a"))

	params := h.library.lastBookParams()
	assert.Equal(t, 1, params.Page())
	assert.Equal(t, true, params["available"])
	assert.True(t, m.availableOnly)

	m = run(t, m, keyPress("a"))
	assert.Nil(t, h.library.lastBookParams()["available"])
	assert.False(t, m.availableOnly)
}

func TestModel_SessionLossReturnsToLogin(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)
	require.Equal(t, ScreenCatalog, h.model.Screen)

	h.session.HandleUnauthorized()
	m := update(t, h.model, StateChangedMsg{})

	assert.Equal(t, ScreenLogin, m.Screen)
	notes := h.notes.Snapshot()
	require.NotEmpty(t, notes)
	assert.Equal(t, notify.KindWarning, notes[len(notes)-1].Kind)
}

func TestModel_LogoutRequiresConfirmation(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	m := update(t, h.model, keyPress("L"))
	assert.Equal(t, StateConfirmLogout, m.State)

	m = update(t, m, keyPress("n"))
	assert.Equal(t, StateBrowsing, m.State)
	assert.True(t, h.session.Snapshot().IsAuthenticated())

	m = update(t, m, keyPress("L"))
	m = run(t, m, keyPress("y"))
	assert.Equal(t, ScreenLogin, m.Screen)
	assert.False(t, h.session.Snapshot().IsAuthenticated())
}

func TestModel_BorrowUnavailableBookWarns(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	// Book A has no free copies
	_, cmd := h.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	notes := h.notes.Snapshot()
	assert.Equal(t, notify.KindWarning, notes[len(notes)-1].Kind)
}

func TestModel_BorrowSuccessRefreshesCatalog(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	m := update(t, h.model, keyPress("j"))
	before := h.library.bookCallCount()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run(t, next.(Model), cmd())

	notes := h.notes.Snapshot()
	assert.Equal(t, notify.KindSuccess, notes[len(notes)-1].Kind)
	assert.Contains(t, notes[len(notes)-1].Message, "Book B")
	assert.Greater(t, h.library.bookCallCount(), before)
}

func TestModel_BorrowRejectedShowsError(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.library.loanErr = &domain.APIError{Status: 409, Message: "Loan limit reached"}
	h.signIn(t)

	m := update(t, h.model, keyPress("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	update(t, m, cmd())

	notes := h.notes.Snapshot()
	assert.Equal(t, notify.KindError, notes[len(notes)-1].Kind)
	assert.Equal(t, "Loan limit reached", notes[len(notes)-1].Message)
}

func TestModel_ReturnRequiresStaff(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	m := run(t, h.model, keyPress("2"))
	require.Equal(t, ScreenLoans, m.Screen)
	require.Len(t, m.loans.Snapshot().Items, 1)

	_, cmd := m.Update(keyPress("x"))
	assert.Nil(t, cmd)
	notes := h.notes.Snapshot()
	assert.Equal(t, notify.KindWarning, notes[len(notes)-1].Kind)
}

func TestModel_StaffCanReturn(t *testing.T) {
	h := newHarness(t, domain.RoleLibrarian)
	h.signIn(t)

	m := run(t, h.model, keyPress("2"))
	_, cmd := m.Update(keyPress("x"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(ActionDoneMsg)
	require.True(t, ok)
	assert.Nil(t, msg.Failure)
	assert.Equal(t, `Returned "The Hobbit"`, msg.Success)
}

func TestModel_NextTabCycles(t *testing.T) {
	h := newHarness(t, domain.RoleUser)
	h.signIn(t)

	m := h.model
	for _, want := range []Screen{ScreenLoans, ScreenFines, ScreenCatalog} {
		m = run(t, m, tea.KeyMsg{Type: tea.KeyTab})
		assert.Equal(t, want, m.Screen)
	}
}
