package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/fetch"
	"github.com/mmcdole/stacks/internal/paging"
	"github.com/mmcdole/stacks/internal/session"
)

// Command factories for async operations

const requestTimeout = 30 * time.Second

// InitSessionCmd restores and verifies the persisted session
func InitSessionCmd(s *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		s.Init(ctx)
		return SessionReadyMsg{Authenticated: s.Snapshot().IsAuthenticated()}
	}
}

// LoginCmd submits credentials
func LoginCmd(s *session.Store, creds domain.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return LoginDoneMsg{Result: s.Login(ctx, creds)}
	}
}

// LogoutCmd ends the session
func LogoutCmd(s *session.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		s.Logout(ctx)
		return LogoutDoneMsg{}
	}
}

// PageCmd runs a page operation (fetch, page change, refresh) for screen
func PageCmd[T any](screen Screen, op func(ctx context.Context) domain.Result[[]T]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res := op(ctx)
		return PageLoadedMsg{Screen: screen, Failure: res.Failure}
	}
}

// BorrowCmd creates a loan for book
func BorrowCmd(unit *fetch.Unit[domain.LoanRequest, domain.Loan], book domain.Book) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res := unit.Execute(ctx, domain.LoanRequest{BookID: book.ID})
		if !res.OK() {
			return ActionDoneMsg{Failure: res.Failure}
		}
		return ActionDoneMsg{
			Success: fmt.Sprintf("Borrowed %q, due %s", book.Title, res.Data.DueDate.Format("Jan 2")),
			Refresh: []Screen{ScreenCatalog, ScreenLoans},
		}
	}
}

// ReturnCmd checks a loan back in
func ReturnCmd(unit *fetch.Unit[string, domain.Loan], loan domain.Loan) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res := unit.Execute(ctx, loan.ID)
		if !res.OK() {
			return ActionDoneMsg{Failure: res.Failure}
		}
		return ActionDoneMsg{
			Success: fmt.Sprintf("Returned %q", loan.BookTitle),
			Refresh: []Screen{ScreenLoans, ScreenCatalog, ScreenFines},
		}
	}
}

// PayCmd settles a fine
func PayCmd(unit *fetch.Unit[string, domain.Fine], fine domain.Fine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res := unit.Execute(ctx, fine.ID)
		if !res.OK() {
			return ActionDoneMsg{Failure: res.Failure}
		}
		return ActionDoneMsg{
			Success: fmt.Sprintf("Paid %s", fine.FormattedAmount()),
			Refresh: []Screen{ScreenFines},
		}
	}
}

// AttachCmd binds a screen's synchronizer to the signed-in account. It
// fetches only when the account or endpoint changed since the last visit.
func AttachCmd[T any](s *paging.Synchronizer[T], screen Screen, key string, fn paging.Func[T], deps ...any) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, fetched := s.Attach(ctx, key, fn, deps...)
		if !fetched {
			return nil
		}
		return PageLoadedMsg{Screen: screen, Failure: res.Failure}
	}
}
