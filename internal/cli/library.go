package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/paging"
)

// listFlags are shared by the paginated list commands
type listFlags struct {
	page  int
	limit int
}

func (l *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&l.page, "page", "p", 1, "page number")
	cmd.Flags().IntVarP(&l.limit, "limit", "l", 0, "page size (defaults to config)")
}

// listPage is the JSON shape of a list command's output
type listPage[T any] struct {
	Items      []T               `json:"items"`
	Pagination domain.Pagination `json:"pagination"`
}

// fetchPage loads one page through a Synchronizer. A page past the end
// settles on the last page.
func fetchPage[T any](ctx context.Context, app *App, fn paging.Func[T], lf listFlags, params domain.Params) (paging.State[T], *domain.Failure) {
	limit := lf.limit
	if limit <= 0 {
		limit = app.Config.Paging.Limit
	}
	s := paging.New(fn,
		paging.WithLogger(app.Logger),
		paging.WithLimit(limit),
		paging.WithParams(params),
		paging.WithAutoClamp(app.Config.Paging.AutoClamp),
	)
	defer s.Close()

	res := s.ChangePage(ctx, max(lf.page, 1))
	return s.Snapshot(), res.Failure
}

func renderTable(w io.Writer, headers []string, rows [][]string, pag domain.Pagination, noun string) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "No %s\n", noun)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
	if pag.PageCount > 0 {
		fmt.Fprintf(w, "Page %d of %d · %d %s\n", pag.Page, pag.PageCount, pag.Total, noun)
	}
}

// NewBooksCommand creates the books command
func NewBooksCommand(opts *RootOptions) *cobra.Command {
	var lf listFlags
	var query string
	var available bool

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := NewApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer app.Close()

			// The catalog is readable signed out; restore the session so
			// staff see staff fields.
			app.Session.Init(cmd.Context())

			params := domain.Params{"search": query}
			if available {
				params["available"] = true
			}
			st, failure := fetchPage(cmd.Context(), app, app.Client.ListBooks, lf, params)
			if failure != nil {
				return reportFailure(out, failure)
			}

			return out.Success(listPage[domain.Book]{Items: st.Items, Pagination: st.Pagination}, func(w io.Writer) {
				rows := make([][]string, len(st.Items))
				for i, b := range st.Items {
					rows[i] = []string{b.ID, b.Title, b.Author, strconv.Itoa(b.PublishedYear),
						fmt.Sprintf("%d/%d", b.AvailableCopies, b.TotalCopies)}
				}
				renderTable(w, []string{"ID", "Title", "Author", "Year", "Copies"}, rows, st.Pagination, "books")
			})
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by title, author or ISBN")
	cmd.Flags().BoolVarP(&available, "available", "a", false, "only books with a free copy")
	return cmd
}

// NewLoansCommand creates the loans command
func NewLoansCommand(opts *RootOptions) *cobra.Command {
	var lf listFlags
	var status string

	cmd := &cobra.Command{
		Use:   "loans",
		Short: "List loans (your own, or everyone's for staff)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := NewApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.RequireSession(cmd.Context()); err != nil {
				return err
			}

			st, failure := fetchPage(cmd.Context(), app, app.Client.ListLoans, lf, domain.Params{"status": status})
			if failure != nil {
				return reportFailure(out, failure)
			}

			now := time.Now()
			return out.Success(listPage[domain.Loan]{Items: st.Items, Pagination: st.Pagination}, func(w io.Writer) {
				rows := make([][]string, len(st.Items))
				for i, l := range st.Items {
					state := string(l.Status)
					if l.IsOverdue(now) {
						state = string(domain.LoanOverdue)
					}
					rows[i] = []string{l.ID, l.BookTitle, l.LoanDate.Format(time.DateOnly), l.DueDate.Format(time.DateOnly), state}
				}
				renderTable(w, []string{"ID", "Book", "Borrowed", "Due", "Status"}, rows, st.Pagination, "loans")
			})
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active|returned|overdue)")
	return cmd
}

// NewFinesCommand creates the fines command
func NewFinesCommand(opts *RootOptions) *cobra.Command {
	var lf listFlags
	var unpaid bool

	cmd := &cobra.Command{
		Use:   "fines",
		Short: "List fines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := NewApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.RequireSession(cmd.Context()); err != nil {
				return err
			}

			params := domain.Params{}
			if unpaid {
				params["paid"] = false
			}
			st, failure := fetchPage(cmd.Context(), app, app.Client.ListFines, lf, params)
			if failure != nil {
				return reportFailure(out, failure)
			}

			return out.Success(listPage[domain.Fine]{Items: st.Items, Pagination: st.Pagination}, func(w io.Writer) {
				rows := make([][]string, len(st.Items))
				for i, f := range st.Items {
					state := "unpaid"
					if f.Paid {
						state = "paid"
					}
					rows[i] = []string{f.ID, f.Reason, f.IssuedAt.Format(time.DateOnly), f.FormattedAmount(), state}
				}
				renderTable(w, []string{"ID", "Reason", "Issued", "Amount", "Status"}, rows, st.Pagination, "fines")
			})
		},
	}
	lf.register(cmd)
	cmd.Flags().BoolVar(&unpaid, "unpaid", false, "only unpaid fines")
	return cmd
}
