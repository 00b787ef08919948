package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/stacks/internal/domain"
	"github.com/mmcdole/stacks/internal/fetch"
	"github.com/mmcdole/stacks/internal/validation"
)

// NewBorrowCommand creates the borrow command
func NewBorrowCommand(opts *RootOptions) *cobra.Command {
	var forUser string

	cmd := &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Check out a book",
		Args:  cobra.ExactArgs(1),
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
			if forUser != "" && !app.Session.IsStaff() {
				return NewExitError(ExitCommandError, "--for is only available to library staff")
			}

			req := domain.LoanRequest{BookID: args[0], UserID: forUser}
			if err := validation.New().Validate(req); err != nil {
				return reportFailure(out, domain.FailureFrom(err))
			}

			unit := fetch.New(app.Client.CreateLoan, fetch.WithLogger[domain.Loan](app.Logger), fetch.WithKey[domain.Loan]("borrow"))
			defer unit.Close()

			res := unit.Execute(cmd.Context(), req)
			if !res.OK() {
				return reportFailure(out, res.Failure)
			}
			loan := res.Data
			return out.Success(loan, func(w io.Writer) {
				fmt.Fprintf(w, "Borrowed %s, due %s (loan %s)\n", titleOr(loan.BookTitle, loan.BookID), loan.DueDate.Format(time.DateOnly), loan.ID)
			})
		},
	}
	cmd.Flags().StringVar(&forUser, "for", "", "borrow on behalf of a member (staff only)")
	return cmd
}

// NewReturnCommand creates the return command
func NewReturnCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Check a loaned book back in (staff only)",
		Args:  cobra.ExactArgs(1),
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
			if !app.Session.HasAnyRole(domain.RoleLibrarian, domain.RoleAdmin) {
				return NewExitError(ExitCommandError, "only library staff can check books back in")
			}

			unit := fetch.New(app.Client.ReturnLoan, fetch.WithLogger[domain.Loan](app.Logger), fetch.WithKey[domain.Loan]("return"))
			defer unit.Close()

			res := unit.Execute(cmd.Context(), args[0])
			if !res.OK() {
				return reportFailure(out, res.Failure)
			}
			loan := res.Data
			return out.Success(loan, func(w io.Writer) {
				fmt.Fprintf(w, "Returned %s\n", titleOr(loan.BookTitle, loan.BookID))
			})
		},
	}
}

// NewPayCommand creates the pay command
func NewPayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <fine-id>",
		Short: "Pay a fine",
		Args:  cobra.ExactArgs(1),
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

			unit := fetch.New(app.Client.PayFine, fetch.WithLogger[domain.Fine](app.Logger), fetch.WithKey[domain.Fine]("pay"))
			defer unit.Close()

			res := unit.Execute(cmd.Context(), args[0])
			if !res.OK() {
				return reportFailure(out, res.Failure)
			}
			fine := res.Data
			return out.Success(fine, func(w io.Writer) {
				fmt.Fprintf(w, "Paid %s\n", fine.FormattedAmount())
			})
		},
	}
}

func titleOr(title, id string) string {
	if title != "" {
		return fmt.Sprintf("%q", title)
	}
	return id
}
