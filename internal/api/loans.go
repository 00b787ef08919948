package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/stacks/internal/domain"
)

// ListLoans returns one page of loans visible to the caller
func (c *Client) ListLoans(ctx context.Context, params domain.Params) (domain.Envelope[[]domain.Loan], error) {
	return do[[]domain.Loan](ctx, c, http.MethodGet, "/loans", params.Query(), nil, requestOpts{})
}

// CreateLoan checks a book out
func (c *Client) CreateLoan(ctx context.Context, req domain.LoanRequest) (domain.Envelope[domain.Loan], error) {
	return do[domain.Loan](ctx, c, http.MethodPost, "/loans", nil, req, requestOpts{})
}

// ReturnLoan checks a book back in
func (c *Client) ReturnLoan(ctx context.Context, loanID string) (domain.Envelope[domain.Loan], error) {
	return do[domain.Loan](ctx, c, http.MethodPut, "/loans/"+url.PathEscape(loanID)+"/return", nil, nil, requestOpts{})
}
