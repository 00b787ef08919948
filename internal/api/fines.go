package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmcdole/stacks/internal/domain"
)

// ListFines returns one page of fines
func (c *Client) ListFines(ctx context.Context, params domain.Params) (domain.Envelope[[]domain.Fine], error) {
	return do[[]domain.Fine](ctx, c, http.MethodGet, "/fines", params.Query(), nil, requestOpts{})
}

// PayFine marks a fine as paid
func (c *Client) PayFine(ctx context.Context, fineID string) (domain.Envelope[domain.Fine], error) {
	return do[domain.Fine](ctx, c, http.MethodPut, "/fines/"+url.PathEscape(fineID)+"/pay", nil, nil, requestOpts{})
}
