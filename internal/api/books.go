package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/stacks/internal/domain"
)

// ListBooks returns one page of the catalog. params carries page, limit
// and filters such as search, genre or available.
func (c *Client) ListBooks(ctx context.Context, params domain.Params) (domain.Envelope[[]domain.Book], error) {
	return do[[]domain.Book](ctx, c, http.MethodGet, "/books", params.Query(), nil, requestOpts{})
}

// SearchBooks is a free-text lookup returning the first page of matches
func (c *Client) SearchBooks(ctx context.Context, query string) (domain.Envelope[[]domain.Book], error) {
	params := domain.Params{"search": query, domain.ParamPage: 1, domain.ParamLimit: 20}
	return do[[]domain.Book](ctx, c, http.MethodGet, "/books", params.Query(), nil, requestOpts{})
}
