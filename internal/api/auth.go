package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/stacks/internal/domain"
)

// Login exchanges credentials for a token. A 401 here means bad
// credentials, not an expired session, so the hook is not fired.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.Envelope[domain.AuthResult], error) {
	return do[domain.AuthResult](ctx, c, http.MethodPost, "/auth/login", nil, creds, requestOpts{public: true})
}

// Logout invalidates the token on the server
func (c *Client) Logout(ctx context.Context) error {
	env, err := do[struct{}](ctx, c, http.MethodPost, "/auth/logout", nil, nil, requestOpts{public: true})
	if err != nil {
		return err
	}
	if !env.Success {
		return &domain.APIError{Status: http.StatusOK, Message: env.Message}
	}
	return nil
}

// Me returns the account behind the current token
func (c *Client) Me(ctx context.Context) (domain.Envelope[domain.User], error) {
	return do[domain.User](ctx, c, http.MethodGet, "/auth/me", nil, nil, requestOpts{})
}

// UpdateProfile saves profile edits and returns the updated account
func (c *Client) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (domain.Envelope[domain.User], error) {
	return do[domain.User](ctx, c, http.MethodPut, "/auth/profile", nil, patch, requestOpts{})
}

var (
	_ domain.AccountClient = (*Client)(nil)
	_ domain.LibraryClient = (*Client)(nil)
)
