package domain

import "context"

// KV is the synchronous key/value persistence used by the session store.
// Get returns ("", false) for a missing key.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// TokenSource supplies the bearer credential attached to outgoing requests
type TokenSource interface {
	Token() string
}

// Authenticator logs an account in and out of the library service
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (Envelope[AuthResult], error)
	Logout(ctx context.Context) error
}

// Verifier re-validates a persisted credential on startup
type Verifier interface {
	Me(ctx context.Context) (Envelope[User], error)
}

// ProfileUpdater persists profile edits
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, patch ProfilePatch) (Envelope[User], error)
}

// AccountClient is everything the session store needs from the server
type AccountClient interface {
	Authenticator
	Verifier
	ProfileUpdater
}

// LibraryClient is the catalog and circulation surface used by the screens
type LibraryClient interface {
	ListBooks(ctx context.Context, params Params) (Envelope[[]Book], error)
	SearchBooks(ctx context.Context, query string) (Envelope[[]Book], error)
	ListLoans(ctx context.Context, params Params) (Envelope[[]Loan], error)
	CreateLoan(ctx context.Context, req LoanRequest) (Envelope[Loan], error)
	ReturnLoan(ctx context.Context, loanID string) (Envelope[Loan], error)
	ListFines(ctx context.Context, params Params) (Envelope[[]Fine], error)
	PayFine(ctx context.Context, fineID string) (Envelope[Fine], error)
}
