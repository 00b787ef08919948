package domain

import (
	"fmt"
	"slices"
	"time"
)

// Role is the authorization tier of a library account
type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// IsStaff returns true for roles allowed into circulation and admin screens
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// Valid returns true if r is one of the known roles
func (r Role) Valid() bool {
	return slices.Contains([]Role{RoleUser, RoleLibrarian, RoleAdmin}, r)
}

// User is the identity record of the logged-in account
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// DisplayName returns the name shown in headers and greetings
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// Session is the authenticated identity + credential pair.
// User and Token are always both set or both empty.
type Session struct {
	User  *User
	Token string
}

// IsAuthenticated returns true if both halves of the pair are present
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Role returns the session's role, or "" when logged out
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Credentials are submitted by the login form
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ProfilePatch carries the editable profile fields. Empty fields are left unchanged.
type ProfilePatch struct {
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=64"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// AuthResult is the payload of a successful login
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Book is a catalog entry
type Book struct {
	ID              string `json:"id"`
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Publisher       string `json:"publisher,omitempty"`
	PublishedYear   int    `json:"publishedYear,omitempty"`
	Genre           string `json:"genre,omitempty"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
}

// Available returns true if at least one copy can be loaned
func (b Book) Available() bool {
	return b.AvailableCopies > 0
}

// Description returns the secondary line shown under a title
func (b Book) Description() string {
	if b.PublishedYear > 0 {
		return fmt.Sprintf("%s (%d)", b.Author, b.PublishedYear)
	}
	return b.Author
}

// LoanStatus tracks where a loan is in its lifecycle
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
)

// Loan is a book checked out by a member
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"bookId"`
	BookTitle  string     `json:"bookTitle"`
	UserID     string     `json:"userId"`
	LoanDate   time.Time  `json:"loanDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
	Status     LoanStatus `json:"status"`
}

// LoanRequest borrows a book. UserID is only honoured for staff.
type LoanRequest struct {
	BookID string `json:"bookId" validate:"required"`
	UserID string `json:"userId,omitempty"`
}

// IsOverdue reports whether the loan is past due at the given time
func (l Loan) IsOverdue(now time.Time) bool {
	return l.Status != LoanReturned && l.ReturnDate == nil && now.After(l.DueDate)
}

// Fine is a charge raised against an overdue or damaged loan
type Fine struct {
	ID       string    `json:"id"`
	LoanID   string    `json:"loanId"`
	UserID   string    `json:"userId"`
	Amount   float64   `json:"amount"`
	Reason   string    `json:"reason"`
	Paid     bool      `json:"paid"`
	IssuedAt time.Time `json:"issuedAt"`
}

// FormattedAmount returns the amount as a currency string
func (f Fine) FormattedAmount() string {
	return fmt.Sprintf("$%.2f", f.Amount)
}
