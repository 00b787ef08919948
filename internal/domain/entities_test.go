package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsStaff(t *testing.T) {
	assert.False(t, RoleUser.IsStaff())
	assert.True(t, RoleLibrarian.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, Role("").IsStaff())
}

func TestSession_IsAuthenticated(t *testing.T) {
	assert.False(t, Session{}.IsAuthenticated())
	assert.False(t, Session{Token: "t"}.IsAuthenticated())
	assert.False(t, Session{User: &User{ID: "u"}}.IsAuthenticated())
	assert.True(t, Session{User: &User{ID: "u"}, Token: "t"}.IsAuthenticated())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "a@b.com", User{Email: "a@b.com"}.DisplayName())
}

func TestLoan_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)

	assert.True(t, Loan{DueDate: due, Status: LoanActive}.IsOverdue(now))
	assert.False(t, Loan{DueDate: due, Status: LoanReturned}.IsOverdue(now))
	assert.False(t, Loan{DueDate: now.Add(time.Hour), Status: LoanActive}.IsOverdue(now))
}
