package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreateHashesPassword(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	user, err := svc.Create(ctx, "dev@example.com", "Dev", "hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
}

func TestUserAuthenticate_WrongPassword(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	require.NoError(t, err)

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "user-1"
		*(dest[1].(*string)) = "dev@example.com"
		*(dest[2].(*string)) = "Dev"
		*(dest[3].(*string)) = string(hash)
		*(dest[4].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	_, err = svc.Authenticate(ctx, "dev@example.com", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewUserService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row).Once()

	_, err := svc.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
