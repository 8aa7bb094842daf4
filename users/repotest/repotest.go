// Package repotest holds the behaviour every users.UserRepo must share.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/users"
	"github.com/stretchr/testify/require"
)

// Run exercises repo implementations. newRepo must return an empty store.
func Run(t *testing.T, newRepo func(t *testing.T) users.UserRepo) {
	t.Helper()
	ctx := context.Background()
	created := time.UnixMilli(time.Now().UnixMilli()).UTC()

	newUser := func(email string) *users.User {
		return &users.User{
			FirstName:    "Ada",
			LastName:     "Okafor",
			Email:        email,
			Phone:        "+2348012345678",
			PasswordHash: "$2a$10$hash",
			UserType:     users.UserTypeLandlord,
			CreatedAt:    created,
		}
	}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("Ada@Example.com")
		require.NoError(t, repo.Create(ctx, u))
		require.NotEmpty(t, u.ID)

		byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
		require.Equal(t, "ada@example.com", byEmail.Email)
		require.Equal(t, users.UserTypeLandlord, byEmail.UserType)
		require.Equal(t, "$2a$10$hash", byEmail.PasswordHash)
		require.True(t, created.Equal(byEmail.CreatedAt))

		byID, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, byEmail.Email, byID.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser("dup@example.com")))
		err := repo.Create(ctx, newUser("DUP@example.com"))
		require.ErrorIs(t, err, errors.ErrDuplicateAccount)
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("update", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("update@example.com")
		require.NoError(t, repo.Create(ctx, u))

		login := created.Add(time.Hour)
		u.LastLogin = login
		u.Verified = true
		require.NoError(t, repo.Update(ctx, u))

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.Verified)
		require.True(t, login.Equal(got.LastLogin))

		missing := newUser("ghost@example.com")
		missing.ID = "ghost"
		require.ErrorIs(t, repo.Update(ctx, missing), errors.ErrUserNotFound)
	})

	t.Run("list", func(t *testing.T) {
		repo := newRepo(t)
		for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			u := newUser(email)
			u.CreatedAt = created.Add(time.Duration(i) * time.Minute)
			require.NoError(t, repo.Create(ctx, u))
		}

		all, err := repo.List(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "a@example.com", all[0].Email)

		page, err := repo.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		require.Equal(t, "b@example.com", page[0].Email)

		empty, err := repo.List(ctx, 5, 10)
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}
