package users

import "context"

// UserRepo is the user-store collaborator.
// Create returns errors.ErrDuplicateAccount when the email is taken;
// lookups return errors.ErrUserNotFound when nothing matches.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	Close() error
}
