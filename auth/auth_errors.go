package auth

import (
	apperrors "github.com/connectspace/connectspace-api/internal/errors"
)

var (
	// UserPasswordsDontMatchErr is returned before anything touches the user store
	UserPasswordsDontMatchErr = apperrors.NewValidationError("confirmPassword", "Passwords do not match")

	// invalidCredentialsErr is the single answer for unknown email, wrong password and blocked accounts
	invalidCredentialsErr = apperrors.Wrapf(apperrors.ErrInvalidCredentials, "Invalid email or password")
)
