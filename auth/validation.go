package auth

import (
	"net/mail"
	"strings"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/users"
)

// Validator holds the request validation rules for registration and login.
// Every failure is an *errors.ValidationError naming the offending field.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRegistration checks a sign-up request in field order and returns the first problem
func (v *Validator) ValidateRegistration(req *RegisterRequest) error {
	required := []struct {
		field string
		value string
	}{
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"email", req.Email},
		{"password", req.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperrors.NewValidationError(r.field, r.field+" is required")
		}
	}

	if err := v.ValidateEmail(req.Email); err != nil {
		return err
	}

	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return apperrors.NewValidationError("password", err.Error())
	}

	// confirmation is optional, but when sent it has to match
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return UserPasswordsDontMatchErr
	}

	if _, err := users.ParseUserType(req.UserType); err != nil {
		return apperrors.NewValidationError("userType", err.Error())
	}

	return nil
}

// ValidateUserCredentials validates login credentials. It never looks at whether they are correct.
func (v *Validator) ValidateUserCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.NewValidationError("email", "email is required")
	}
	if password == "" {
		return apperrors.NewValidationError("password", "password is required")
	}
	return nil
}

// ValidateEmail performs basic email format validation
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return apperrors.NewValidationError("email", "invalid email format")
	}
	return nil
}
