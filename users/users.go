package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// UserType is the marketplace role a user signed up as
type UserType string

const (
	UserTypeTenant   UserType = "tenant"   // Looks for properties and sends inquiries
	UserTypeLandlord UserType = "landlord" // Lists and manages own properties
	UserTypeAgent    UserType = "agent"    // Manages listings on behalf of landlords
	UserTypeAdmin    UserType = "admin"    // Platform administration, never self-registered
)

// ParseUserType returns the user type for a sign-up value. Admin cannot be self-selected.
func ParseUserType(value string) (UserType, error) {
	switch t := UserType(strings.ToLower(strings.TrimSpace(value))); t {
	case "":
		return UserTypeTenant, nil
	case UserTypeTenant, UserTypeLandlord, UserTypeAgent:
		return t, nil
	default:
		return "", fmt.Errorf("user type must be one of tenant, landlord or agent")
	}
}

type User struct {
	ID           string    `json:"id" bson:"_id"`                                   // Unique identifier for the user
	FirstName    string    `json:"firstName" bson:"first_name"`                     // First name of the user
	LastName     string    `json:"lastName" bson:"last_name"`                       // Last name of the user
	Email        string    `json:"email" bson:"email"`                              // Lower-cased email address, unique
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`          // Contact number
	PasswordHash string    `json:"-" bson:"password_hash"`                          // Hashed version of the user's password - never serialize
	UserType     UserType  `json:"userType" bson:"user_type"`                       // Marketplace role
	Verified     bool      `json:"isVerified" bson:"verified"`                      // Verified, has the user verified who they are
	Blocked      bool      `json:"-" bson:"blocked"`                                // Blocked, has the user been blocked from logging in
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`                     // Date and time when the user registered
	LastLogin    time.Time `json:"lastLogin,omitzero" bson:"last_login,omitempty"` // Last time the user logged in
}

// FullName joins first and last names
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// NormalizeEmail is the canonical form used for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - At most MaxPasswordBytes bytes long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", MaxPasswordBytes)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
