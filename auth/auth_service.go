// Package auth orchestrates registration, login and session refresh around the user store and the token service.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/token"
	"github.com/connectspace/connectspace-api/users"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const generatedPasswordLength = 24

// dummyPasswordHash is compared against when a login names no account
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, _ := users.HashPassword("connectspace-no-such-account")
	return hash
})

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	UserType        string `json:"userType"`
}

// LoginRequest is the sign-in body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is a verified account asserted by an external OpenID Connect provider
type Identity struct {
	Issuer        string
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

// Session is what a successful sign-in hands back to the client
type Session struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"` // access token lifetime in seconds
	User         *users.User `json:"user"`
}

// Service provides registration, login and token refresh.
type Service struct {
	users     users.UserRepo   // User store
	tokens    *token.Service   // Issues and verifies session tokens
	validator *Validator       // Request validation rules
	nowTime   func() time.Time // nowTime function (injectable for testing)

	checkPassword func(password, hash string) bool // bcrypt comparison (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithPasswordCheck replaces the password comparison (primarily for testing)
func WithPasswordCheck(check func(password, hash string) bool) ServiceOption {
	return func(s *Service) {
		s.checkPassword = check
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repo users.UserRepo, tokens *token.Service, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[auth.NewService] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[auth.NewService] token service is required")
	}

	s := &Service{
		users:     repo,
		tokens:    tokens,
		validator: NewValidator(),
		nowTime:   time.Now,

		checkPassword: users.CheckPasswordHash,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register validates the request, creates the account and signs the user in.
// Validation runs before the user store is consulted.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if err := s.validator.ValidateRegistration(&req); err != nil {
		return nil, err
	}

	email := users.NormalizeEmail(req.Email)
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errors.Wrap(apperrors.ErrDuplicateAccount, "[auth.Register]")
	case !apperrors.Is(err, apperrors.ErrUserNotFound):
		return nil, errors.Wrap(err, "[auth.Register] GetByEmail")
	}

	userType, _ := users.ParseUserType(req.UserType)
	passwordHash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.Register] HashPassword")
	}

	now := s.nowTime().UTC()
	user := &users.User{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: passwordHash,
		UserType:     userType,
		CreatedAt:    now,
		LastLogin:    now,
	}

	// a concurrent registration can still win the race; the store reports it as a duplicate
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[auth.Register] Create")
	}

	log.Info().Str("user_id", user.ID).Str("user_type", string(user.UserType)).Msg("User registered")
	return s.newSession(user)
}

// Login checks the credentials and issues a new session.
// Unknown email, wrong password and blocked accounts all return the same invalid credentials error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := s.validator.ValidateUserCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, users.NormalizeEmail(req.Email))
	if apperrors.Is(err, apperrors.ErrUserNotFound) {
		// an unknown email pays for a bcrypt comparison like a wrong password does
		s.checkPassword(req.Password, dummyPasswordHash())
		return nil, invalidCredentialsErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "[auth.Login] GetByEmail")
	}

	if !s.checkPassword(req.Password, user.PasswordHash) {
		return nil, invalidCredentialsErr
	}
	if user.Blocked {
		log.Warn().Str("user_id", user.ID).Msg("Blocked user attempted to log in")
		return nil, invalidCredentialsErr
	}

	s.recordLogin(ctx, user)
	return s.newSession(user)
}

// Refresh exchanges a refresh token for a new token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.activeUser(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}
	return s.newSession(user)
}

// CurrentUser returns the account a verified token speaks for.
// A token for a deleted or blocked account is treated as invalid.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*users.User, error) {
	return s.activeUser(ctx, userID)
}

// FederatedLogin signs in a user vouched for by an OpenID Connect provider,
// creating a tenant account with an unusable password on first sign-in.
func (s *Service) FederatedLogin(ctx context.Context, id Identity) (*Session, error) {
	email := users.NormalizeEmail(id.Email)
	if email == "" || !id.EmailVerified {
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, "[auth.FederatedLogin] provider did not return a verified email")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if apperrors.Is(err, apperrors.ErrUserNotFound) {
		user, err = s.createFederatedUser(ctx, email, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[auth.FederatedLogin]")
	}

	if user.Blocked {
		log.Warn().Str("user_id", user.ID).Str("issuer", id.Issuer).Msg("Blocked user attempted federated login")
		return nil, invalidCredentialsErr
	}
	// admin accounts sign in with their password only
	if user.IsAdmin() {
		log.Warn().Str("user_id", user.ID).Str("issuer", id.Issuer).Msg("Federated login refused for admin account")
		return nil, invalidCredentialsErr
	}

	s.recordLogin(ctx, user)
	return s.newSession(user)
}

// EnsureAdmin creates an admin account for email when none exists.
// It returns the generated password on creation and an empty string when the account is already there.
func (s *Service) EnsureAdmin(ctx context.Context, email string) (generatedPassword string, err error) {
	email = users.NormalizeEmail(email)
	if err := s.validator.ValidateEmail(email); err != nil {
		return "", err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			return "", errors.Errorf("[auth.EnsureAdmin] %s exists but is a %s account", email, existing.UserType)
		}
		return "", nil
	}
	if !apperrors.Is(err, apperrors.ErrUserNotFound) {
		return "", errors.Wrap(err, "[auth.EnsureAdmin] GetByEmail")
	}

	generatedPassword, err = generatePassword()
	if err != nil {
		return "", err
	}
	passwordHash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return "", errors.Wrap(err, "[auth.EnsureAdmin] HashPassword")
	}

	admin := &users.User{
		ID:           uuid.New().String(),
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        email,
		PasswordHash: passwordHash,
		UserType:     users.UserTypeAdmin,
		Verified:     true,
		CreatedAt:    s.nowTime().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return "", errors.Wrap(err, "[auth.EnsureAdmin] Create")
	}
	return generatedPassword, nil
}

func (s *Service) createFederatedUser(ctx context.Context, email string, id Identity) (*users.User, error) {
	password, err := generatePassword()
	if err != nil {
		return nil, err
	}
	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "HashPassword")
	}

	now := s.nowTime().UTC()
	user := &users.User{
		ID:           uuid.New().String(),
		FirstName:    id.FirstName,
		LastName:     id.LastName,
		Email:        email,
		PasswordHash: passwordHash,
		UserType:     users.UserTypeTenant,
		Verified:     true,
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.Is(err, apperrors.ErrDuplicateAccount) {
			return s.users.GetByEmail(ctx, email)
		}
		return nil, errors.Wrap(err, "Create")
	}
	log.Info().Str("user_id", user.ID).Str("issuer", id.Issuer).Msg("User registered through federated login")
	return user, nil
}

func (s *Service) activeUser(ctx context.Context, userID string) (*users.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if apperrors.Is(err, apperrors.ErrUserNotFound) {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "user no longer exists")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[auth] GetByID")
	}
	if user.Blocked {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "user is blocked")
	}
	return user, nil
}

// recordLogin stamps the last login time. A failed write does not fail the login.
func (s *Service) recordLogin(ctx context.Context, user *users.User) {
	user.LastLogin = s.nowTime().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		log.Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	}
}

func (s *Service) newSession(user *users.User) (*Session, error) {
	payload := token.Payload{UserID: user.ID, Role: user.UserType}

	accessToken, err := s.tokens.IssueAccess(payload)
	if err != nil {
		return nil, errors.Wrap(err, "[auth] IssueAccess")
	}
	refreshToken, err := s.tokens.IssueRefresh(payload)
	if err != nil {
		return nil, errors.Wrap(err, "[auth] IssueRefresh")
	}

	return &Session{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user,
	}, nil
}

func generatePassword() (string, error) {
	b := make([]byte, generatedPasswordLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate password")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
