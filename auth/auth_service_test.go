package auth_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/connectspace/connectspace-api/auth"
	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/token"
	"github.com/connectspace/connectspace-api/users"
	fakeuserrepo "github.com/connectspace/connectspace-api/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	secretStr        = "1234"
	refreshSecretStr = "5678"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

// countingRepo records how often the service reaches the user store
type countingRepo struct {
	users.UserRepo
	lookups atomic.Int32
	creates atomic.Int32
}

func (r *countingRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	r.lookups.Add(1)
	return r.UserRepo.GetByEmail(ctx, email)
}

func (r *countingRepo) Create(ctx context.Context, user *users.User) error {
	r.creates.Add(1)
	return r.UserRepo.Create(ctx, user)
}

// testFixture holds all test dependencies
type testFixture struct {
	repo    *countingRepo
	tokens  *token.Service
	service *auth.Service
	now     time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &countingRepo{UserRepo: fakeuserrepo.NewFakeUserRepo()}

	tokens, err := token.New(secretStr,
		token.WithRefreshSecret(refreshSecretStr),
		token.WithNowFunc(func() time.Time { return now }),
	)
	require.NoError(t, err)

	service, err := auth.NewService(repo, tokens, auth.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)

	return &testFixture{repo: repo, tokens: tokens, service: service, now: now}
}

func validRegistration() auth.RegisterRequest {
	return auth.RegisterRequest{
		FirstName:       "John",
		LastName:        "Doe",
		Email:           testUserEmail,
		Phone:           "+44 20 7946 0958",
		Password:        testUserPassword,
		ConfirmPassword: testUserPassword,
		UserType:        "landlord",
	}
}

func (f *testFixture) register(t *testing.T) *auth.Session {
	t.Helper()
	session, err := f.service.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	return session
}

func TestNewService_RequiresDependencies(t *testing.T) {
	tokens, err := token.New(secretStr)
	require.NoError(t, err)

	_, err = auth.NewService(nil, tokens)
	require.Error(t, err)

	_, err = auth.NewService(fakeuserrepo.NewFakeUserRepo(), nil)
	require.Error(t, err)
}

func TestRegister_Success(t *testing.T) {
	f := setupTestFixture(t)

	req := validRegistration()
	req.Email = "  John.Doe@Example.com "
	session, err := f.service.Register(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, session.Token)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, int64((7 * 24 * time.Hour).Seconds()), session.ExpiresIn)

	require.Equal(t, testUserEmail, session.User.Email)
	require.Equal(t, users.UserTypeLandlord, session.User.UserType)
	require.Equal(t, f.now, session.User.CreatedAt)
	require.NotEqual(t, testUserPassword, session.User.PasswordHash)
	require.True(t, session.User.CheckPassword(testUserPassword))

	payload, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, token.Payload{UserID: session.User.ID, Role: users.UserTypeLandlord}, payload)

	payload, err = f.tokens.VerifyRefresh(session.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, payload.UserID)
}

func TestRegister_DefaultsToTenant(t *testing.T) {
	f := setupTestFixture(t)

	req := validRegistration()
	req.UserType = ""
	req.ConfirmPassword = ""
	session, err := f.service.Register(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, users.UserTypeTenant, session.User.UserType)
}

func TestRegister_MismatchedConfirmationNeverReachesStore(t *testing.T) {
	f := setupTestFixture(t)

	req := validRegistration()
	req.ConfirmPassword = "Password124"
	_, err := f.service.Register(context.Background(), req)

	require.ErrorIs(t, err, apperrors.ErrValidation)
	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, "confirmPassword", vErr.Field)

	require.Zero(t, f.repo.lookups.Load())
	require.Zero(t, f.repo.creates.Load())
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.RegisterRequest)
		field  string
	}{
		{name: "missing first name", mutate: func(r *auth.RegisterRequest) { r.FirstName = " " }, field: "firstName"},
		{name: "missing last name", mutate: func(r *auth.RegisterRequest) { r.LastName = "" }, field: "lastName"},
		{name: "missing email", mutate: func(r *auth.RegisterRequest) { r.Email = "" }, field: "email"},
		{name: "missing password", mutate: func(r *auth.RegisterRequest) { r.Password = ""; r.ConfirmPassword = "" }, field: "password"},
		{name: "bad email", mutate: func(r *auth.RegisterRequest) { r.Email = "john.doe" }, field: "email"},
		{name: "email without domain dot", mutate: func(r *auth.RegisterRequest) { r.Email = "john@localhost" }, field: "email"},
		{name: "weak password", mutate: func(r *auth.RegisterRequest) { r.Password = "password"; r.ConfirmPassword = "password" }, field: "password"},
		{name: "password longer than bcrypt accepts", mutate: func(r *auth.RegisterRequest) {
			r.Password = testUserPassword + strings.Repeat("x", users.MaxPasswordBytes)
			r.ConfirmPassword = r.Password
		}, field: "password"},
		{name: "admin self sign-up", mutate: func(r *auth.RegisterRequest) { r.UserType = "admin" }, field: "userType"},
		{name: "unknown user type", mutate: func(r *auth.RegisterRequest) { r.UserType = "investor" }, field: "userType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			req := validRegistration()
			tt.mutate(&req)

			_, err := f.service.Register(context.Background(), req)
			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, tt.field, vErr.Field)
			require.Zero(t, f.repo.creates.Load())
		})
	}
}

func TestRegister_DuplicateAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	req := validRegistration()
	req.Email = "JOHN.DOE@example.com"
	_, err := f.service.Register(context.Background(), req)
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)
	require.Equal(t, int32(1), f.repo.creates.Load())
}

func TestLogin_Success(t *testing.T) {
	f := setupTestFixture(t)
	registered := f.register(t)

	session, err := f.service.Login(context.Background(), auth.LoginRequest{Email: "John.Doe@example.com", Password: testUserPassword})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, session.User.ID)
	require.Equal(t, f.now, session.User.LastLogin)

	payload, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, payload.UserID)
}

func TestLogin_InvalidPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testUserEmail, Password: "Password124"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.NotErrorIs(t, err, apperrors.ErrValidation)
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	_, unknownErr := f.service.Login(context.Background(), auth.LoginRequest{Email: "nobody@example.com", Password: testUserPassword})
	_, wrongErr := f.service.Login(context.Background(), auth.LoginRequest{Email: testUserEmail, Password: "nope"})

	require.ErrorIs(t, unknownErr, apperrors.ErrInvalidCredentials)
	require.Equal(t, wrongErr.Error(), unknownErr.Error())
}

func TestLogin_UnknownEmailStillComparesPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	var hashes []string
	service, err := auth.NewService(f.repo, f.tokens, auth.WithPasswordCheck(func(password, hash string) bool {
		hashes = append(hashes, hash)
		return users.CheckPasswordHash(password, hash)
	}))
	require.NoError(t, err)

	_, err = service.Login(context.Background(), auth.LoginRequest{Email: "nobody@example.com", Password: testUserPassword})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	require.True(t, strings.HasPrefix(hashes[0], "$2"), hashes[0])

	_, err = service.Login(context.Background(), auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	require.NotEqual(t, hashes[0], hashes[1])
}

func TestLogin_BlockedUser(t *testing.T) {
	f := setupTestFixture(t)
	session := f.register(t)

	user := *session.User
	user.Blocked = true
	require.NoError(t, f.repo.Update(context.Background(), &user))

	_, err := f.service.Login(context.Background(), auth.LoginRequest{Email: testUserEmail, Password: testUserPassword})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_MissingFields(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), auth.LoginRequest{Password: testUserPassword})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.Login(context.Background(), auth.LoginRequest{Email: testUserEmail})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Zero(t, f.repo.lookups.Load())
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t)
	registered := f.register(t)

	session, err := f.service.Refresh(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, session.User.ID)

	_, err = f.tokens.Verify(session.Token)
	require.NoError(t, err)

	// an access token is not a refresh token
	_, err = f.service.Refresh(context.Background(), registered.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = f.service.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefresh_UnknownUser(t *testing.T) {
	f := setupTestFixture(t)

	refresh, err := f.tokens.IssueRefresh(token.Payload{UserID: "ghost", Role: users.UserTypeTenant})
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), refresh)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestCurrentUser(t *testing.T) {
	f := setupTestFixture(t)
	registered := f.register(t)

	user, err := f.service.CurrentUser(context.Background(), registered.User.ID)
	require.NoError(t, err)
	require.Equal(t, testUserEmail, user.Email)

	_, err = f.service.CurrentUser(context.Background(), "ghost")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestFederatedLogin(t *testing.T) {
	f := setupTestFixture(t)
	id := auth.Identity{
		Issuer:        "https://accounts.example.com",
		Subject:       "248289761001",
		Email:         "Jane.Roe@Example.com",
		EmailVerified: true,
		FirstName:     "Jane",
		LastName:      "Roe",
	}

	first, err := f.service.FederatedLogin(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "jane.roe@example.com", first.User.Email)
	require.Equal(t, users.UserTypeTenant, first.User.UserType)
	require.True(t, first.User.Verified)

	second, err := f.service.FederatedLogin(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
	require.Equal(t, int32(1), f.repo.creates.Load())

	id.EmailVerified = false
	_, err = f.service.FederatedLogin(context.Background(), id)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestFederatedLogin_ExistingPasswordAccount(t *testing.T) {
	f := setupTestFixture(t)
	registered := f.register(t)

	session, err := f.service.FederatedLogin(context.Background(), auth.Identity{Email: testUserEmail, EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, session.User.ID)
	require.Equal(t, users.UserTypeLandlord, session.User.UserType)
}

func TestFederatedLogin_RefusesAdminAccount(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.EnsureAdmin(context.Background(), "admin@connectspace.example")
	require.NoError(t, err)

	_, err = f.service.FederatedLogin(context.Background(), auth.Identity{
		Issuer:        "https://accounts.example.com",
		Subject:       "1",
		Email:         "Admin@ConnectSpace.example",
		EmailVerified: true,
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestEnsureAdmin(t *testing.T) {
	f := setupTestFixture(t)

	password, err := f.service.EnsureAdmin(context.Background(), "Admin@ConnectSpace.example")
	require.NoError(t, err)
	require.NotEmpty(t, password)

	session, err := f.service.Login(context.Background(), auth.LoginRequest{Email: "admin@connectspace.example", Password: password})
	require.NoError(t, err)
	require.Equal(t, users.UserTypeAdmin, session.User.UserType)

	again, err := f.service.EnsureAdmin(context.Background(), "admin@connectspace.example")
	require.NoError(t, err)
	require.Empty(t, again)

	f.register(t)
	_, err = f.service.EnsureAdmin(context.Background(), testUserEmail)
	require.Error(t, err)
}
