package token

import (
	"time"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultAccessTokenExpiry  = 7 * 24 * time.Hour
	DefaultRefreshTokenExpiry = 30 * 24 * time.Hour
	defaultIssuer             = "connectspace"
)

// Service issues and verifies stateless session tokens.
// Nothing is persisted: a token is valid exactly when its signature, kind and expiry check out.
type Service struct {
	accessSigner  Signer
	refreshSigner Signer
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	nowFunc       func() time.Time
}

type Option func(*Service)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) Option {
	return func(s *Service) {
		s.accessTTL = accessTokenExpiry
		s.refreshTTL = refreshTokenExpiry
	}
}

// WithRefreshSecret signs refresh tokens with their own secret so the two kinds can be rotated independently.
// An empty secret keeps the access secret.
func WithRefreshSecret(secret string) Option {
	return func(s *Service) {
		if secret != "" {
			s.refreshSigner = NewHMACSigner(secret)
		}
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// New creates the token service. The secret is required.
func New(secret string, options ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("[token.New] signing secret is required")
	}

	s := &Service{
		accessSigner: NewHMACSigner(secret),
		issuer:       defaultIssuer,
	}
	s.refreshSigner = s.accessSigner

	for _, opt := range options {
		opt(s)
	}

	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTokenExpiry
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTokenExpiry
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s, nil
}

func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// Issue signs an access token for payload that expires after ttl.
// A non-positive ttl uses the configured access expiry.
func (s *Service) Issue(payload Payload, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.accessTTL
	}
	return s.sign(s.accessSigner, payload, KindAccess, ttl)
}

// IssueAccess signs an access token with the configured access expiry
func (s *Service) IssueAccess(payload Payload) (string, error) {
	return s.Issue(payload, s.accessTTL)
}

// IssueRefresh signs a refresh token with the refresh secret and the fixed refresh expiry
func (s *Service) IssueRefresh(payload Payload) (string, error) {
	return s.sign(s.refreshSigner, payload, KindRefresh, s.refreshTTL)
}

// Verify checks an access token and returns its payload.
// Every failure is reported as errors.ErrInvalidToken.
func (s *Service) Verify(rawToken string) (Payload, error) {
	return s.verify(rawToken, s.accessSigner, KindAccess)
}

// VerifyRefresh checks a refresh token and returns its payload
func (s *Service) VerifyRefresh(rawToken string) (Payload, error) {
	return s.verify(rawToken, s.refreshSigner, KindRefresh)
}

func (s *Service) sign(signer Signer, payload Payload, kind Kind, ttl time.Duration) (string, error) {
	now := s.nowFunc()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,                         // The issuer of the token
			Subject:   payload.UserID,                   // The user the token speaks for
			IssuedAt:  jwt.NewNumericDate(now),          // Issued At: the time at which the token was issued
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Expiry: when the token will expire
			ID:        uuid.New().String(),              // Unique token ID
		},
		UserID:    payload.UserID,
		Role:      payload.Role,
		TokenType: kind,
	}

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", errors.Wrapf(err, "[token.Service] sign %s token", kind)
	}
	return signed, nil
}

func (s *Service) verify(rawToken string, signer Signer, kind Kind) (Payload, error) {
	if rawToken == "" {
		return Payload{}, errors.Wrap(apperrors.ErrInvalidToken, "empty token")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowFunc),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return Payload{}, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return Payload{}, errors.Wrap(apperrors.ErrInvalidToken, "token not valid")
	}
	if claims.TokenType != kind {
		return Payload{}, errors.Wrapf(apperrors.ErrInvalidToken, "expected %s token, got %q", kind, claims.TokenType)
	}
	return claims.payload(), nil
}
