package config

import "time"

const (
	jwtSecretVar           = "JWT_SECRET"
	jwtRefreshSecretVar    = "JWT_REFRESH_SECRET"
	jwtExpiresInVar        = "JWT_EXPIRES_IN"
	jwtRefreshExpiresInVar = "JWT_REFRESH_EXPIRES_IN"
	jwtIssuerVar           = "JWT_ISSUER"

	defaultAccessTokenExpiry  = 7 * 24 * time.Hour
	defaultRefreshTokenExpiry = 30 * 24 * time.Hour
)

type TokenConfig interface {
	GetJWTSecret() string
	GetJWTRefreshSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetTokenIssuer() string
}

type Token struct {
	src *source
}

var _ TokenConfig = Token{}

func (t Token) GetJWTSecret() string {
	return t.src.get(jwtSecretVar, "")
}

// GetJWTRefreshSecret falls back to the access secret when no distinct one is set
func (t Token) GetJWTRefreshSecret() string {
	return t.src.get(jwtRefreshSecretVar, t.GetJWTSecret())
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	d, err := t.accessTokenExpiry()
	if err != nil {
		return defaultAccessTokenExpiry
	}
	return d
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	d, err := t.refreshTokenExpiry()
	if err != nil {
		return defaultRefreshTokenExpiry
	}
	return d
}

func (t Token) GetTokenIssuer() string {
	return t.src.get(jwtIssuerVar, "connectspace")
}

func (t Token) accessTokenExpiry() (time.Duration, error) {
	v := t.src.get(jwtExpiresInVar, "")
	if v == "" {
		return defaultAccessTokenExpiry, nil
	}
	return ParseDuration(v)
}

func (t Token) refreshTokenExpiry() (time.Duration, error) {
	v := t.src.get(jwtRefreshExpiresInVar, "")
	if v == "" {
		return defaultRefreshTokenExpiry, nil
	}
	return ParseDuration(v)
}
