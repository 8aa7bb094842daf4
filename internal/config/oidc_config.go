package config

const (
	oidcIssuerVar       = "OIDC_ISSUER"
	oidcClientIDVar     = "OIDC_CLIENT_ID"
	oidcClientSecretVar = "OIDC_CLIENT_SECRET"
	oidcRedirectURLVar  = "OIDC_REDIRECT_URL"

	oidcCallbackPath = "/api/auth/oidc/callback"
)

// OIDCConfig describes the optional external identity provider used for federated sign-in
type OIDCConfig interface {
	GetOIDCEnabled() bool
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectURL() string
}

type OIDC struct {
	src *source
}

var _ OIDCConfig = OIDC{}

func (o OIDC) GetOIDCEnabled() bool {
	return o.GetOIDCIssuer() != ""
}

func (o OIDC) GetOIDCIssuer() string {
	return o.src.get(oidcIssuerVar, "")
}

func (o OIDC) GetOIDCClientID() string {
	return o.src.get(oidcClientIDVar, "")
}

func (o OIDC) GetOIDCClientSecret() string {
	return o.src.get(oidcClientSecretVar, "")
}

func (o OIDC) GetOIDCRedirectURL() string {
	return o.src.get(oidcRedirectURLVar, EnvVars(o).GetBaseURL()+oidcCallbackPath)
}
