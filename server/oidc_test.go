package server_test

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/connectspace/connectspace-api/auth"
	"github.com/connectspace/connectspace-api/server"
	"github.com/connectspace/connectspace-api/users"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testIssuer   = "https://id.example.com"
	testClientID = "connectspace-web"
)

// fakeProvider is a token endpoint that answers every code with an ID token built from its claims
type fakeProvider struct {
	mu     sync.Mutex
	key    *rsa.PrivateKey
	claims jwt.MapClaims
	srv    *httptest.Server
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{key: key}
	p.srv = httptest.NewServer(http.HandlerFunc(p.token))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) setClaims(claims jwt.MapClaims) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claims = claims
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	claims := p.claims
	p.mu.Unlock()

	if r.FormValue("code") == "" || r.FormValue("code_verifier") == "" {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(p.key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "provider-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     idToken,
	})
}

func (p *fakeProvider) config() *server.OidcConfig {
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&p.key.PublicKey}}
	return &server.OidcConfig{
		OAuth2Config: &oauth2.Config{
			ClientID:     testClientID,
			ClientSecret: "client-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   testIssuer + "/authorize",
				TokenURL:  p.srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: "http://localhost:5000" + server.RouteOIDCCallback,
			Scopes:      []string{oidc.ScopeOpenID, "profile", "email"},
		},
		OidcVerifier: oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testClientID}),
	}
}

func idClaims(nonce string, verified bool) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            testClientID,
		"sub":            "provider-user-42",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"nonce":          nonce,
		"email":          "grace@example.com",
		"email_verified": verified,
		"given_name":     "Grace",
		"family_name":    "Hopper",
	}
}

// startLogin follows the login redirect and returns the state and nonce the provider would see
func startLogin(t *testing.T, f *fixture) (state, nonce string) {
	t.Helper()
	rec := f.do(httptest.NewRequest(http.MethodGet, server.RouteOIDCLogin, nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	query := location.Query()
	require.Equal(t, testClientID, query.Get("client_id"))
	require.Equal(t, "S256", query.Get("code_challenge_method"))
	require.NotEmpty(t, query.Get("code_challenge"))
	require.NotEmpty(t, query.Get("state"))
	require.NotEmpty(t, query.Get("nonce"))
	return query.Get("state"), query.Get("nonce")
}

func callback(f *fixture, state, code string) *httptest.ResponseRecorder {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	if code != "" {
		q.Set("code", code)
	}
	return f.do(httptest.NewRequest(http.MethodGet, server.RouteOIDCCallback+"?"+q.Encode(), nil))
}

func TestOIDC_SignIn(t *testing.T) {
	provider := newFakeProvider(t)
	f := newFixture(t, nil, server.WithOIDC(provider.config()))

	state, nonce := startLogin(t, f)
	provider.setClaims(idClaims(nonce, true))

	rec := callback(f, state, "auth-code")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	session := decode[auth.Session](t, rec)
	require.Equal(t, "grace@example.com", session.User.Email)
	require.Equal(t, "Grace", session.User.FirstName)
	require.Equal(t, users.UserTypeTenant, session.User.UserType)

	payload, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, payload.UserID)

	// The state is spent
	rec = callback(f, state, "auth-code")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// A second sign-in reuses the account
	state, nonce = startLogin(t, f)
	provider.setClaims(idClaims(nonce, true))
	rec = callback(f, state, "auth-code")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, session.User.ID, decode[auth.Session](t, rec).User.ID)
	require.Equal(t, 1, f.repo.Len())
}

func TestOIDC_Rejections(t *testing.T) {
	provider := newFakeProvider(t)
	f := newFixture(t, nil, server.WithOIDC(provider.config()))

	t.Run("missing parameters", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, callback(f, "", "code").Code)
	})

	t.Run("unknown state", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, callback(f, "never-issued", "code").Code)
	})

	t.Run("provider error", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, server.RouteOIDCCallback+"?error=access_denied", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		state, _ := startLogin(t, f)
		provider.setClaims(idClaims("some-other-nonce", true))
		rec := callback(f, state, "code")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid nonce", decode[errorBody](t, rec).Error)
	})

	t.Run("wrong audience", func(t *testing.T) {
		state, nonce := startLogin(t, f)
		claims := idClaims(nonce, true)
		claims["aud"] = "someone-else"
		provider.setClaims(claims)
		require.Equal(t, http.StatusUnauthorized, callback(f, state, "code").Code)
	})

	t.Run("unverified email", func(t *testing.T) {
		state, nonce := startLogin(t, f)
		provider.setClaims(idClaims(nonce, false))
		require.Equal(t, http.StatusUnauthorized, callback(f, state, "code").Code)
	})

	require.Zero(t, f.repo.Len())
}
