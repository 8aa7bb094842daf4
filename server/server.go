package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/connectspace/connectspace-api/auth"
	"github.com/connectspace/connectspace-api/internal/config"
	"github.com/connectspace/connectspace-api/server/authflowrepo"
	"github.com/connectspace/connectspace-api/storage"
	"github.com/connectspace/connectspace-api/token"
	"github.com/connectspace/connectspace-api/upload"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const authFlowMaxAge = 10 * time.Minute

// OidcConfig is the external OpenID Connect provider used for federated sign-in
type OidcConfig struct {
	OAuth2Config *oauth2.Config
	OidcVerifier *oidc.IDTokenVerifier
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	tokens    *token.Service
	gate      *upload.Gate
	store     storage.Store
	oidc      *OidcConfig
	authState authflowrepo.Repo
}

type Option func(*Server)

// WithOIDC enables the federated sign-in routes
func WithOIDC(oidcConfig *OidcConfig) Option {
	return func(s *Server) {
		s.oidc = oidcConfig
	}
}

func WithAuthFlowRepo(repo authflowrepo.Repo) Option {
	return func(s *Server) {
		s.authState = repo
	}
}

func New(cfg config.Config, authService *auth.Service, tokens *token.Service, store storage.Store, options ...Option) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("[Server New] token service is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[Server New] storage is required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		tokens: tokens,
		store:  store,
		gate: upload.NewGate(upload.Limits{
			MaxFiles:    cfg.GetMaxUploadFiles(),
			MaxFileSize: cfg.GetMaxUploadFileSize(),
		}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.oidc != nil && s.authState == nil {
		s.authState = authflowrepo.NewInMemoryRepo(authFlowMaxAge)
	}

	// Bootstrap: ensure the configured admin account exists
	if err := s.BootstrapAdmin(context.Background()); err != nil {
		return nil, fmt.Errorf("[Server New] failed to bootstrap admin: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// NewOidcConfig discovers the provider configured in cfg
func NewOidcConfig(ctx context.Context, cfg config.OIDCConfig) (*OidcConfig, error) {
	provider, err := oidc.NewProvider(ctx, cfg.GetOIDCIssuer())
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &OidcConfig{
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.GetOIDCClientID(),
			ClientSecret: cfg.GetOIDCClientSecret(),
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.GetOIDCRedirectURL(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		OidcVerifier: provider.Verifier(&oidc.Config{
			ClientID: cfg.GetOIDCClientID(),
		}),
	}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered route patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}
