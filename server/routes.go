package server

import "github.com/connectspace/connectspace-api/upload"

// maxJSONBodySize bounds the auth request bodies
const maxJSONBodySize = 1 << 20

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Catch-all under /api/: CorsMiddleware answers preflight, anything else is an unknown route
	s.RegisterRouteHandler(RouteAPIPrefix, ChainMiddleware(s.APINotFoundHandler(), s.APIMiddleware()...))

	// AUTH
	jsonLimit := s.BodyLimitMiddleware(maxJSONBodySize)
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(jsonLimit)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(jsonLimit)...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(jsonLimit)...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	if s.oidc != nil {
		s.RegisterRouteHandler("GET "+RouteOIDCLogin, ChainMiddleware(s.OIDCLoginHandler(), s.APIMiddleware()...))
		s.RegisterRouteHandler("GET "+RouteOIDCCallback, ChainMiddleware(s.OIDCCallbackHandler(), s.APIMiddleware()...))
	}

	// UPLOADS
	uploadLimit := s.UploadLimitMiddleware(s.gate.Limits())
	s.RegisterRouteHandler("POST "+RouteUploadImages, ChainMiddleware(
		s.UploadHandler(s.gate.Allow(upload.FieldImages)),
		s.APIMiddleware(s.RequireAuth(), uploadLimit)...,
	))
	s.RegisterRouteHandler("POST "+RouteUploadDocuments, ChainMiddleware(
		s.UploadHandler(s.gate.Allow(upload.FieldDocuments)),
		s.APIMiddleware(s.RequireAuth(), uploadLimit)...,
	))
	s.RegisterRouteHandler("POST "+RouteUploadFiles, ChainMiddleware(
		s.UploadHandler(s.gate),
		s.APIMiddleware(s.RequireAuth(), uploadLimit)...,
	))

	s.RegisterRouteHandler("GET "+RouteUploads, ChainMiddleware(s.ServeUploadHandler(), s.FileMiddleware()...))
}
