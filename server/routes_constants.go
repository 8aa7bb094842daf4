package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteAPIPrefix = "/api/"
	RouteHealth    = "/api/health"

	// Auth Routes
	RouteAuthRegister = "/api/auth/register"
	RouteAuthLogin    = "/api/auth/login"
	RouteAuthRefresh  = "/api/auth/refresh"
	RouteAuthMe       = "/api/auth/me"

	// Federated sign-in (OpenID Connect)
	RouteOIDCLogin    = "/api/auth/oidc/login"
	RouteOIDCCallback = "/api/auth/oidc/callback"

	// Upload Routes
	RouteUploadImages    = "/api/upload/images"
	RouteUploadDocuments = "/api/upload/documents"
	RouteUploadFiles     = "/api/upload/files"

	// Stored uploads, served back by key
	RouteUploadsPrefix = "/uploads"
	RouteUploads       = "/uploads/{field}/{file}"
)
