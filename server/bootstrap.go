package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// BootstrapAdmin creates the ADMIN_EMAIL account on first start and prints its generated password once.
// It does nothing when no admin email is configured.
func (s *Server) BootstrapAdmin(ctx context.Context) error {
	adminEmail := s.config.GetAdminEmail()
	if adminEmail == "" {
		return nil
	}

	log.Info().Msg("🔧 Bootstrap: Checking admin account...")
	generatedPassword, err := s.auth.EnsureAdmin(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("[Server BootstrapAdmin] %w", err)
	}

	if generatedPassword == "" {
		log.Info().Str("email", adminEmail).Msg("✅ Bootstrap: Admin account already exists")
		return nil
	}

	baseURL := s.config.GetBaseURL()
	log.Info().Msg("✅ Bootstrap complete: Admin account created")
	log.Info().Msg("")
	log.Info().Msg("👤 Admin Credentials:")
	log.Info().Msgf("   Email:       %s", adminEmail)
	log.Info().Msgf("   Password:    %s", generatedPassword)
	log.Info().Msg("   ⚠️  SAVE THIS PASSWORD - it will not be displayed again!")
	log.Info().Msg("")
	log.Info().Msgf("🔐 Sign in:     POST %s%s", baseURL, RouteAuthLogin)
	return nil
}
