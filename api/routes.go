package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("SIMPLEQA_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("SIMPLEQA_DISABLE_AUTH")), "true") {
		// Explicitly allow unauthenticated access.
	} else {
		return errors.New("api: missing auth configuration: set SIMPLEQA_API_KEY or set SIMPLEQA_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)
	api.GET("/summary", s.handleGetSummary)
	api.GET("/providers/:name/results", s.handleGetProviderResults)
	api.GET("/history/:provider", s.handleGetProviderHistory)

	return nil
}
