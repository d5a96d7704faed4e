package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"depot-backend/internal/config"
)

// downloadHeaders lets browser clients read the filename of receipts and reports
var downloadHeaders = []string{"Content-Disposition", "Content-Length"}

// corsOptions builds the CORS policy from the server section. The session
// cookie is only shared with origins that are listed explicitly.
func corsOptions(cfg *config.Config) cors.Options {
	wildcard := len(cfg.Server.CorsAllowedOrigins) == 0
	for _, origin := range cfg.Server.CorsAllowedOrigins {
		if origin == "*" {
			wildcard = true
		}
	}

	return cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   downloadHeaders,
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	return cors.New(corsOptions(cfg)).Handler
}
