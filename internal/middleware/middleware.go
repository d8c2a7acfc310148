package middleware

import (
	"net/http"
	"net/netip"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/logger"
)

// Middleware holds all HTTP middleware
type Middleware struct {
	rdb *database.Redis
	log *logger.Logger
	cfg *config.Config

	proxies []netip.Prefix
}

// New creates a new Middleware instance
func New(rdb *database.Redis, log *logger.Logger, cfg *config.Config) *Middleware {
	proxies, err := cfg.Security.ProxyPrefixes()
	if err != nil {
		// Config.Validate rejects this at startup; trust nobody if it slipped through.
		log.Error().Err(err).Msg("ignoring trusted proxies")
		proxies = nil
	}
	return &Middleware{
		rdb:     rdb,
		log:     log,
		cfg:     cfg,
		proxies: proxies,
	}
}

// writeError writes the API error envelope. Handlers have their own copy;
// middleware cannot import the handler package.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
