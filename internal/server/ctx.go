package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/processor"
)

// maxBodySize caps uploaded GeoJSON documents.
const maxBodySize = 256 << 20

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config *config.Config
	Walker *processor.Walker
}

// NewServerContext validates the configuration and builds the shared walker.
func NewServerContext(cfg *config.Config) (*ServerContext, error) {
	projector, err := cfg.Projector()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("projection", projector.Name()).
		Strs("allowlist", cfg.Attributes.Allowlist).
		Msg("Server context initialized")

	return &ServerContext{
		Config: cfg,
		Walker: processor.NewWalker(projector, cfg.Attributes.Allowlist),
	}, nil
}

// Routes returns the service mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/convert", s.HandleConvert)
	mux.HandleFunc("/api/config", s.HandleConfig)
	mux.HandleFunc("/api/formats", s.HandleFormats)

	return mux
}
