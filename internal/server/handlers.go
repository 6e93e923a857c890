// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/processor"
	"github.com/woozymasta/geousd/internal/sink"
)

// HandleConfig serves the effective configuration as JSON.
func (s *ServerContext) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(s.Config)
}

// HandleFormats lists the output formats accepted by HandleConvert.
func (s *ServerContext) HandleFormats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(config.Formats)
}

// HandleConvert converts the GeoJSON request body into the requested format.
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.Config.ResolveFormat("")
	}
	if !config.IsFormat(format) {
		http.Error(w, "unknown format "+strconv.Quote(format), http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	ctx := log.Logger.WithContext(r.Context())

	res, err := s.Walker.Convert(ctx, body)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, processor.ErrSyntax), errors.Is(err, processor.ErrUnknownObject):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case ctx.Err() != nil:
			log.Debug().Err(err).Msg("Client went away during conversion")
		default:
			log.Error().Err(err).Msg("Conversion failed")
			http.Error(w, "conversion failed", http.StatusInternalServerError)
		}
		return
	}

	out, err := sink.Export(format, s.Config, &res.Data)
	if err != nil {
		log.Error().Err(err).Str("format", format).Msg("Failed to materialize geometry")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		log.Error().Err(err).Str("format", format).Msg("Failed to encode output")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	diag := res.Diagnostics
	w.Header().Set("Content-Type", sink.ContentType(format))
	w.Header().Set("X-Run-Id", diag.RunID.String())
	w.Header().Set("X-Skipped", strconv.Itoa(len(diag.Skipped)))
	w.Header().Set("X-Warnings", strconv.Itoa(len(diag.Warnings)))
	_, _ = buf.WriteTo(w)
}
