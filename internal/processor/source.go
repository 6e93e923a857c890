package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Open returns a reader for a GeoJSON source: an http(s) URL, a local file,
// or stdin when source is empty or "-".
func Open(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	switch {
	case source == "" || source == "-":
		log.Debug().Msg("Reading GeoJSON from stdin")
		return io.NopCloser(os.Stdin), nil

	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		log.Info().Str("url", source).Msg("Downloading GeoJSON")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/geo+json, application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("download %s: status %d", source, resp.StatusCode)
		}

		return resp.Body, nil

	default:
		log.Info().Str("path", source).Msg("Reading GeoJSON file")
		return os.Open(source)
	}
}
