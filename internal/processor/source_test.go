package processor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointDoc = `{"type": "Point", "coordinates": [1, 2]}`

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	return string(data)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.geojson")
	require.NoError(t, os.WriteFile(path, []byte(pointDoc), 0o644))

	rc, err := Open(context.Background(), http.DefaultClient, path)
	require.NoError(t, err)
	assert.Equal(t, pointDoc, readAll(t, rc))

	_, err = Open(context.Background(), http.DefaultClient, filepath.Join(t.TempDir(), "missing.geojson"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdin.geojson")
	require.NoError(t, os.WriteFile(path, []byte(pointDoc), 0o644))

	for _, source := range []string{"", "-"} {
		f, err := os.Open(path)
		require.NoError(t, err)

		stdin := os.Stdin
		os.Stdin = f

		rc, err := Open(context.Background(), http.DefaultClient, source)
		require.NoError(t, err)
		assert.Equal(t, pointDoc, readAll(t, rc), "source %q", source)

		os.Stdin = stdin
		require.NoError(t, f.Close())
	}
}

func TestOpenURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.geojson" {
			http.NotFound(w, r)
			return
		}
		assert.Contains(t, r.Header.Get("Accept"), "application/geo+json")
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = io.WriteString(w, pointDoc)
	}))
	defer srv.Close()

	rc, err := Open(context.Background(), srv.Client(), srv.URL+"/data.geojson")
	require.NoError(t, err)
	assert.Equal(t, pointDoc, readAll(t, rc))

	_, err = Open(context.Background(), srv.Client(), srv.URL+"/missing.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestOpenURLCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, pointDoc)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, srv.Client(), srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenThenConvert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.geojson")
	require.NoError(t, os.WriteFile(path, []byte(pointDoc), 0o644))

	rc, err := Open(context.Background(), http.DefaultClient, path)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	res, err := sphere().Convert(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data.Points.Len())
}
