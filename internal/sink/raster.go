package sink

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/geo"
	"github.com/woozymasta/geousd/internal/geometry"
)

// supersample is the canvas oversize factor before downscaling.
const supersample = 2

var (
	lineColor  = color.RGBA{R: 0x1e, G: 0x5a, B: 0xa8, A: 0xff}
	pointColor = color.RGBA{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff}
)

// Raster is a sink that draws a WebP preview and optionally a tile pyramid.
type Raster struct {
	sketch  sketch
	preview config.Preview
}

// NewRaster returns a raster preview sink.
func NewRaster(preview config.Preview) *Raster {
	return &Raster{sketch: newSketch(), preview: preview}
}

// CreatePointPrimitive implements Sink.
func (r *Raster) CreatePointPrimitive(name string, positions []geo.Vec3, _ []*geometry.Column) (Handle, error) {
	return r.sketch.addPoints(name, positions), nil
}

// CreateLinePrimitive implements Sink.
func (r *Raster) CreateLinePrimitive(name string, positions []geo.Vec3, lengths []int, _ []*geometry.Column, closed bool) (Handle, error) {
	return r.sketch.addLines(name, positions, lengths, closed), nil
}

// Image renders the preview at the configured size.
func (r *Raster) Image() image.Image {
	w, h, toPx := r.sketch.layout(r.preview.Size*supersample, 4*supersample)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))

	for _, sh := range r.sketch.shapes {
		if sh.dot {
			x, y := toPx(sh.points[0])
			fillSquare(canvas, int(x), int(y), 2*supersample, pointColor)
			continue
		}

		for i := 1; i < len(sh.points); i++ {
			x0, y0 := toPx(sh.points[i-1])
			x1, y1 := toPx(sh.points[i])
			drawLine(canvas, x0, y0, x1, y1, lineColor)
		}
		if sh.closed && len(sh.points) > 2 {
			x0, y0 := toPx(sh.points[len(sh.points)-1])
			x1, y1 := toPx(sh.points[0])
			drawLine(canvas, x0, y0, x1, y1, lineColor)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, max(w/supersample, 1), max(h/supersample, 1)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), canvas, canvas.Bounds(), draw.Over, nil)

	return dst
}

// WriteTo encodes the preview as WebP.
func (r *Raster) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := webp.Encode(cw, r.Image(), &webp.Options{Lossless: false, Quality: r.preview.Quality}); err != nil {
		return cw.n, fmt.Errorf("encode webp: %w", err)
	}

	return cw.n, nil
}

// WriteTiles slices the preview into a z/x/y.webp pyramid under baseDir,
// from zoom 0 up to the configured zoom.
func (r *Raster) WriteTiles(baseDir string, force bool) error {
	src := r.Image()
	tileSize := r.preview.TileSize

	for z := 0; z <= r.preview.Zoom; z++ {
		// Grid size: 2^z
		gridSize := 1 << z
		totalPixels := gridSize * tileSize

		log.Debug().
			Int("zoom", z).
			Int("grid", gridSize).
			Int("px", totalPixels).
			Msg("Processing zoom level")

		dstImg := image.NewRGBA(image.Rect(0, 0, totalPixels, totalPixels))
		xdraw.CatmullRom.Scale(dstImg, fitRect(src.Bounds(), totalPixels), src, src.Bounds(), draw.Over, nil)

		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		// Simple semaphore to limit file I/O concurrency
		sem := make(chan struct{}, 20)

		for x := 0; x < gridSize; x++ {
			for y := 0; y < gridSize; y++ {
				wg.Add(1)
				sem <- struct{}{}

				go func(zx, zy int) {
					defer wg.Done()
					defer func() { <-sem }()

					rect := image.Rect(zx*tileSize, zy*tileSize, (zx+1)*tileSize, (zy+1)*tileSize)
					outPath := filepath.Join(baseDir, fmt.Sprint(z), fmt.Sprint(zx), fmt.Sprint(zy)+".webp")

					if err := r.writeTile(dstImg.SubImage(rect), outPath, force); err != nil {
						log.Error().Err(err).Str("path", outPath).Msg("Failed to write tile")
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
					}
				}(x, y)
			}
		}
		wg.Wait()

		if firstErr != nil {
			return firstErr
		}
	}

	log.Info().Str("dir", baseDir).Int("zoom", r.preview.Zoom).Msg("Preview tiles written")

	return nil
}

func (r *Raster) writeTile(img image.Image, outPath string, force bool) error {
	if !force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return webp.Encode(f, img, &webp.Options{Lossless: false, Quality: r.preview.Quality})
}

// fitRect centres src scaled to fit a size x size square.
func fitRect(src image.Rectangle, size int) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	scale := float64(size) / math.Max(sw, sh)
	w, h := int(sw*scale), int(sh*scale)
	x0, y0 := (size-w)/2, (size-h)/2

	return image.Rect(x0, y0, x0+w, y0+h)
}

func fillSquare(img *image.RGBA, cx, cy, size int, c color.RGBA) {
	half := size / 2
	draw.Draw(img, image.Rect(cx-half, cy-half, cx-half+size, cy-half+size), image.NewUniform(c), image.Point{}, draw.Over)
}

// drawLine fills the segment as a quad supersample pixels wide. The
// rasterizer only covers the quad's bounding box.
func drawLine(img *image.RGBA, x0, y0, x1, y1 float64, c color.RGBA) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		fillSquare(img, int(x0), int(y0), supersample, c)
		return
	}

	half := float64(supersample) / 2
	nx, ny := -dy/length*half, dx/length*half
	quad := [4][2]float64{
		{x0 + nx, y0 + ny},
		{x1 + nx, y1 + ny},
		{x1 - nx, y1 - ny},
		{x0 - nx, y0 - ny},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, q := range quad {
		minX, maxX = math.Min(minX, q[0]), math.Max(maxX, q[0])
		minY, maxY = math.Min(minY, q[1]), math.Max(maxY, q[1])
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))).
		Intersect(img.Bounds())
	if r.Empty() {
		return
	}

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.MoveTo(float32(quad[0][0]-ox), float32(quad[0][1]-oy))
	for _, q := range quad[1:] {
		z.LineTo(float32(q[0]-ox), float32(q[1]-oy))
	}
	z.ClosePath()
	z.Draw(img, r, image.NewUniform(c), image.Point{})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
