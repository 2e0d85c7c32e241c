package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common frame dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test frame sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// FrameConfig describes a synthetic camera frame.
type FrameConfig struct {
	// Lines are drawn centered, top to bottom.
	Lines      []string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	// Orientation is the device orientation the frame is delivered in. The
	// text is drawn upright and then turned so that orientation.Upright
	// restores it.
	Orientation orientation.Orientation
}

// DefaultFrameConfig returns a small upright frame with one line of text.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Lines:       []string{"Sample Text"},
		Size:        SmallSize,
		Background:  color.White,
		Foreground:  color.Black,
		FontFace:    basicfont.Face7x13,
		Orientation: orientation.Up,
	}
}

// GenerateFrame renders the configured text and returns it as the sensor
// would deliver it for the configured orientation.
func GenerateFrame(config FrameConfig) *image.NRGBA {
	upright := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(upright, upright.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	if config.FontFace == nil {
		config.FontFace = basicfont.Face7x13
	}
	drawer := &font.Drawer{
		Dst:  upright,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}

	lineHeight := config.FontFace.Metrics().Height.Ceil()
	startY := (config.Size.Height - len(config.Lines)*lineHeight) / 2
	for i, line := range config.Lines {
		width := font.MeasureString(config.FontFace, line).Ceil()
		drawer.Dot = fixed.P((config.Size.Width-width)/2, startY+(i+1)*lineHeight)
		drawer.DrawString(line)
	}

	return Sensor(upright, config.Orientation)
}

// Sensor turns an upright image into the buffer a device held in o
// delivers. It is the inverse of orientation.Upright.
func Sensor(img image.Image, o orientation.Orientation) *image.NRGBA {
	switch o {
	case orientation.Down:
		return imaging.Rotate180(img)
	case orientation.Left:
		return imaging.Rotate270(img)
	case orientation.Right:
		return imaging.Rotate90(img)
	case orientation.UpMirrored:
		return imaging.FlipH(img)
	case orientation.DownMirrored:
		return imaging.FlipV(img)
	case orientation.LeftMirrored:
		return imaging.Transpose(img)
	case orientation.RightMirrored:
		return imaging.Transverse(img)
	default:
		return imaging.Clone(img)
	}
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "Failed to encode PNG image")
	return buf.Bytes()
}

// SaveImage saves an image as PNG to the specified path.
func SaveImage(t testing.TB, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)
	require.NoError(t, os.WriteFile(path, EncodePNG(t, img), 0o600), "Failed to write %s", path)
}

// WriteFrame renders config into dir/name and returns the path.
func WriteFrame(t testing.TB, dir, name string, config FrameConfig) string {
	t.Helper()

	path := filepath.Join(dir, name)
	SaveImage(t, GenerateFrame(config), path)
	return path
}

// CompareImages reports whether two images have the same bounds and an
// average per-pixel difference within tolerance (0..1).
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return false
	}

	var totalDiff, pixelCount float64
	for y := 0; y < b1.Dy(); y++ {
		for x := 0; x < b1.Dx(); x++ {
			r1, g1, bl1, a1 := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, bl2, a2 := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(bl1) - float64(bl2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixelCount++
		}
	}
	if pixelCount == 0 {
		return true
	}

	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return totalDiff/pixelCount/maxDiff <= tolerance
}
