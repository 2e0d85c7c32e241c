package orientation

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Orientation describes how the pixels of a frame buffer relate to the
// upright scene. The eight canonical values follow the camera/UI convention
// (up, down, left, right and their mirrored variants). Any other value is
// treated as unknown.
type Orientation int

const (
	Up Orientation = iota
	Down
	Left
	Right
	UpMirrored
	DownMirrored
	LeftMirrored
	RightMirrored
)

var labels = map[Orientation]string{
	Up:            "up",
	Down:          "down",
	Left:          "left",
	Right:         "right",
	UpMirrored:    "upMirrored",
	DownMirrored:  "downMirrored",
	LeftMirrored:  "leftMirrored",
	RightMirrored: "rightMirrored",
}

// All returns the eight canonical orientations in declaration order.
func All() []Orientation {
	return []Orientation{Up, Down, Left, Right, UpMirrored, DownMirrored, LeftMirrored, RightMirrored}
}

// ToEngine maps the orientation reported by the frame source to the
// orientation assigned to the image before recognition.
//
//	up    -> up    (sensor already matches landscape-left)
//	left  -> right (portrait)
//	down  -> down  (landscape-right)
//	right -> left  (upside-down)
//
// Mirrored and unrecognized values map to up.
func ToEngine(o Orientation) Orientation {
	switch o {
	case Up:
		return Up
	case Left:
		return Right
	case Down:
		return Down
	case Right:
		return Left
	default:
		return Up
	}
}

// Label renders o as its canonical name, or "unknown".
func Label(o Orientation) string {
	if s, ok := labels[o]; ok {
		return s
	}
	return "unknown"
}

// String implements fmt.Stringer.
func (o Orientation) String() string {
	return Label(o)
}

// Valid reports whether o is one of the eight canonical values.
func (o Orientation) Valid() bool {
	_, ok := labels[o]
	return ok
}

// Mirrored reports whether o is one of the four mirrored variants.
func (o Orientation) Mirrored() bool {
	switch o {
	case UpMirrored, DownMirrored, LeftMirrored, RightMirrored:
		return true
	default:
		return false
	}
}

// exifOrder lists the orientations for EXIF tags 1 through 8.
var exifOrder = [...]Orientation{Up, UpMirrored, Down, DownMirrored, LeftMirrored, Right, RightMirrored, Left}

// FromEXIF converts an EXIF orientation tag (1..8).
func FromEXIF(tag int) (Orientation, bool) {
	if tag < 1 || tag > len(exifOrder) {
		return Up, false
	}
	return exifOrder[tag-1], true
}

// EXIF returns the EXIF orientation tag for o, or 0 for unknown values.
func (o Orientation) EXIF() int {
	for i, v := range exifOrder {
		if v == o {
			return i + 1
		}
	}
	return 0
}

// Parse accepts a canonical label (case-insensitive) or an EXIF tag
// numeral and returns the matching orientation.
func Parse(s string) (Orientation, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Up, errors.New("empty orientation")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if o, ok := FromEXIF(n); ok {
			return o, nil
		}
		return Up, fmt.Errorf("exif orientation out of range: %d", n)
	}
	for o, label := range labels {
		if strings.EqualFold(label, s) {
			return o, nil
		}
	}
	return Up, fmt.Errorf("unknown orientation %q", s)
}

// Upright returns img transformed so that content tagged with o is shown
// upright. Unknown orientations return img unchanged.
func Upright(img image.Image, o Orientation) image.Image {
	if img == nil {
		return nil
	}
	switch o {
	case Down:
		return imaging.Rotate180(img)
	case Left:
		return imaging.Rotate90(img)
	case Right:
		return imaging.Rotate270(img)
	case UpMirrored:
		return imaging.FlipH(img)
	case DownMirrored:
		return imaging.FlipV(img)
	case LeftMirrored:
		return imaging.Transpose(img)
	case RightMirrored:
		return imaging.Transverse(img)
	default:
		return img
	}
}
