package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/geometry"
	"github.com/MeKo-Tech/frameocr/internal/mempool"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"golang.org/x/text/language"
)

// box is one Tesseract bounding box at some iterator level.
type box struct {
	Rect image.Rectangle
	Text string
}

// nonLanguages are traineddata names that are not natural languages.
var nonLanguages = map[string]bool{"osd": true, "equ": true}

// languages converts Tesseract language codes to BCP-47 base codes.
// Codes that cannot be converted are kept as entries without a code.
func languages(codes []string) []engine.Language {
	out := make([]engine.Language, 0, len(codes))
	for _, c := range codes {
		out = append(out, engine.Language{Code: bcp47(c)})
	}
	return out
}

func bcp47(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexByte(code, '_'); i >= 0 {
		// script variants such as chi_sim or aze_cyrl
		code = code[:i]
	}
	if code == "" || nonLanguages[code] {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

func toRect(r image.Rectangle) *geometry.Rect {
	g := geometry.NewRect(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y))
	return &g
}

func center(r image.Rectangle) geometry.Point {
	return geometry.Point{X: float64(r.Min.X+r.Max.X) / 2, Y: float64(r.Min.Y+r.Max.Y) / 2}
}

// owner returns the index of the first container holding p, or -1.
func owner(containers []box, p geometry.Point) int {
	for i, c := range containers {
		if toRect(c.Rect).Contains(p) {
			return i
		}
	}
	return -1
}

// assemble nests lines into blocks and words into lines by containment of
// their centers, keeping Tesseract's reading order. Lines or words that no
// container holds are gathered under a synthetic node spanning them.
func assemble(page string, blocks, lines, words []box, langs []engine.Language) *engine.Text {
	lineWords := make([][]box, len(lines)+1)
	for _, w := range words {
		i := owner(lines, center(w.Rect))
		if i < 0 {
			i = len(lines)
		}
		lineWords[i] = append(lineWords[i], w)
	}

	allLines := append([]box(nil), lines...)
	if orphans := lineWords[len(lines)]; len(orphans) > 0 {
		allLines = append(allLines, span(orphans))
	}

	blockLines := make([][]int, len(blocks)+1)
	for li, l := range allLines {
		i := owner(blocks, center(l.Rect))
		if i < 0 {
			i = len(blocks)
		}
		blockLines[i] = append(blockLines[i], li)
	}

	allBlocks := append([]box(nil), blocks...)
	if orphans := blockLines[len(blocks)]; len(orphans) > 0 {
		members := make([]box, 0, len(orphans))
		for _, li := range orphans {
			members = append(members, allLines[li])
		}
		allBlocks = append(allBlocks, span(members))
	}

	text := &engine.Text{Text: strings.TrimSpace(page), Blocks: make([]engine.Block, 0, len(allBlocks))}
	for bi, b := range allBlocks {
		block := engine.Block{
			Text:                strings.TrimSpace(b.Text),
			Frame:               toRect(b.Rect),
			CornerPoints:        engine.Points(toRect(b.Rect).Corners()),
			RecognizedLanguages: append([]engine.Language(nil), langs...),
		}
		for _, li := range blockLines[bi] {
			l := allLines[li]
			line := engine.Line{
				Text:                strings.TrimSpace(l.Text),
				Frame:               toRect(l.Rect),
				CornerPoints:        engine.Points(toRect(l.Rect).Corners()),
				RecognizedLanguages: append([]engine.Language(nil), langs...),
			}
			for _, w := range lineWords[li] {
				line.Elements = append(line.Elements, engine.Element{
					Text:         strings.TrimSpace(w.Text),
					Frame:        toRect(w.Rect),
					CornerPoints: engine.Points(toRect(w.Rect).Corners()),
				})
			}
			block.Lines = append(block.Lines, line)
		}
		text.Blocks = append(text.Blocks, block)
	}
	return text
}

// span builds a synthetic container covering members, with their texts
// joined by spaces.
func span(members []box) box {
	out := box{Rect: members[0].Rect}
	texts := make([]string, 0, len(members))
	for _, m := range members {
		out.Rect = out.Rect.Union(m.Rect)
		if t := strings.TrimSpace(m.Text); t != "" {
			texts = append(texts, t)
		}
	}
	out.Text = strings.Join(texts, " ")
	return out
}

// encode renders the oriented image upright as PNG for Tesseract. The
// buffer comes from mempool; the caller returns it once the bytes are no
// longer referenced.
func encode(img engine.OrientedImage) (*bytes.Buffer, error) {
	if img.Image == nil {
		return nil, engine.ErrNilImage
	}
	b := img.Image.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty %dx%d frame: %w", b.Dx(), b.Dy(), engine.ErrUnsupportedBuffer)
	}
	buf := mempool.GetBuffer()
	if err := png.Encode(buf, orientation.Upright(img.Image, img.Orientation)); err != nil {
		mempool.PutBuffer(buf)
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf, nil
}
