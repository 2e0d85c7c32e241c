package flatten

import (
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFlatten_Fixtures(t *testing.T) {
	for _, name := range testutil.ListTextFixtures(t) {
		t.Run(name, func(t *testing.T) {
			fixture := testutil.LoadTextFixture(t, name)

			doc, diags := Flatten(&fixture.Text, orientation.Right, orientation.Left)

			assert.Equal(t, fixture.Expected.Text, doc.Result.Text)
			assert.Len(t, doc.Result.Blocks, fixture.Expected.Blocks)
			assert.Len(t, diags, fixture.Expected.Diagnostics)
			assert.Equal(t, "right", doc.Result.Orientation)
			assert.Equal(t, "left", doc.Result.OriginalOrientation)

			lines, elements := 0, 0
			for _, b := range doc.Result.Blocks {
				lines += len(b.Lines)
				for _, l := range b.Lines {
					elements += len(l.Elements)
					for _, e := range l.Elements {
						assert.NotNil(t, e.Symbols)
						assert.Empty(t, e.Symbols)
					}
				}
			}
			assert.Equal(t, fixture.Expected.Lines, lines)
			assert.Equal(t, fixture.Expected.Elements, elements)
		})
	}
}

func TestFlatten_MalformedFixtureKeepsReadableEntries(t *testing.T) {
	fixture := testutil.LoadTextFixture(t, "malformed")

	doc, diags := Flatten(&fixture.Text, orientation.Up, orientation.Up)

	block := doc.Result.Blocks[0]
	assert.Equal(t, []string{"en"}, block.RecognizedLanguages)
	assert.Len(t, block.CornerPoints, 2)
	assert.Equal(t, 1, diags.Count(MalformedLanguageEntry))
	assert.Equal(t, 2, diags.Count(MalformedCornerPoint))

	element := block.Lines[0].Elements[0]
	assert.Nil(t, element.BoundingBox)
	assert.Zero(t, element.Frame.Width)
}
