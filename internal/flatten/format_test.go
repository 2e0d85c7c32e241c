package flatten

import (
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestToJSON_Nil(t *testing.T) {
	out, err := ToJSON(nil, true)
	require.NoError(t, err)
	assert.Equal(t, "null", out)
}

func TestToYAML(t *testing.T) {
	doc, _ := Flatten(sampleText(), orientation.Up, orientation.Up)

	out, err := ToYAML(doc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	result := decoded["result"].(map[string]any)
	assert.Equal(t, "Hello world", result["text"])
	assert.Equal(t, "up", result["og-orientation"])
	blocks := result["blocks"].([]any)
	require.Len(t, blocks, 1)
	frame := blocks[0].(map[string]any)["frame"].(map[string]any)
	assert.Contains(t, frame, "boundingCenterX")
}

func TestToPlainText(t *testing.T) {
	doc, _ := Flatten(sampleText(), orientation.Up, orientation.Up)
	doc.Result.Blocks = append(doc.Result.Blocks, Block{Text: "  "}, Block{Text: "Second\n"})

	assert.Equal(t, "Hello world\nSecond", ToPlainText(doc))
	assert.Empty(t, ToPlainText(nil))
}

func TestRender(t *testing.T) {
	doc, _ := Flatten(sampleText(), orientation.Up, orientation.Up)

	for _, f := range Formats {
		out, err := Render(doc, f, false)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}

	_, err := Render(doc, "csv", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
