package flatten

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats understood by Render.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatYAML, FormatText}

// ToJSON serializes the document. A nil document encodes as null, the
// signal for a frame without a result.
func ToJSON(d *Document, pretty bool) (string, error) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(d, "", "  ")
	} else {
		b, err = json.Marshal(d)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes the document as YAML.
func ToYAML(d *Document) (string, error) {
	b, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText returns the block texts in reading order, one per line.
func ToPlainText(d *Document) string {
	if d == nil {
		return ""
	}
	lines := make([]string, 0, len(d.Result.Blocks))
	for _, b := range d.Result.Blocks {
		if t := strings.TrimSpace(b.Text); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

// Render serializes the document in the named format.
func Render(d *Document, format string, pretty bool) (string, error) {
	switch format {
	case FormatJSON, "":
		return ToJSON(d, pretty)
	case FormatYAML:
		return ToYAML(d)
	case FormatText:
		return ToPlainText(d), nil
	default:
		return "", fmt.Errorf("unsupported output format %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
}
