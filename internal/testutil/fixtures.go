package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/stretchr/testify/require"
)

// TextFixture is a recorded engine result with the document it should
// flatten into.
type TextFixture struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Text        engine.Text      `json:"recognized"`
	Expected    ExpectedDocument `json:"expected"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// ExpectedDocument is the part of a flattened document a fixture pins.
type ExpectedDocument struct {
	Text        string `json:"text"`
	Blocks      int    `json:"blocks"`
	Lines       int    `json:"lines"`
	Elements    int    `json:"elements"`
	Diagnostics int    `json:"diagnostics"`
}

// LoadTextFixture reads testdata/fixtures/<name>.json. Corner points
// decode as {"x":..,"y":..} maps, the shape engines hand over untyped.
func LoadTextFixture(t testing.TB, name string) TextFixture {
	t.Helper()

	path := filepath.Join(GetFixturesDir(t), name+".json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading test fixture files with controlled paths
	require.NoError(t, err, "Failed to read fixture file: %s", path)

	fixture, err := ParseTextFixture(data)
	require.NoError(t, err, "Failed to unmarshal fixture %s", path)
	return fixture
}

// ReadTextFixture reads a fixture without a test handle, for the
// integration suite.
func ReadTextFixture(name string) (TextFixture, error) {
	root, err := GetProjectRoot()
	if err != nil {
		return TextFixture{}, err
	}
	path := filepath.Join(root, "testdata", "fixtures", name+".json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading test fixture files with controlled paths
	if err != nil {
		return TextFixture{}, fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	fixture, err := ParseTextFixture(data)
	if err != nil {
		return TextFixture{}, fmt.Errorf("failed to parse fixture %s: %w", name, err)
	}
	return fixture, nil
}

// ParseTextFixture decodes a fixture from JSON.
func ParseTextFixture(data []byte) (TextFixture, error) {
	var fixture TextFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return TextFixture{}, err
	}
	return fixture, nil
}

// ListTextFixtures returns the names of all fixtures in testdata/fixtures.
func ListTextFixtures(t testing.TB) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(GetFixturesDir(t), "*.json"))
	require.NoError(t, err)

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(".json")])
	}
	return names
}
