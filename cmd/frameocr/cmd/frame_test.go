package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/frameocr/internal/config"
	"github.com/MeKo-Tech/frameocr/internal/engine"
	"github.com/MeKo-Tech/frameocr/internal/engine/enginetest"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frame"
	"github.com/MeKo-Tech/frameocr/internal/frameproc"
	"github.com/MeKo-Tech/frameocr/internal/geometry"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func helloText() *engine.Text {
	r := &geometry.Rect{X: 10, Y: 20, Width: 100, Height: 30}
	return &engine.Text{
		Text: "Hello",
		Blocks: []engine.Block{{
			Text:                "Hello",
			Frame:               r,
			RecognizedLanguages: []engine.Language{{Code: "en"}},
			Lines: []engine.Line{{
				Text:     "Hello",
				Frame:    r,
				Elements: []engine.Element{{Text: "Hello", Frame: r}},
			}},
		}},
	}
}

func defaultFrameOptions() frameOptions {
	return frameOptions{
		Orientation: orientation.Up,
		Format:      flatten.FormatJSON,
		MaxBytes:    frame.MaxBytes(20),
	}
}

func TestFrameCommand(t *testing.T) {
	assert.True(t, strings.HasPrefix(frameCmd.Use, "frame"))
	assert.NotEmpty(t, frameCmd.Short)
	assert.NotEmpty(t, frameCmd.Long)

	for _, name := range []string{"orientation", "format", "pretty", "output", "max-image-mb"} {
		assert.NotNil(t, frameCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestFrameCommandRequiresFile(t *testing.T) {
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"frame"})
	require.Error(t, err)
}

func TestRunFrames_JSON(t *testing.T) {
	dir := t.TempDir()
	cfg := testutil.DefaultFrameConfig()
	cfg.Orientation = orientation.Left
	path := testutil.WriteFrame(t, dir, "hello.png", cfg)

	eng := enginetest.Returning(helloText())
	proc := frameproc.New(eng, frameproc.WithLogger(discardLogger()))

	opts := defaultFrameOptions()
	opts.Orientation = orientation.Left

	var out bytes.Buffer
	require.NoError(t, runFrames(context.Background(), &out, proc, []string{path}, opts, discardLogger()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	result := doc["result"].(map[string]any)
	assert.Equal(t, "Hello", result["text"])
	assert.Equal(t, "right", result["orientation"])
	assert.Equal(t, "left", result["og-orientation"])

	calls := eng.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, orientation.Right, calls[0].Orientation)
	assert.Equal(t, 240, calls[0].Image.Bounds().Dx())
}

func TestRunFrames_EngineFailurePrintsNull(t *testing.T) {
	path := testutil.WriteFrame(t, t.TempDir(), "frame.png", testutil.DefaultFrameConfig())
	proc := frameproc.New(enginetest.Failing(nil), frameproc.WithLogger(discardLogger()))

	var out bytes.Buffer
	require.NoError(t, runFrames(context.Background(), &out, proc, []string{path}, defaultFrameOptions(), discardLogger()))
	assert.Equal(t, "null\n", out.String())
}

func TestRunFrames_MultipleText(t *testing.T) {
	dir := t.TempDir()
	first := testutil.WriteFrame(t, dir, "a.png", testutil.DefaultFrameConfig())
	second := testutil.WriteFrame(t, dir, "b.png", testutil.DefaultFrameConfig())
	proc := frameproc.New(enginetest.Returning(helloText()), frameproc.WithLogger(discardLogger()))

	opts := defaultFrameOptions()
	opts.Format = flatten.FormatText

	var out bytes.Buffer
	require.NoError(t, runFrames(context.Background(), &out, proc, []string{first, second}, opts, discardLogger()))

	expected := "== " + first + " ==\nHello\n\n== " + second + " ==\nHello\n"
	assert.Equal(t, expected, out.String())
}

func TestRunFrames_MultipleYAML(t *testing.T) {
	dir := t.TempDir()
	first := testutil.WriteFrame(t, dir, "a.png", testutil.DefaultFrameConfig())
	second := testutil.WriteFrame(t, dir, "b.png", testutil.DefaultFrameConfig())
	proc := frameproc.New(enginetest.Returning(helloText()), frameproc.WithLogger(discardLogger()))

	opts := defaultFrameOptions()
	opts.Format = flatten.FormatYAML

	var out bytes.Buffer
	require.NoError(t, runFrames(context.Background(), &out, proc, []string{first, second}, opts, discardLogger()))
	assert.Equal(t, 2, strings.Count(out.String(), "--- # "))
	assert.Equal(t, 2, strings.Count(out.String(), "og-orientation: up"))
}

func TestRunFrames_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFrame(t, dir, "good.png", testutil.DefaultFrameConfig())
	missing := filepath.Join(dir, "missing.png")
	proc := frameproc.New(enginetest.Returning(helloText()), frameproc.WithLogger(discardLogger()))

	var out bytes.Buffer
	err := runFrames(context.Background(), &out, proc, []string{missing, good}, defaultFrameOptions(), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 frames")
	assert.Contains(t, out.String(), "Hello")

	err = runFrames(context.Background(), &out, proc, []string{missing}, defaultFrameOptions(), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no frame could be loaded")
}

func TestRunFrames_UnsupportedFormat(t *testing.T) {
	path := testutil.WriteFrame(t, t.TempDir(), "frame.png", testutil.DefaultFrameConfig())
	proc := frameproc.New(enginetest.Returning(helloText()), frameproc.WithLogger(discardLogger()))

	opts := defaultFrameOptions()
	opts.Format = "xml"

	err := runFrames(context.Background(), io.Discard, proc, []string{path}, opts, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestEngineFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NotNil(t, engineFactory(&cfg, discardLogger()))

	cfg.Engine.Name = config.EngineNone
	assert.Nil(t, engineFactory(&cfg, discardLogger()))
}

func TestFrameCommand_NoEngine(t *testing.T) {
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("engine", config.EngineTesseract)
		_ = frameCmd.Flags().Set("recursive", "false")
	})
	dir := t.TempDir()
	testutil.WriteFrame(t, dir, "a.png", testutil.DefaultFrameConfig())
	testutil.WriteFrame(t, filepath.Join(dir, "nested"), "b.png", testutil.DefaultFrameConfig())

	output, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"--engine", "none", "frame", "--recursive", dir})
	require.NoError(t, err)
	assert.Equal(t, "null\nnull", output)
}

func TestFrameCommand_NoFramesFound(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommandAndCaptureOutput(t, rootCmd, []string{"frame", dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no frame files found")
}
