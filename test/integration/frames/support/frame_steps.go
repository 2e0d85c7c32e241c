package support

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MeKo-Tech/frameocr/internal/engine/enginetest"
	"github.com/MeKo-Tech/frameocr/internal/flatten"
	"github.com/MeKo-Tech/frameocr/internal/frameproc"
	"github.com/MeKo-Tech/frameocr/internal/orientation"
	"github.com/MeKo-Tech/frameocr/internal/testutil"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theEngineRecognizesTheFixture(name string) error {
	fixture, err := testutil.ReadTextFixture(name)
	if err != nil {
		return err
	}
	text := fixture.Text
	testCtx.Engine.Push(enginetest.Response{Text: &text})
	return nil
}

func (testCtx *TestContext) theEngineFailsOnce() error {
	testCtx.Engine.Push(enginetest.Response{Err: errors.New("engine crashed")})
	return nil
}

func (testCtx *TestContext) theEngineIsUnavailable() error {
	testCtx.Processor = frameproc.New(nil, frameproc.WithLogger(testCtx.Logger))
	return nil
}

func (testCtx *TestContext) aCameraFrameReadingHeld(text, device string) error {
	o, err := orientation.Parse(device)
	if err != nil {
		return err
	}
	return testCtx.setFrame(text, o)
}

func (testCtx *TestContext) theFrameIsProcessed() error {
	testCtx.Document, testCtx.Diagnostics = testCtx.Processor.Process(context.Background(), testCtx.Frame)
	return nil
}

func (testCtx *TestContext) theDocumentShouldBeNull() error {
	if testCtx.Document != nil {
		return fmt.Errorf("expected no document, got %d blocks", len(testCtx.Document.Result.Blocks))
	}
	return nil
}

func (testCtx *TestContext) requireDocument() (*flatten.Document, error) {
	if testCtx.Document == nil {
		return nil, errors.New("no document was produced")
	}
	return testCtx.Document, nil
}

func (testCtx *TestContext) theDocumentShouldHaveBlocks(n int) error {
	doc, err := testCtx.requireDocument()
	if err != nil {
		return err
	}
	if got := len(doc.Result.Blocks); got != n {
		return fmt.Errorf("expected %d blocks, got %d", n, got)
	}
	return nil
}

func (testCtx *TestContext) block(index int) (flatten.Block, error) {
	doc, err := testCtx.requireDocument()
	if err != nil {
		return flatten.Block{}, err
	}
	if index < 1 || index > len(doc.Result.Blocks) {
		return flatten.Block{}, fmt.Errorf("block %d out of range (%d blocks)", index, len(doc.Result.Blocks))
	}
	return doc.Result.Blocks[index-1], nil
}

func (testCtx *TestContext) blockShouldRead(index int, text string) error {
	b, err := testCtx.block(index)
	if err != nil {
		return err
	}
	if b.Text != text {
		return fmt.Errorf("block %d reads %q, expected %q", index, b.Text, text)
	}
	return nil
}

func (testCtx *TestContext) theDocumentOrientationShouldBeFrom(applied, original string) error {
	doc, err := testCtx.requireDocument()
	if err != nil {
		return err
	}
	if doc.Result.Orientation != applied || doc.Result.OriginalOrientation != original {
		return fmt.Errorf("orientation %q from %q, expected %q from %q",
			doc.Result.Orientation, doc.Result.OriginalOrientation, applied, original)
	}
	return nil
}

func (testCtx *TestContext) theEngineShouldHaveReceivedOrientation(expected string) error {
	calls := testCtx.Engine.Calls()
	if len(calls) == 0 {
		return errors.New("the engine was never called")
	}
	if got := calls[len(calls)-1].Orientation.String(); got != expected {
		return fmt.Errorf("engine received %q, expected %q", got, expected)
	}
	return nil
}

func (testCtx *TestContext) diagnosticsShouldBeReported(n int) error {
	if got := len(testCtx.Diagnostics); got != n {
		return fmt.Errorf("expected %d diagnostics, got %d: %v", n, got, testCtx.Diagnostics)
	}
	return nil
}

func (testCtx *TestContext) diagnosticsOfKindShouldBeReported(n int, kind string) error {
	if got := testCtx.Diagnostics.Count(flatten.Kind(kind)); got != n {
		return fmt.Errorf("expected %d %s diagnostics, got %d", n, kind, got)
	}
	return nil
}

func (testCtx *TestContext) blockShouldHaveBoundingBox(index int, left, top, right, bottom float64) error {
	b, err := testCtx.block(index)
	if err != nil {
		return err
	}
	if b.BoundingBox == nil {
		return fmt.Errorf("block %d has no bounding box", index)
	}
	got := *b.BoundingBox
	if got.Left != left || got.Top != top || got.Right != right || got.Bottom != bottom {
		return fmt.Errorf("block %d bounding box %+v", index, got)
	}
	return nil
}

func (testCtx *TestContext) blockFrameShouldBe(index int, x, y, width, height float64) error {
	b, err := testCtx.block(index)
	if err != nil {
		return err
	}
	f := b.Frame
	if f.X != x || f.Y != y || f.Width != width || f.Height != height {
		return fmt.Errorf("block %d frame %+v", index, f)
	}
	return nil
}

func (testCtx *TestContext) everyElementShouldHaveNoSymbols() error {
	doc, err := testCtx.requireDocument()
	if err != nil {
		return err
	}
	for _, b := range doc.Result.Blocks {
		for _, l := range b.Lines {
			for _, e := range l.Elements {
				if e.Symbols == nil || len(e.Symbols) != 0 {
					return fmt.Errorf("element %q has symbols %v", e.Text, e.Symbols)
				}
			}
		}
	}
	return nil
}

func (testCtx *TestContext) theBoundaryFormShouldHaveKey(key string) error {
	doc, err := testCtx.requireDocument()
	if err != nil {
		return err
	}
	result, ok := doc.Map()["result"].(map[string]any)
	if !ok {
		return errors.New("boundary form has no result map")
	}
	if _, ok := result[key]; !ok {
		return fmt.Errorf("boundary form result has no %q key", key)
	}
	return nil
}

func (testCtx *TestContext) deviceOrientationMapsTo(device, expected string) error {
	o, err := parseOrientationOrTag(device)
	if err != nil {
		return err
	}
	if got := orientation.ToEngine(o).String(); got != expected {
		return fmt.Errorf("%s maps to %q, expected %q", device, got, expected)
	}
	return nil
}

// parseOrientationOrTag accepts labels and EXIF tags, plus "unknown" for
// a value outside the canonical set.
func parseOrientationOrTag(s string) (orientation.Orientation, error) {
	if s == "unknown" {
		return orientation.Orientation(42), nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		o, ok := orientation.FromEXIF(n)
		if !ok {
			return 0, fmt.Errorf("exif tag out of range: %d", n)
		}
		return o, nil
	}
	return orientation.Parse(s)
}

// RegisterFrameSteps registers the processing steps.
func (testCtx *TestContext) RegisterFrameSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the engine recognizes the "([^"]*)" fixture$`, testCtx.theEngineRecognizesTheFixture)
	sc.Step(`^the engine fails once$`, testCtx.theEngineFailsOnce)
	sc.Step(`^the engine is unavailable$`, testCtx.theEngineIsUnavailable)
	sc.Step(`^a camera frame reading "([^"]*)" held "([^"]*)"$`, testCtx.aCameraFrameReadingHeld)
	sc.Step(`^the frame is processed$`, testCtx.theFrameIsProcessed)
	sc.Step(`^the document should be null$`, testCtx.theDocumentShouldBeNull)
	sc.Step(`^the document should have (\d+) blocks?$`, testCtx.theDocumentShouldHaveBlocks)
	sc.Step(`^block (\d+) should read "([^"]*)"$`, testCtx.blockShouldRead)
	sc.Step(`^the document orientation should be "([^"]*)" from "([^"]*)"$`, testCtx.theDocumentOrientationShouldBeFrom)
	sc.Step(`^the engine should have received orientation "([^"]*)"$`, testCtx.theEngineShouldHaveReceivedOrientation)
	sc.Step(`^(\d+) diagnostics? should be reported$`, testCtx.diagnosticsShouldBeReported)
	sc.Step(`^(\d+) "([^"]*)" diagnostics? should be reported$`, testCtx.diagnosticsOfKindShouldBeReported)
	sc.Step(`^block (\d+) should have bounding box left (-?[\d.]+) top (-?[\d.]+) right (-?[\d.]+) bottom (-?[\d.]+)$`,
		testCtx.blockShouldHaveBoundingBox)
	sc.Step(`^block (\d+) frame should be x (-?[\d.]+) y (-?[\d.]+) width (-?[\d.]+) height (-?[\d.]+)$`,
		testCtx.blockFrameShouldBe)
	sc.Step(`^every element should have an empty symbol list$`, testCtx.everyElementShouldHaveNoSymbols)
	sc.Step(`^the boundary form should carry "([^"]*)"$`, testCtx.theBoundaryFormShouldHaveKey)
	sc.Step(`^device orientation "([^"]*)" should map to "([^"]*)"$`, testCtx.deviceOrientationMapsTo)
}
