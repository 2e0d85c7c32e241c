package flatten

import "github.com/MeKo-Tech/frameocr/internal/geometry"

// Document is the per-frame output. Its JSON form is the contract consumed
// across the plugin boundary.
type Document struct {
	Result Result `json:"result" yaml:"result"`
}

// Result holds the recognized text and the orientations in play.
type Result struct {
	Text   string  `json:"text" yaml:"text"`
	Blocks []Block `json:"blocks" yaml:"blocks"`
	// Orientation is the orientation assigned to the image for recognition.
	Orientation string `json:"orientation" yaml:"orientation"`
	// OriginalOrientation is the untouched device orientation.
	OriginalOrientation string `json:"og-orientation" yaml:"og-orientation"`
}

// Block mirrors an engine block.
type Block struct {
	Text                string                   `json:"text" yaml:"text"`
	RecognizedLanguages []string                 `json:"recognizedLanguages" yaml:"recognizedLanguages"`
	CornerPoints        []geometry.Point         `json:"cornerPoints" yaml:"cornerPoints"`
	Frame               geometry.FrameDescriptor `json:"frame" yaml:"frame"`
	BoundingBox         *geometry.BoundingBox    `json:"boundingBox" yaml:"boundingBox"`
	Lines               []Line                   `json:"lines" yaml:"lines"`
}

// Line mirrors an engine line.
type Line struct {
	Text                string                   `json:"text" yaml:"text"`
	RecognizedLanguages []string                 `json:"recognizedLanguages" yaml:"recognizedLanguages"`
	CornerPoints        []geometry.Point         `json:"cornerPoints" yaml:"cornerPoints"`
	Frame               geometry.FrameDescriptor `json:"frame" yaml:"frame"`
	BoundingBox         *geometry.BoundingBox    `json:"boundingBox" yaml:"boundingBox"`
	Elements            []Element                `json:"elements" yaml:"elements"`
}

// Element mirrors an engine element. Symbols is always empty.
type Element struct {
	Text         string                   `json:"text" yaml:"text"`
	CornerPoints []geometry.Point         `json:"cornerPoints" yaml:"cornerPoints"`
	Frame        geometry.FrameDescriptor `json:"frame" yaml:"frame"`
	BoundingBox  *geometry.BoundingBox    `json:"boundingBox" yaml:"boundingBox"`
	Symbols      []Symbol                 `json:"symbols" yaml:"symbols"`
}

// Symbol is reserved for character-level output and never populated.
type Symbol struct{}
