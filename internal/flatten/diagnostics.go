package flatten

import (
	"fmt"
	"log/slog"
)

// Kind classifies a skipped sub-element.
type Kind string

const (
	MalformedLanguageEntry Kind = "malformed_language_entry"
	MalformedCornerPoint   Kind = "malformed_corner_point"
)

// Diagnostic records one entry dropped while flattening.
type Diagnostic struct {
	Kind   Kind   `json:"kind"`
	Path   string `json:"path"`
	Detail string `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Path, d.Detail)
}

// Diagnostics is the side channel returned next to a document.
type Diagnostics []Diagnostic

// Count returns how many diagnostics have kind k.
func (ds Diagnostics) Count(k Kind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Log writes each diagnostic as a warning.
func (ds Diagnostics) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range ds {
		logger.Warn("Skipped malformed entry", "kind", string(d.Kind), "path", d.Path, "detail", d.Detail)
	}
}

func (ds *Diagnostics) add(kind Kind, path, format string, args ...any) {
	*ds = append(*ds, Diagnostic{Kind: kind, Path: path, Detail: fmt.Sprintf(format, args...)})
}
