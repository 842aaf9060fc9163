// Package loader converts raw files of known formats into normalized
// documents. Each loader filters its input to paths whose extension matches
// and silently skips everything else, so a mixed path list can be handed to
// any loader without pre-sorting.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bull/rag-indexer/internal/document"
)

// ErrUnsupported is returned by the registry when no loader is registered
// for a file's extension.
var ErrUnsupported = errors.New("no loader available")

// Loader produces documents from raw files of one format.
type Loader interface {
	// Load reads every path whose extension matches the loader's format and
	// returns one or more documents per matching file. Non-matching paths
	// are skipped without error; I/O or parse failures on matching paths
	// are returned.
	Load(ctx context.Context, paths []string) ([]document.Document, error)

	// Summary reports how many documents this loader has produced.
	Summary() string

	// Reset zeroes the document counter.
	Reset()
}

// Format identifies a supported file format. Unknown extensions map to
// FormatUnsupported rather than falling through.
type Format int

const (
	FormatUnsupported Format = iota
	FormatText
	FormatCSV
	FormatPDF
	FormatMarkdown
)

// String returns the file extension for the format, without the dot.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatCSV:
		return "csv"
	case FormatPDF:
		return "pdf"
	case FormatMarkdown:
		return "md"
	default:
		return "unsupported"
	}
}

// Detect maps a path to its format by extension, case-insensitively.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText
	case ".csv":
		return FormatCSV
	case ".pdf":
		return FormatPDF
	case ".md":
		return FormatMarkdown
	default:
		return FormatUnsupported
	}
}

// Registry holds one loader instance per supported format. Loader instances
// are long-lived so their document counters accumulate across calls.
type Registry struct {
	loaders map[Format]Loader
}

// NewRegistry creates a registry with the standard loaders. The command
// runner is used by the PDF loader; pass nil for the default.
func NewRegistry(runner CommandRunner) *Registry {
	return &Registry{
		loaders: map[Format]Loader{
			FormatText:     NewTextLoader(),
			FormatCSV:      NewCSVLoader(),
			FormatPDF:      NewPDFLoader(runner),
			FormatMarkdown: NewMarkdownLoader(),
		},
	}
}

// ForPath resolves the loader for a path by extension.
func (r *Registry) ForPath(path string) (Loader, error) {
	format := Detect(path)
	if l, ok := r.loaders[format]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w for %s files", ErrUnsupported, strings.TrimPrefix(filepath.Ext(path), "."))
}

// Supported reports whether a path's extension has a registered loader.
func (r *Registry) Supported(path string) bool {
	_, ok := r.loaders[Detect(path)]
	return ok
}

// Summaries returns the per-loader document counters, keyed by format name.
func (r *Registry) Summaries() map[string]string {
	out := make(map[string]string, len(r.loaders))
	for format, l := range r.loaders {
		out[format.String()] = l.Summary()
	}
	return out
}

// counter tracks how many documents a loader has produced. Loaders are used
// from a single goroutine, so a plain int is enough.
type counter struct {
	count int
}

func (c *counter) add(n int) {
	c.count += n
}

func (c *counter) Reset() {
	c.count = 0
}

// matches reports whether the path has the given extension, ignoring case.
func matches(path, ext string) bool {
	return strings.HasSuffix(strings.ToLower(path), ext)
}
