package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bull/rag-indexer/internal/document"
)

// TextLoader reads plain text files, one document per file.
type TextLoader struct {
	counter
}

// NewTextLoader creates a loader for .txt files.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads each .txt path into a single document with trimmed content.
func (l *TextLoader) Load(ctx context.Context, paths []string) ([]document.Document, error) {
	var out []document.Document
	for _, p := range paths {
		if !matches(p, ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		out = append(out, document.Document{
			Content: strings.TrimSpace(string(raw)),
			Metadata: map[string]any{
				"name": filepath.Base(p),
				"path": p,
				"type": "txt",
			},
		})
	}

	l.add(len(out))
	return out, nil
}

// Summary reports the running document count.
func (l *TextLoader) Summary() string {
	return fmt.Sprintf("txt: %d", l.count)
}
