package loader

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bull/rag-indexer/internal/document"
)

// CommandRunner executes an external command and returns its stdout. The
// PDF loader extracts text through pdftotext, and tests substitute a fake
// runner so no poppler install is needed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFLoader extracts text from PDF files via the pdftotext tool, one
// document per file. Files whose extraction is blank are skipped, matching
// the behavior of the other loaders for empty content.
type PDFLoader struct {
	counter
	runner CommandRunner
}

// NewPDFLoader creates a loader for .pdf files. A nil runner uses pdftotext
// from PATH.
func NewPDFLoader(runner CommandRunner) *PDFLoader {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDFLoader{runner: runner}
}

// Load extracts text from each .pdf path.
func (l *PDFLoader) Load(ctx context.Context, paths []string) ([]document.Document, error) {
	var out []document.Document
	for _, p := range paths {
		if !matches(p, ".pdf") {
			continue
		}

		raw, err := l.runner.Run(ctx, "pdftotext", "-layout", p, "-")
		if err != nil {
			return nil, fmt.Errorf("extract text from %s: %w", p, err)
		}

		text := strings.TrimSpace(string(raw))
		if text == "" {
			continue
		}

		out = append(out, document.Document{
			Content: text,
			Metadata: map[string]any{
				"name": filepath.Base(p),
				"path": p,
				"type": "pdf",
			},
		})
	}

	l.add(len(out))
	return out, nil
}

// Summary reports the running document count.
func (l *PDFLoader) Summary() string {
	return fmt.Sprintf("pdf: %d", l.count)
}
