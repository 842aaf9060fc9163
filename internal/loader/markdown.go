package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"

	"github.com/bull/rag-indexer/internal/document"
)

// MarkdownLoader reads markdown files, one document per file. The markup is
// parsed and flattened to plain text so embeddings are not polluted with
// syntax; the heading outline is kept as metadata for filtering.
type MarkdownLoader struct {
	counter
	parser goldmark.Markdown
}

// NewMarkdownLoader creates a loader for .md files.
func NewMarkdownLoader() *MarkdownLoader {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &MarkdownLoader{parser: md}
}

// Load parses each .md path and emits its plain text content.
func (l *MarkdownLoader) Load(ctx context.Context, paths []string) ([]document.Document, error) {
	var out []document.Document
	for _, p := range paths {
		if !matches(p, ".md") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		doc, err := l.parse(p, source)
		if err != nil {
			return nil, err
		}
		if doc.Content == "" {
			continue
		}
		out = append(out, doc)
	}

	l.add(len(out))
	return out, nil
}

func (l *MarkdownLoader) parse(path string, source []byte) (document.Document, error) {
	reader := text.NewReader(source)
	root := l.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(root, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return document.Document{}, fmt.Errorf("inspect outline of %s: %w", path, err)
	}

	meta := map[string]any{
		"name": filepath.Base(path),
		"path": path,
		"type": "md",
	}
	if outline := flattenOutline(tree.Items); outline != "" {
		meta["outline"] = outline
	}

	return document.Document{
		Content:  extractText(root, source),
		Metadata: meta,
	}, nil
}

// flattenOutline renders the H1/H2 heading titles as a single
// "A > B" separated string.
func flattenOutline(items toc.Items) string {
	var titles []string
	var walk func(items toc.Items)
	walk = func(items toc.Items) {
		for _, item := range items {
			titles = append(titles, string(item.Title))
			walk(item.Items)
		}
	}
	walk(items)
	return strings.Join(titles, " > ")
}

// extractText walks the AST and collects text segments, separating block
// nodes with newlines.
func extractText(root ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch t := n.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
			}
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock {
			buf.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

// Summary reports the running document count.
func (l *MarkdownLoader) Summary() string {
	return fmt.Sprintf("md: %d", l.count)
}
