package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bull/rag-indexer/internal/document"
)

// CSVLoader reads CSV files, producing one document per data row. The row
// content is a "column=value" rendering in header order, which gives the
// embedder a stable textual form for tabular data.
type CSVLoader struct {
	counter
}

// NewCSVLoader creates a loader for .csv files.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// Load reads each .csv path. The first record is treated as the header; each
// following record becomes a document with a "row" metadata index.
func (l *CSVLoader) Load(ctx context.Context, paths []string) ([]document.Document, error) {
	var out []document.Document
	for _, p := range paths {
		if !matches(p, ".csv") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docs, err := l.loadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}

	l.add(len(out))
	return out, nil
}

func (l *CSVLoader) loadFile(path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var docs []document.Document
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d of %s: %w", row, path, err)
		}

		pairs := make([]string, 0, len(record))
		for i, v := range record {
			key := fmt.Sprintf("col%d", i)
			if i < len(header) {
				key = header[i]
			}
			pairs = append(pairs, key+"="+v)
		}

		docs = append(docs, document.Document{
			Content: strings.Join(pairs, ", "),
			Metadata: map[string]any{
				"name": filepath.Base(path),
				"path": path,
				"row":  row,
				"type": "csv",
			},
		})
	}

	return docs, nil
}

// Summary reports the running row count.
func (l *CSVLoader) Summary() string {
	return fmt.Sprintf("csv rows: %d", l.count)
}
