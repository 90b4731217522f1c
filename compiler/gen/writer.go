package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// writer writes rendered files under a directory in parallel.
type writer struct {
	dir     string
	header  string
	workers int
	bytes   atomic.Int64
}

func (w *writer) write(ctx context.Context, files []*File) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.writeFile(f)
		})
	}
	return eg.Wait()
}

func (w *writer) writeFile(f *File) error {
	path := filepath.Join(w.dir, filepath.FromSlash(f.Path))
	content, err := w.format(path, f.Content)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debug := path + ".error"
		_ = os.MkdirAll(filepath.Dir(debug), 0o755)
		_ = os.WriteFile(debug, f.Content, 0o644)
		return NewGenerationError("", f.Path, "format (unformatted written to "+debug+")", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	w.bytes.Add(int64(len(content)))
	return nil
}

// format prepends the header comment and runs goimports over go files.
func (w *writer) format(path string, content []byte) ([]byte, error) {
	ext := filepath.Ext(path)
	if w.header != "" {
		content = append([]byte(commentHeader(w.header, ext)), content...)
	}
	if ext != ".go" {
		return content, nil
	}
	return imports.Process(path, content, nil)
}

// commentHeader renders the header as a comment of the file type.
func commentHeader(header, ext string) string {
	prefix := "# "
	switch ext {
	case ".go":
		prefix = "// "
	case ".sql":
		prefix = "-- "
	}
	var b strings.Builder
	for _, l := range strings.Split(strings.TrimRight(header, "\n"), "\n") {
		b.WriteString(strings.TrimRight(prefix+l, " "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}
