package gen

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/tools/imports"
)

// WriterMetrics tracks generation performance.
type WriterMetrics struct {
	mu             sync.Mutex
	FilesGenerated int
	TotalBytes     int64
	RenderTime     time.Duration
	FormatTime     time.Duration
	WriteTime      time.Duration
}

func (m *WriterMetrics) add(bytes int, render, format, write time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesGenerated++
	m.TotalBytes += int64(bytes)
	m.RenderTime += render
	m.FormatTime += format
	m.WriteTime += write
}

// emit renders, formats and writes a single unit.
func (g *JenniferGenerator) emit(u unit) *EmitError {
	// 1. Render
	start := time.Now()
	f, err := u.gen()
	if err != nil {
		return NewEmitError(u.name, u.file, "render", err)
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewEmitError(u.name, u.file, "render", err)
	}
	render := time.Since(start)

	// 2. Format using goimports (removes unused imports and adds missing ones)
	start = time.Now()
	dir := g.outDir
	if u.subdir != "" {
		dir = filepath.Join(g.outDir, u.subdir)
	}
	fullPath := filepath.Join(dir, u.file)
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		return NewEmitError(u.name, u.file, "format", err)
	}
	format := time.Since(start)

	// 3. Write
	start = time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewEmitError(u.name, u.file, "write", err)
	}
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return NewEmitError(u.name, u.file, "write", err)
	}
	g.metrics.add(len(formatted), render, format, time.Since(start))
	return nil
}
