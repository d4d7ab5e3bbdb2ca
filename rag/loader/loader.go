// Package loader turns source files into rag Documents. A registry routes
// each file to the loader registered for its extension; built-in loaders
// cover plain text, markdown, PDF page text and captioned raster images.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ragshield/ragshield/rag"
)

// DocumentLoader is the unified interface for loading documents from a
// source file.
type DocumentLoader interface {
	// Load reads the source and returns its documents.
	Load(ctx context.Context, source string) ([]rag.Document, error)

	// SupportedTypes returns the file extensions this loader handles
	// (lowercase, with the leading dot).
	SupportedTypes() []string
}

// Registry routes Load calls to the DocumentLoader registered for the
// source's file extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]DocumentLoader
}

// NewRegistry creates a registry pre-populated with the text and markdown
// loaders. PDF and image loaders are registered by the caller because they
// need configuration (the image loader carries a caption provider).
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]DocumentLoader)}
	r.RegisterLoader(NewTextLoader())
	return r
}

// RegisterLoader adds a loader under all of its supported extensions.
func (r *Registry) RegisterLoader(l DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range l.SupportedTypes() {
		r.loaders[strings.ToLower(ext)] = l
	}
}

// Load resolves the loader from the source's extension and delegates to it.
func (r *Registry) Load(ctx context.Context, source string) ([]rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return nil, fmt.Errorf("loader: cannot determine file type for %q (no extension)", source)
	}

	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("loader: no loader registered for extension %q", ext)
	}

	return l.Load(ctx, source)
}

// Supports reports whether a loader is registered for the source's
// extension.
func (r *Registry) Supports(source string) bool {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaders[ext]
	return ok
}

// SupportedTypes returns all registered extensions, sorted.
func (r *Registry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
