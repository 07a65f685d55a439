// Package parsers defines the contract every format-specific parser
// implements, plus a small registry keyed by file extension.
// Only two reference parsers live in this module (csvparser,
// markdownparser); every other format (DOCX, iWork Pages/Numbers, FB2,
// PPTX, HTML, ...) is an external collaborator that implements the same
// Parser interface out of process.
package parsers

import (
	"io"
	"strings"
	"sync"

	"github.com/docling-go/docling/internal/docerr"
	"github.com/docling-go/docling/internal/docmodel"
)

// Parser converts a raw input stream into a structured Document.
type Parser interface {
	// Parse reads all of r and returns the populated document, or a
	// docerr.Error of KindParse/KindIO describing the failure.
	Parse(r io.Reader, name string) (*docmodel.Document, error)
}

// Registry maps file extensions (including the leading dot, lowercase) to
// the Parser that handles them.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Parser)}
}

// Register associates ext (e.g. ".csv") with p. Registering the same
// extension twice replaces the previous parser.
func (r *Registry) Register(ext string, p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[strings.ToLower(ext)] = p
}

// Lookup returns the parser registered for ext, or ok=false.
func (r *Registry) Lookup(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[strings.ToLower(ext)]
	return p, ok
}

// Parse looks up the parser for ext and runs it, or returns a
// docerr.Error(KindParse) if no parser is registered.
func (r *Registry) Parse(ext string, rd io.Reader, name string) (*docmodel.Document, error) {
	p, ok := r.Lookup(ext)
	if !ok {
		return nil, docerr.Newf(docerr.KindParse, "no parser registered for extension %q", ext)
	}
	return p.Parse(rd, name)
}
