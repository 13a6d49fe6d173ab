package transform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"regcorpus/features/catalog"
)

var ErrNoParser = errors.New("no parser registered")

// Parser turns one raw payload into records.
type Parser interface {
	Parse(ctx context.Context, src catalog.Source, raw []byte) ([]Record, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, src catalog.Source, raw []byte) ([]Record, error)

func (f ParserFunc) Parse(ctx context.Context, src catalog.Source, raw []byte) ([]Record, error) {
	return f(ctx, src, raw)
}

// Registry maps source kinds to parsers. Kinds are matched case-insensitively.
type Registry struct {
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// NewDefaultRegistry registers the built-in parsers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	html := NewHTMLParser(DefaultMaxSectionChars)
	r.Register("html", html)
	r.Register("law", html)
	r.Register("text", TextParser{})
	r.Register("txt", TextParser{})
	r.Register("json", JSONParser{})
	r.Register("rules", JSONParser{})
	return r
}

func (r *Registry) Register(kind string, p Parser) {
	r.parsers[strings.ToLower(kind)] = p
}

func (r *Registry) Parser(kind string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w for kind %q", ErrNoParser, kind)
	}
	return p, nil
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
