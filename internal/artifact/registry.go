// Package artifact extracts version numbers from built plugin bundle names
// and writes them to pluginVersion.properties.
package artifact

import (
	"fmt"
	"regexp"

	"github.com/chromedevtools/releng/internal/models"
)

// Pattern describes one expected artifact kind.
// Fields name the capture groups of Expr, in order.
type Pattern struct {
	Kind   string
	Expr   string
	Fields []string

	re *regexp.Regexp
}

// Registry is a validated, ordered set of patterns plus the output field order.
type Registry struct {
	patterns []Pattern
	order    []string
}

// Default bundle name patterns. They are applied to bundle names, see
// BundleName: a packed jar without its .jar suffix or an unpacked directory.
const (
	MainBundleExpr    = `^org\.chromium\.sdk_(\d+\.\d+\.\d+)\.([^.]+)$`
	BackendBundleExpr = `^org\.chromium\.sdk\.wipbackends_(\d+\.\d+\.\d+)\.([^.]+)$`
)

// DefaultRegistry returns the registry for the ChromeDevTools plugin build.
func DefaultRegistry() *Registry {
	r, err := NewRegistry([]Pattern{
		{
			Kind:   "main",
			Expr:   MainBundleExpr,
			Fields: []string{models.FieldMainVersion, models.FieldMainBuilderVersion},
		},
		{
			Kind:   "backend",
			Expr:   BackendBundleExpr,
			Fields: []string{models.FieldBackendVersion, models.FieldBackendBuilderVersion},
		},
	}, models.DefaultFieldOrder)
	if err != nil {
		panic(fmt.Sprintf("artifact: invalid default registry: %v", err))
	}
	return r
}

// NewRegistry validates patterns and the output order.
//
// Every pattern must compile and have exactly len(Fields) capture groups.
// Kinds and field names must be unique. order must list every field exactly
// once; a nil order keeps registration order.
func NewRegistry(patterns []Pattern, order []string) (*Registry, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("registry has no patterns")
	}

	kinds := make(map[string]bool, len(patterns))
	fields := make(map[string]bool)
	var registered []string
	compiled := make([]Pattern, 0, len(patterns))

	for _, p := range patterns {
		if p.Kind == "" {
			return nil, fmt.Errorf("pattern %q has no kind", p.Expr)
		}
		if kinds[p.Kind] {
			return nil, fmt.Errorf("duplicate artifact kind %q", p.Kind)
		}
		kinds[p.Kind] = true

		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, fmt.Errorf("artifact kind %q: invalid pattern: %w", p.Kind, err)
		}
		if re.NumSubexp() != len(p.Fields) {
			return nil, fmt.Errorf("artifact kind %q: pattern has %d capture groups, want %d",
				p.Kind, re.NumSubexp(), len(p.Fields))
		}
		if len(p.Fields) == 0 {
			return nil, fmt.Errorf("artifact kind %q captures no fields", p.Kind)
		}
		for _, f := range p.Fields {
			if f == "" {
				return nil, fmt.Errorf("artifact kind %q has an empty field name", p.Kind)
			}
			if fields[f] {
				return nil, fmt.Errorf("field %q is captured by more than one pattern", f)
			}
			fields[f] = true
			registered = append(registered, f)
		}

		p.Fields = append([]string(nil), p.Fields...)
		p.re = re
		compiled = append(compiled, p)
	}

	if order == nil {
		order = registered
	}
	if len(order) != len(fields) {
		return nil, fmt.Errorf("output order lists %d fields, registry captures %d", len(order), len(fields))
	}
	seen := make(map[string]bool, len(order))
	for _, f := range order {
		if !fields[f] {
			return nil, fmt.Errorf("output order names unknown field %q", f)
		}
		if seen[f] {
			return nil, fmt.Errorf("output order lists %q twice", f)
		}
		seen[f] = true
	}

	return &Registry{
		patterns: compiled,
		order:    append([]string(nil), order...),
	}, nil
}

// Patterns returns the registered patterns in registration order.
func (r *Registry) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// Order returns the output field order.
func (r *Registry) Order() []string {
	return append([]string(nil), r.order...)
}
