package docs

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrUnknownType = errors.New("docs: unknown document type")

type catalog struct {
	byType map[string]*Definition
	sorted []*Definition
}

func newCatalog(defs []*Definition) *catalog {
	c := &catalog{byType: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		c.byType[d.Type] = d
	}
	for _, d := range c.byType {
		c.sorted = append(c.sorted, d)
	}
	slices.SortFunc(c.sorted, func(a, b *Definition) int {
		return strings.Compare(a.Type, b.Type)
	})
	return c
}

// Registry holds the document types available to the service.
// The built-in templates are always loaded; templates in Dir add types or replace built-in ones.
// Reload swaps the whole set at once, so readers never observe a partial reload.
type Registry struct {
	Dir    string
	Logger *zap.Logger

	current atomic.Pointer[catalog]
}

// NewRegistry loads the built-in templates and, when dir is not empty, the templates in dir.
func NewRegistry(dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{Dir: dir, Logger: logger.Named("docs")}
	if _, err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStaticRegistry serves exactly defs and never reloads from disk.
func NewStaticRegistry(defs ...*Definition) *Registry {
	r := &Registry{Logger: zap.NewNop()}
	r.current.Store(newCatalog(defs))
	return r
}

// Reload re-reads every template source and returns the number of types now registered.
// On error the previous set stays in place.
func (r *Registry) Reload() (int, error) {
	defs, err := Load(Builtin())
	if err != nil {
		return 0, fmt.Errorf("built-in templates: %w", err)
	}
	if r.Dir != "" {
		extra, err := Load(os.DirFS(r.Dir))
		if err != nil {
			return 0, fmt.Errorf("templates dir %s: %w", r.Dir, err)
		}
		// later entries win in newCatalog
		defs = append(defs, extra...)
	}
	c := newCatalog(defs)
	r.current.Store(c)
	r.Logger.Info("document templates loaded", zap.Int("types", len(c.sorted)), zap.String("dir", r.Dir))
	return len(c.sorted), nil
}

func (r *Registry) Get(docType string) (*Definition, error) {
	if d, ok := r.current.Load().byType[docType]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, docType)
}

// List returns the definitions sorted by type.
func (r *Registry) List() []*Definition {
	return slices.Clone(r.current.Load().sorted)
}

func (r *Registry) Len() int {
	return len(r.current.Load().sorted)
}
