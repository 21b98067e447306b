// Package render binds page contexts to named html/template files.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"sync"
)

//go:embed templates
var embedded embed.FS

// ErrTemplateMissing reports a template name that is not in the loader's
// file system.
var ErrTemplateMissing = errors.New("template missing")

// PartialsGlob selects the shared snippets parsed alongside every page.
const PartialsGlob = "partials/*.html"

// Context is the variable set a template is executed with. Keys absent from
// the map render as the empty string.
type Context map[string]any

// Embedded returns the templates compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer loads templates by name from a file system and caches the parsed
// result. One Renderer is built per run and handed to whatever needs pages.
type Renderer struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

// New returns a Renderer reading templates from fsys.
func New(fsys fs.FS) *Renderer {
	return &Renderer{
		fsys:  fsys,
		funcs: Funcs(),
		cache: make(map[string]*template.Template),
	}
}

// Render executes the named template with ctx and returns the output.
func (r *Renderer) Render(name string, ctx Context) (string, error) {
	t, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	if ctx == nil {
		ctx = Context{}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Names lists the page templates available, partials excluded.
func (r *Renderer) Names() ([]string, error) {
	var out []string
	err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		if ok, _ := path.Match(PartialsGlob, p); ok {
			return nil
		}
		out = append(out, p)
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[name]; ok {
		return t, nil
	}

	body, err := fs.ReadFile(r.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, name)
	}
	if err != nil {
		return nil, err
	}

	t := template.New(name).Funcs(r.funcs)
	partials, err := fs.Glob(r.fsys, PartialsGlob)
	if err != nil {
		return nil, err
	}
	for _, p := range partials {
		src, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return nil, err
		}
		if _, err := t.New(p).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	if _, err := t.Parse(string(body)); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	r.cache[name] = t
	return t, nil
}
