package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"finitefield.org/storefront-web/internal/catalog"
	"finitefield.org/storefront-web/internal/i18n"
)

// templateSet parses every .tmpl file under dir. In dev mode templates are
// reparsed on each render.
type templateSet struct {
	dir    string
	dev    bool
	bundle *i18n.Bundle

	mu    sync.Mutex
	cache *template.Template
}

func newTemplateSet(dir string, dev bool, bundle *i18n.Bundle) *templateSet {
	return &templateSet{dir: dir, dev: dev, bundle: bundle}
}

func (s *templateSet) funcs() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			if s.bundle == nil {
				return key
			}
			return s.bundle.T(lang, key)
		},
		"has": catalog.Has,
		// jsonld marks a payload built by the seo package as safe script content.
		"jsonld": func(s string) template.JS { return template.JS(s) },
	}
}

func (s *templateSet) parse() (*template.Template, error) {
	// Recursively discover and parse all .tmpl files. Note: ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", s.dir)
	}
	return template.New("_root").Funcs(s.funcs()).ParseFiles(files...)
}

func (s *templateSet) load() (*template.Template, error) {
	if s.dev {
		return s.parse()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		return s.cache, nil
	}
	t, err := s.parse()
	if err != nil {
		return nil, err
	}
	s.cache = t
	return t, nil
}

// execute renders the named template into w.
func (s *templateSet) execute(w io.Writer, name string, data any) error {
	t, err := s.load()
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("template exec error: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}
