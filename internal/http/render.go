package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"fintrack/internal/view"
)

// templateSet holds the shared layout and partials plus one clone per page,
// so every page can define its own "content" block.
type templateSet struct {
	base  *template.Template
	pages map[string]*template.Template
}

func parseTemplates(fsys fs.FS) (*templateSet, error) {
	base, err := template.New("base").Funcs(template.FuncMap{
		"categories": view.Categories,
	}).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	set := &templateSet{base: base, pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		set.pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return set, nil
}

// page renders a full document through the layout.
func (t *templateSet) page(w io.Writer, name string, data any) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return page.ExecuteTemplate(w, "layout", data)
}

// partial renders one shared fragment.
func (t *templateSet) partial(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.base.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
