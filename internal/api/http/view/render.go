package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin/render"
)

const (
	PageIndex     = "index"
	PageAbout     = "about"
	PageSchedule  = "schedule"
	PageReminders = "reminders"

	layoutName = "layout"
	timeLayout = "2006-01-02 15:04"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer is a gin render.HTMLRender serving every page inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	return NewRendererFS(templatesFS)
}

// NewRendererFS parses templates/layout.html once and clones it for each page file.
func NewRendererFS(fsys fs.FS) (*Renderer, error) {
	layout, err := template.New(layoutName).
		Funcs(funcs()).
		ParseFS(fsys, "templates/"+layoutName+".html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, page := range []string{PageIndex, PageAbout, PageSchedule, PageReminders} {
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", page, err)
		}

		tmpl, err := clone.ParseFS(fsys, "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		r.pages[page] = tmpl
	}

	return r, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		return missingPage(name)
	}

	return render.HTML{
		Template: tmpl,
		Name:     layoutName,
		Data:     data,
	}
}

type missingPage string

func (p missingPage) Render(http.ResponseWriter) error {
	return fmt.Errorf("page %q is not registered", string(p))
}

func (p missingPage) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Local().Format(timeLayout)
		},
	}
}
