package api

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/auth"
	"blog-backend/internal/flash"
)

//go:embed templates
var templateFS embed.FS

var pages = []string{
	"auth/register",
	"auth/login",
	"auth/dashboard",
	"auth/change_password",
	"blog/index",
	"blog/create",
	"blog/update",
	"manage/index",
	"manage/update",
	"manage/audit",
}

// Renderer renders the embedded html templates. Every page is parsed
// together with the base layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all pages up front
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2006-01-02") },
		"datetime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04:05")
		},
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// page is the data every template receives. SiteKeys holds the challenge
// site key of each guarded form on the page, keyed by form name.
type page struct {
	Identity *auth.Identity
	IsAdmin  bool
	Notices  []string
	CSRF     string
	SiteKeys map[string]string
	Data     any
}

// render writes a full page. forms names the guarded forms on the page so
// each one gets the site key of the widget its POST is verified with.
func (h *Handler) render(c echo.Context, status int, name string, data any, forms ...string) error {
	id := auth.GetIdentity(c)
	p := page{
		Identity: id,
		IsAdmin:  h.gate.IsAdmin(id),
		Notices:  flash.Consume(c),
		CSRF:     h.csrf.GenerateToken(id),
		Data:     data,
	}
	if len(forms) > 0 && !h.cfg.TestMode {
		p.SiteKeys = make(map[string]string, len(forms))
		for _, form := range forms {
			if key := h.verifier.SiteKey(h.widgetFor(form)); key != "" {
				p.SiteKeys[form] = key
			}
		}
	}
	return c.Render(status, name, p)
}
