package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	contentTypeHTML = "text/html; charset=utf-8"
	layoutTemplate  = "layout.html"
)

var pageTemplateNames = []string{
	"clients.html",
	"gallery.html",
	"transaction.html",
	"login.html",
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// pageTemplates holds one parsed layout+page set per page.
type pageTemplates struct {
	byName map[string]*template.Template
}

func parsePageTemplates(funcs template.FuncMap) (*pageTemplates, error) {
	pages := &pageTemplates{byName: make(map[string]*template.Template, len(pageTemplateNames))}
	for _, name := range pageTemplateNames {
		tmpl, err := template.New(layoutTemplate).Funcs(funcs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
		if err != nil {
			return nil, err
		}
		pages.byName[name] = tmpl
	}
	return pages, nil
}

// render executes the page into a buffer first so a template error never leaves
// a half-written page.
func (p *pageTemplates) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	tmpl, ok := p.byName[name]
	if !ok {
		log.Ctx(r.Context()).Error().Str("template", name).Msg("Unknown page template")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		log.Ctx(r.Context()).Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
