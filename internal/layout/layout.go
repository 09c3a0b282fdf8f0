// Package layout wraps previewed markdown pages in the site shell: header
// navigation, language switcher and download buttons.
package layout

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"

	"github.com/synvert-hq/synsite/internal/render"
)

// PageData holds everything needed to render a preview page.
type PageData struct {
	Version   string
	Title     string
	Language  string   // from front matter layout, else the URL
	Languages []string // switcher entries in display order
	Content   htmltemplate.HTML
	Headings  []render.Heading
	CSSPath   string
}

// Renderer renders full HTML pages.
type Renderer struct {
	tmpl *htmltemplate.Template
}

// NewRenderer parses the page template.
func NewRenderer() (*Renderer, error) {
	chromaCSS, err := render.StyleCSS()
	if err != nil {
		return nil, err
	}

	tmpl, err := htmltemplate.New("page").Funcs(htmltemplate.FuncMap{
		"chromaCSS": func() htmltemplate.CSS { return htmltemplate.CSS(chromaCSS) },
		"home":      func(lang string) string { return "/" + lang + "/home/" },
		"snippets":  func(lang string) string { return "/" + lang + "/official_snippets/" },
	}).Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderPage produces a complete HTML page.
func (r *Renderer) RenderPage(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en" data-synsite-version="{{.Version}}">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{if .Title}}{{.Title}} | {{end}}Synvert</title>
  <link rel="stylesheet" href="{{.CSSPath}}">
  <style>{{chromaCSS}}</style>
</head>
<body>
  <header class="site-header">
    <a class="brand" href="/">Synvert</a>
    <nav class="site-nav">
      {{- if .Language}}
      <a href="{{home .Language}}">Home</a>
      <a href="{{snippets .Language}}">Official Snippets</a>
      {{- end}}
    </nav>
    <ul class="languages">
      {{- range .Languages}}
      <li class="{{.}}"><a href="{{home .}}">{{.}}</a></li>
      {{- end}}
    </ul>
    <form class="language-select" action="/languages" method="get">
      <select id="languages" name="language" onchange="this.form.submit()">
        {{- range .Languages}}
        <option value="{{.}}">{{.}}</option>
        {{- end}}
      </select>
      <button type="submit">Go</button>
    </form>
    <div class="downloads">
      <a id="mac-download" class="button" href="/download/mac">Download for Mac</a>
      <a id="win-download" class="button" href="/download/windows">Download for Windows</a>
    </div>
  </header>
  {{- if ge (len .Headings) 3}}
  <aside class="toc">
    <ul>
      {{- range .Headings}}
      <li class="toc-h{{.Level}}"><a href="#{{.ID}}">{{.Text}}</a></li>
      {{- end}}
    </ul>
  </aside>
  {{- end}}
  <main>
    <article class="markdown-body">
{{.Content}}
    </article>
  </main>
</body>
</html>
`
