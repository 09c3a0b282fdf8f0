package layout

import (
	htmltemplate "html/template"
	"strings"
	"testing"

	"github.com/synvert-hq/synsite/internal/render"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRenderPage_RequiredElements(t *testing.T) {
	page, err := newRenderer(t).RenderPage(PageData{
		Version:   "v1.0.0",
		Title:     "Official Snippets",
		Language:  "ruby",
		Languages: []string{"ruby", "javascript"},
		Content:   htmltemplate.HTML("<h3 id=\"rails\">rails</h3>"),
		CSSPath:   "/_synsite/app.css",
	})
	if err != nil {
		t.Fatal(err)
	}
	out := string(page)

	required := []string{
		`id="mac-download"`,
		`href="/download/mac"`,
		`id="win-download"`,
		`href="/download/windows"`,
		`<select id="languages" name="language"`,
		`<option value="ruby">ruby</option>`,
		`<option value="javascript">javascript</option>`,
		`<ul class="languages">`,
		`<li class="ruby"><a href="/ruby/home/">ruby</a></li>`,
		`<a href="/ruby/official_snippets/">Official Snippets</a>`,
		`action="/languages"`,
		`<title>Official Snippets | Synvert</title>`,
		`<h3 id="rails">rails</h3>`,
		`href="/_synsite/app.css"`,
		`.chroma`,
	}
	for _, want := range required {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s", want)
		}
	}
}

func TestRenderPage_DefaultTitle(t *testing.T) {
	page, err := newRenderer(t).RenderPage(PageData{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "<title>Synvert</title>") {
		t.Errorf("default title missing:\n%s", page)
	}
	if strings.Contains(string(page), "Official Snippets</a>") {
		t.Error("language nav rendered without a language")
	}
}

func TestRenderPage_EscapesTitle(t *testing.T) {
	page, err := newRenderer(t).RenderPage(PageData{Title: "<script>x</script>"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(page), "<script>x</script>") {
		t.Error("title was not escaped")
	}
}

func TestRenderPage_TOC(t *testing.T) {
	headings := []render.Heading{
		{Level: 3, Text: "rails", ID: "rails"},
		{Level: 3, Text: "ruby", ID: "ruby"},
	}
	page, err := newRenderer(t).RenderPage(PageData{Headings: headings})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(page), `class="toc"`) {
		t.Error("TOC rendered with fewer than 3 headings")
	}

	headings = append(headings, render.Heading{Level: 3, Text: "rspec", ID: "rspec"})
	page, err = newRenderer(t).RenderPage(PageData{Headings: headings})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `<li class="toc-h3"><a href="#rspec">rspec</a></li>`) {
		t.Errorf("TOC entry missing:\n%s", page)
	}
}
