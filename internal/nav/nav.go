// Package nav marks the current page in navigation menus and the active
// language in the language switcher of a served HTML page.
package nav

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// CurrentClass marks links pointing at the page being viewed.
	CurrentClass = "current"
	// ActiveClass marks the language being viewed in the switcher.
	ActiveClass = "active"
	// SelectID is the id of the language <select> element.
	SelectID = "languages"
	// SwitcherClass is the class of the language switcher container.
	SwitcherClass = "languages"

	// LanguageAction is where the language select form submits to.
	LanguageAction = "/languages"
	// LanguageParam is the query parameter carrying the chosen language.
	LanguageParam = "language"
)

// DownloadLinks maps download button ids to the server's redirect routes.
var DownloadLinks = map[string]string{
	"mac-download": "/download/mac",
	"win-download": "/download/windows",
}

// ErrInvalidLanguage is returned by LanguageHome for values that cannot be
// used as a path segment.
var ErrInvalidLanguage = errors.New("invalid language")

// MarkCurrent adds CurrentClass to every anchor whose href equals path.
// It returns the number of anchors marked.
func MarkCurrent(doc *html.Node, path string) int {
	marked := 0
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.A {
			return
		}
		href, ok := attr(n, "href")
		if !ok || href != path {
			return
		}
		addClass(n, CurrentClass)
		marked++
	})
	return marked
}

// LanguageFromPath returns the first non-empty segment of path.
func LanguageFromPath(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// MarkLanguage adds ActiveClass to every element carrying class lang inside
// an element carrying SwitcherClass. It returns the number of elements marked.
func MarkLanguage(doc *html.Node, lang string) int {
	if lang == "" {
		return 0
	}
	marked := 0
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasClass(n, lang) {
			return
		}
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && hasClass(p, SwitcherClass) {
				addClass(n, ActiveClass)
				marked++
				return
			}
		}
	})
	return marked
}

// SelectLanguage marks the option whose value is lang as selected in the
// element with id SelectID and clears selection on its other options.
// It reports whether an option matched.
func SelectLanguage(doc *html.Node, lang string) bool {
	sel := findByID(doc, SelectID)
	if sel == nil || lang == "" {
		return false
	}

	var match *html.Node
	walk(sel, func(n *html.Node) {
		if n.DataAtom != atom.Option {
			return
		}
		if v, _ := optionValue(n); v == lang && match == nil {
			match = n
		}
	})
	if match == nil {
		return false
	}

	walk(sel, func(n *html.Node) {
		if n.DataAtom != atom.Option {
			return
		}
		if n == match {
			setAttr(n, "selected", "selected")
		} else {
			removeAttr(n, "selected")
		}
	})
	return true
}

// LanguageHome returns the home page path of lang.
func LanguageHome(lang string) (string, error) {
	if lang == "" || strings.ContainsAny(lang, `/\.?#%`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return "/" + lang + "/home/", nil
}

// WireDownloads points every download button found by id at its redirect
// route. It returns the number of buttons rewritten.
func WireDownloads(doc *html.Node) int {
	wired := 0
	for id, href := range DownloadLinks {
		n := findByID(doc, id)
		if n == nil {
			continue
		}
		setAttr(n, "href", href)
		wired++
	}
	return wired
}

// WireLanguageSelect makes the element with id SelectID submit the chosen
// language to LanguageAction when it changes. A select outside any form is
// wrapped in one; an enclosing form is retargeted. It reports whether a
// select was found.
func WireLanguageSelect(doc *html.Node) bool {
	sel := findByID(doc, SelectID)
	if sel == nil || sel.DataAtom != atom.Select {
		return false
	}

	setAttr(sel, "name", LanguageParam)
	setAttr(sel, "onchange", "this.form.submit()")

	form := enclosingForm(sel)
	if form == nil {
		form = &html.Node{Type: html.ElementNode, Data: "form", DataAtom: atom.Form}
		parent := sel.Parent
		parent.InsertBefore(form, sel)
		parent.RemoveChild(sel)
		form.AppendChild(sel)
	}
	setAttr(form, "action", LanguageAction)
	setAttr(form, "method", "get")
	return true
}

func enclosingForm(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.Form {
			return p
		}
	}
	return nil
}

// Highlight parses an HTML document from r, applies MarkCurrent,
// MarkLanguage and SelectLanguage for path, wires the download buttons and
// the language select to their server routes, and writes the result to w.
// path must be the escaped request path, matching how anchors spell hrefs.
func Highlight(w io.Writer, r io.Reader, path string) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	MarkCurrent(doc, path)
	lang := LanguageFromPath(path)
	MarkLanguage(doc, lang)
	SelectLanguage(doc, lang)
	WireDownloads(doc)
	WireLanguageSelect(doc)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// HighlightBytes is Highlight over byte slices. On failure the input is
// returned unchanged alongside the error.
func HighlightBytes(page []byte, path string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(page) + 64)
	if err := Highlight(&buf, bytes.NewReader(page), path); err != nil {
		return page, err
	}
	return buf.Bytes(), nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findByID(doc *html.Node, id string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if v, ok := attr(n, "id"); ok && v == id {
			found = n
		}
	})
	return found
}

// optionValue follows the HTML rule that an option without a value
// attribute uses its text.
func optionValue(n *html.Node) (string, bool) {
	if v, ok := attr(n, "value"); ok {
		return v, true
	}
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(sb.String()), false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	v, ok := attr(n, "class")
	if !ok || strings.TrimSpace(v) == "" {
		setAttr(n, "class", class)
		return
	}
	setAttr(n, "class", strings.TrimSpace(v)+" "+class)
}
