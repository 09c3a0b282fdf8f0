// Package render previews site markdown pages as HTML.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML header of a site page.
type FrontMatter struct {
	Layout string `yaml:"layout"`
	Title  string `yaml:"title"`
}

// Meta holds metadata extracted during rendering.
type Meta struct {
	FrontMatter    FrontMatter
	Title          string // front matter title, else first H1
	Headings       []Heading
	CodeBlockCount int
	DetailsCount   int
}

// Heading represents a heading in the document for TOC generation.
type Heading struct {
	Level int
	Text  string
	ID    string
}

// MarkdownRenderer renders markdown content to HTML.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a renderer with GFM and chroma highlighting.
// Raw HTML is passed through; callers sanitize the result.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			&ChromaHighlighting{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts markdown source to HTML and extracts metadata.
func (r *MarkdownRenderer) Render(source []byte) ([]byte, *Meta, error) {
	content, fm, err := ParseFrontMatter(source)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	reader := text.NewReader(content)
	doc := r.md.Parser().Parse(reader)

	meta := &Meta{FrontMatter: fm, Title: fm.Title}
	extractMeta(doc, content, meta)

	if err := r.md.Renderer().Render(&buf, content, doc); err != nil {
		return nil, nil, fmt.Errorf("render markdown: %w", err)
	}

	return buf.Bytes(), meta, nil
}

var frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n?---\r?\n`)

// ParseFrontMatter splits YAML front matter from the body. Pages without
// front matter return the source unchanged and a zero FrontMatter.
func ParseFrontMatter(source []byte) ([]byte, FrontMatter, error) {
	var fm FrontMatter
	match := frontmatterRe.FindSubmatch(source)
	if match == nil {
		return source, fm, nil
	}
	if err := yaml.Unmarshal(match[1], &fm); err != nil {
		return nil, fm, fmt.Errorf("parse front matter: %w", err)
	}
	return source[len(match[0]):], fm, nil
}

var detailsOpenRe = regexp.MustCompile(`(?i)^\s*<details\b`)

// extractMeta walks the AST to collect headings, code blocks and details blocks.
func extractMeta(doc ast.Node, source []byte, meta *Meta) {
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			var text strings.Builder
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					text.Write(t.Segment.Value(source))
				}
			}
			id := ""
			if idAttr, ok := node.AttributeString("id"); ok {
				if idBytes, ok := idAttr.([]byte); ok {
					id = string(idBytes)
				}
			}
			meta.Headings = append(meta.Headings, Heading{
				Level: node.Level,
				Text:  text.String(),
				ID:    id,
			})
			if meta.Title == "" && node.Level == 1 {
				meta.Title = text.String()
			}

		case *ast.FencedCodeBlock:
			meta.CodeBlockCount++

		case *ast.HTMLBlock:
			if node.Lines().Len() > 0 {
				first := node.Lines().At(0)
				if detailsOpenRe.Match(first.Value(source)) {
					meta.DetailsCount++
				}
			}
		}

		return ast.WalkContinue, nil
	})
}
