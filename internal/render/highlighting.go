package render

import (
	"bytes"
	"fmt"
	gohtml "html"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// StyleName is the chroma style whose CSS the layout embeds.
const StyleName = "github"

// ChromaHighlighting is a goldmark extension that syntax-highlights fenced
// code blocks using chroma with CSS classes.
type ChromaHighlighting struct{}

func (e *ChromaHighlighting) Extend(md goldmark.Markdown) {
	md.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&chromaRenderer{
				formatter: chromahtml.New(chromahtml.WithClasses(true)),
			}, 500),
		),
	)
}

type chromaRenderer struct {
	formatter *chromahtml.Formatter
}

func (r *chromaRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *chromaRenderer) renderFencedCodeBlock(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.FencedCodeBlock)

	lang := ""
	if n.Info != nil {
		lang = string(n.Language(source))
	}

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code.String())
	if err != nil {
		return ast.WalkStop, fmt.Errorf("chroma tokenise: %w", err)
	}

	var highlighted bytes.Buffer
	if err := r.formatter.Format(&highlighted, styles.Get(StyleName), iterator); err != nil {
		return ast.WalkStop, fmt.Errorf("chroma format: %w", err)
	}

	fmt.Fprintf(w, `<div class="highlight" data-language="%s">`, gohtml.EscapeString(lang))
	_ = w.WriteByte('\n')
	_, _ = w.Write(highlighted.Bytes())
	_, _ = w.WriteString("\n</div>\n")

	return ast.WalkContinue, nil
}

// StyleCSS returns the chroma stylesheet matching the classes emitted by
// ChromaHighlighting.
func StyleCSS() (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(StyleName)); err != nil {
		return "", fmt.Errorf("chroma css: %w", err)
	}
	return buf.String(), nil
}
