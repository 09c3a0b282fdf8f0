// Package sanitize cleans rendered markdown before it is embedded in a page.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

var codeClassRe = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("details", "summary")
	p.AllowAttrs("open").OnElements("details")
	p.AllowAttrs("class").Matching(codeClassRe).OnElements("div", "pre", "code", "span")
	p.AllowAttrs("data-language").Matching(codeClassRe).OnElements("div")
	p.AllowAttrs("tabindex").Matching(bluemonday.Integer).OnElements("pre")
	p.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// HTML strips scripts, event handlers and other unsafe markup from
// rendered HTML while keeping details/summary blocks and highlighting classes.
func HTML(input []byte) []byte {
	return policy.SanitizeBytes(input)
}
