// Package snippet turns the snippet list emitted by a synvert tool into the
// "Official Snippets" markdown page of the site.
package snippet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PageTitle is the title of every generated snippets page.
const PageTitle = "Official Snippets"

// Snippet is one code-transformation rule.
type Snippet struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

// Group is a category of snippets in first-seen order.
type Group struct {
	Name     string
	Snippets []Snippet
}

// FrontMatter is the YAML header read by the site generator.
type FrontMatter struct {
	Layout string `yaml:"layout"`
	Title  string `yaml:"title"`
}

// Decode parses the JSON array printed by `synvert-<lang> --list --format json`.
func Decode(data []byte) ([]Snippet, error) {
	var snippets []Snippet
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, fmt.Errorf("decode snippets: %w", err)
	}
	if snippets == nil {
		return nil, fmt.Errorf("decode snippets: expected a JSON array, got %q", abbreviate(data))
	}
	return snippets, nil
}

// GroupSnippets groups snippets by Group. Groups appear in the order their
// first snippet appears; snippets keep their input order within a group.
func GroupSnippets(snippets []Snippet) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, s := range snippets {
		i, ok := index[s.Group]
		if !ok {
			i = len(groups)
			index[s.Group] = i
			groups = append(groups, Group{Name: s.Group})
		}
		groups[i].Snippets = append(groups[i].Snippets, s)
	}
	return groups
}

// Render produces the markdown page for language. The output depends only
// on its inputs.
func Render(language string, groups []Group) ([]byte, error) {
	var buf bytes.Buffer

	header, err := yaml.Marshal(FrontMatter{Layout: language, Title: PageTitle})
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")

	var blocks []string
	for _, g := range groups {
		blocks = append(blocks, "### "+g.Name)
		for _, s := range g.Snippets {
			blocks = append(blocks,
				"<details markdown='1'>",
				"<summary>"+s.Name+"</summary>",
				s.Description,
				"</details>",
			)
		}
	}
	buf.WriteString(strings.Join(blocks, "\n\n"))
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// Page decodes, groups and renders in one step.
func Page(language string, data []byte) ([]byte, []Group, error) {
	snippets, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	groups := GroupSnippets(snippets)
	page, err := Render(language, groups)
	if err != nil {
		return nil, nil, err
	}
	return page, groups, nil
}

func abbreviate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
