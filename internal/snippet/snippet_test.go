package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toolOutput = `[
  {"group": "A", "name": "n1", "description": "d1"},
  {"group": "B", "name": "n2", "description": "d2", "sub_snippets": []},
  {"group": "A", "name": "n3", "description": "d3"}
]`

func TestDecode(t *testing.T) {
	snippets, err := Decode([]byte(toolOutput))
	require.NoError(t, err)
	require.Len(t, snippets, 3)
	assert.Equal(t, Snippet{Group: "B", Name: "n2", Description: "d2"}, snippets[1])

	empty, err := Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecode_SchemaDrift(t *testing.T) {
	for _, in := range []string{
		`{"snippets": []}`,
		`null`,
		`[{"group": 1}]`,
		`not json`,
		``,
	} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestGroupSnippets_FirstSeenOrder(t *testing.T) {
	snippets, err := Decode([]byte(toolOutput))
	require.NoError(t, err)

	groups := GroupSnippets(snippets)
	require.Len(t, groups, 2)

	assert.Equal(t, "A", groups[0].Name)
	assert.Equal(t, "B", groups[1].Name)
	require.Len(t, groups[0].Snippets, 2)
	assert.Equal(t, "n1", groups[0].Snippets[0].Name)
	assert.Equal(t, "n3", groups[0].Snippets[1].Name)
	assert.Equal(t, "n2", groups[1].Snippets[0].Name)

	assert.Empty(t, GroupSnippets(nil))
}

func TestRender(t *testing.T) {
	page, groups, err := Page("ruby", []byte(toolOutput))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	want := `---
layout: ruby
title: Official Snippets
---

### A

<details markdown='1'>

<summary>n1</summary>

d1

</details>

<details markdown='1'>

<summary>n3</summary>

d3

</details>

### B

<details markdown='1'>

<summary>n2</summary>

d2

</details>
`
	assert.Equal(t, want, string(page))

	out := string(page)
	assert.Equal(t, 1, strings.Count(out, "### A"))
	assert.Equal(t, 1, strings.Count(out, "### B"))
	assert.Less(t, strings.Index(out, "### A"), strings.Index(out, "### B"))
	assert.Less(t, strings.Index(out, "n3"), strings.Index(out, "### B"))
}

func TestRender_Idempotent(t *testing.T) {
	first, _, err := Page("javascript", []byte(toolOutput))
	require.NoError(t, err)
	second, _, err := Page("javascript", []byte(toolOutput))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(string(first), "---\nlayout: javascript\ntitle: Official Snippets\n---\n\n"))
}

func TestRender_Empty(t *testing.T) {
	page, err := Render("ruby", nil)
	require.NoError(t, err)
	assert.Equal(t, "---\nlayout: ruby\ntitle: Official Snippets\n---\n\n\n", string(page))
}
