// Package toc builds the collapsible table of contents from rendered page content.
//
// Headings are located with a pattern over the renderer's HTML output, so the format
// goldmark emits for headings (`<hN id="...">text</hN>`) is part of this package's contract.
package toc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"finitefield.org/hanko-docs/internal/markdown"
)

const (
	summary = "Table of contents"
	// ElementID is the id attribute of the generated <details> element.
	ElementID = "table-of-contents"
)

var textPolicy = bluemonday.StrictPolicy()

// Entry is one heading that made it into the table of contents.
type Entry struct {
	Level int
	ID    string
	Text  string
}

// Class returns the distinct valid heading levels (1-6) as a sorted digit string, e.g. "23".
func Class(levels []int) string {
	seen := [7]bool{}
	for _, l := range levels {
		if l >= 1 && l <= 6 {
			seen[l] = true
		}
	}
	var b strings.Builder
	for l := 1; l <= 6; l++ {
		if seen[l] {
			b.WriteString(strconv.Itoa(l))
		}
	}
	return b.String()
}

// Extract returns, in document order, the headings of the requested levels that carry an id.
func Extract(levels []int, content string) []Entry {
	class := Class(levels)
	if class == "" || content == "" {
		return nil
	}
	re := regexp.MustCompile(`<h([` + class + `]) [^>]*id="([^"]+)"[^>]*>(.*?)</h[` + class + `]>`)

	matches := re.FindAllStringSubmatch(content, -1)
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		level, _ := strconv.Atoi(m[1])
		entries = append(entries, Entry{
			Level: level,
			ID:    m[2],
			Text:  strings.TrimSpace(textPolicy.Sanitize(m[3])),
		})
	}
	return entries
}

// Markdown renders entries as an indented markdown list whose shallowest level sits at column zero.
func Markdown(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	minLevel := 6
	for _, e := range entries {
		if e.Level < minLevel {
			minLevel = e.Level
		}
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		indent := strings.Repeat("  ", e.Level-minLevel)
		lines = append(lines, indent+"- ["+e.Text+"](#"+e.ID+")")
	}
	return strings.Join(lines, "\n")
}

// Build returns the <details> table of contents for content, or "" when no level is configured,
// nothing matches, or the list renders empty. Failures of the converter also yield "".
func Build(levels []int, content string, md markdown.Converter) string {
	src := Markdown(Extract(levels, content))
	if src == "" || md == nil {
		return ""
	}
	doc, err := md.Convert([]byte(src))
	if err != nil {
		return ""
	}
	list := strings.ReplaceAll(doc.Content, "\n", "")
	if strings.TrimSpace(list) == "" {
		return ""
	}
	return `<details id="` + ElementID + `"><summary>` + summary + `</summary>` + list + `</details>`
}

// Levels normalizes a level list: valid values only, deduplicated, ascending.
func Levels(levels []int) []int {
	class := Class(levels)
	out := make([]int, 0, len(class))
	for _, c := range class {
		out = append(out, int(c-'0'))
	}
	return out
}
