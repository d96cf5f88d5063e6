// Package nav decodes the site navigation tree and renders it as nested lists.
package nav

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

// Placeholder is the href used for entries that carry no path.
const Placeholder = "#"

// Node is one entry of the navigation tree: either a Link or a Group.
type Node interface {
	isNode()
}

// Link is a navigable leaf entry.
type Link struct {
	Title string
	Path  string
}

// Group is a non-navigable label with nested entries.
type Group struct {
	Title string
	Items []Node
}

func (Link) isNode()  {}
func (Group) isNode() {}

// Tree is an ordered list of top-level navigation entries.
// It decodes from YAML entries of the form {title, path} or {title, items}.
type Tree []Node

type yamlEntry struct {
	Title string `yaml:"title"`
	Path  string `yaml:"path"`
	Items *Tree  `yaml:"items"`
}

// UnmarshalYAML decodes a sequence of entries. An entry with an items key becomes a Group
// (even when it also names a path), everything else becomes a Link.
func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	var entries []yamlEntry
	if err := value.Decode(&entries); err != nil {
		return err
	}
	out := make(Tree, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		p := strings.TrimSpace(e.Path)
		if e.Items != nil {
			if title == "" && p != "" {
				title = TitleFromPath(p)
			}
			out = append(out, Group{Title: title, Items: []Node(*e.Items)})
			continue
		}
		out = append(out, Link{Title: title, Path: p})
	}
	*t = out
	return nil
}

// Render converts nodes into nested unordered-list markup, preserving order at every level.
func Render(nodes []Node) string {
	var b strings.Builder
	// Rendering into a strings.Builder cannot fail.
	_ = html.Render(&b, list(nodes))
	return b.String()
}

func list(nodes []Node) *html.Node {
	ul := element(atom.Ul)
	for _, n := range nodes {
		li := element(atom.Li)
		switch v := n.(type) {
		case Group:
			span := element(atom.Span)
			span.AppendChild(textNode(groupTitle(v.Title)))
			li.AppendChild(span)
			li.AppendChild(list(v.Items))
		case Link:
			href, title := linkParts(v)
			a := element(atom.A)
			a.Attr = []html.Attribute{{Key: "href", Val: href}}
			a.AppendChild(textNode(title))
			li.AppendChild(a)
		default:
			a := element(atom.A)
			a.Attr = []html.Attribute{{Key: "href", Val: Placeholder}}
			a.AppendChild(textNode(Placeholder))
			li.AppendChild(a)
		}
		ul.AppendChild(li)
	}
	return ul
}

func linkParts(l Link) (href, title string) {
	href = strings.TrimSpace(l.Path)
	if href == "" {
		href = Placeholder
	}
	title = strings.TrimSpace(l.Title)
	if title == "" {
		title = TitleFromPath(href)
	}
	return href, title
}

func groupTitle(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return TitleFromPath(Placeholder)
}

// TitleFromPath derives a readable label from a path: "/guides/getting-started.html" → "Getting started".
// The result is never empty; paths without a usable segment are returned as-is.
func TitleFromPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return Placeholder
	}
	seg := path.Base(strings.TrimRight(p, "/"))
	if ext := path.Ext(seg); ext != "" && ext != seg {
		seg = strings.TrimSuffix(seg, ext)
	}
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	seg = strings.TrimSpace(seg)
	if seg == "" || seg == "/" || seg == "." {
		return p
	}
	r, size := utf8.DecodeRuneInString(seg)
	return string(unicode.ToUpper(r)) + seg[size:]
}

// Depth reports the nesting depth of the rendered list: 1 for a flat list, 0 for no nodes.
func Depth(nodes []Node) int {
	if len(nodes) == 0 {
		return 0
	}
	deepest := 1
	for _, n := range nodes {
		if g, ok := n.(Group); ok {
			if d := 1 + maxInt(Depth(g.Items), 1); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
