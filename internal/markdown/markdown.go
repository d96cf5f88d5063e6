// Package markdown renders markdown sources with goldmark and extracts their YAML front matter.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// Document is the result of converting one markdown source.
type Document struct {
	// Content is the rendered HTML body.
	Content string
	// FrontMatter is the raw YAML block without its delimiters.
	FrontMatter []byte
}

// DecodeMeta decodes the raw front matter into v.
func (d Document) DecodeMeta(v any) error {
	if len(bytes.TrimSpace(d.FrontMatter)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(d.FrontMatter, v); err != nil {
		return fmt.Errorf("markdown: decode front matter: %w", err)
	}
	return nil
}

// Converter turns markdown source into HTML plus front matter.
type Converter interface {
	Convert(src []byte) (Document, error)
}

// Goldmark is the goldmark-backed Converter. It is safe for concurrent use.
type Goldmark struct {
	md goldmark.Markdown
}

// New builds a converter with GitHub-flavoured markdown, automatic heading ids and raw HTML passthrough.
func New() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Convert renders src and keeps its front matter undecoded; see DecodeMeta.
func (g *Goldmark) Convert(src []byte) (Document, error) {
	fm, body := SplitFrontMatter(string(src))

	var doc Document
	if strings.TrimSpace(fm) != "" {
		doc.FrontMatter = []byte(fm)
	}

	var buf bytes.Buffer
	if err := g.md.Convert([]byte(body), &buf); err != nil {
		return Document{}, fmt.Errorf("markdown: render: %w", err)
	}
	doc.Content = buf.String()
	return doc, nil
}

// SplitFrontMatter separates a leading "---" delimited block from the body.
// Without a closing delimiter the whole input is treated as body.
func SplitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}
