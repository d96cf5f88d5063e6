package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"finitefield.org/hanko-docs/internal/markdown"
	"finitefield.org/hanko-docs/internal/nav"
	"finitefield.org/hanko-docs/internal/seo"
	"finitefield.org/hanko-docs/internal/toc"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Composer renders complete documents. It holds no per-request state and is
// safe for concurrent use.
type Composer struct {
	md   markdown.Converter
	tmpl *template.Template
}

type view struct {
	Lang                string
	SiteName            string
	Meta                seo.Meta
	JSONLD              template.HTML
	RemoveDefaultStyles bool
	Nav                 template.HTML
	TOC                 template.HTML
	Content             template.HTML
	BottomHead          template.HTML
	BottomBody          template.HTML
	Prev                *Link
	Next                *Link
}

// NewComposer parses the embedded layout. md renders the table of contents.
func NewComposer(md markdown.Converter) (*Composer, error) {
	tmpl, err := template.New("_root").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("page: parse templates: %w", err)
	}
	return &Composer{md: md, tmpl: tmpl}, nil
}

// Compose renders content as a full HTML document. The output depends only on
// its arguments.
func (c *Composer) Compose(content, pageURL string, cfg Config) (string, error) {
	meta := seo.Build(cfg.Title, content, pageURL, cfg.SiteName, cfg.Description, cfg.Image, cfg.Favicon, cfg.Twitter)

	v := view{
		Lang:                cfg.Lang,
		SiteName:            cfg.SiteName,
		Meta:                meta,
		RemoveDefaultStyles: cfg.RemoveDefaultStyles,
		Nav:                 template.HTML(nav.Render(cfg.Nav)),
		TOC:                 template.HTML(toc.Build(cfg.TocLevels, content, c.md)),
		Content:             template.HTML(content),
		BottomHead:          template.HTML(cfg.BottomHead),
		BottomBody:          template.HTML(cfg.BottomBody),
		Prev:                neighbor(cfg.Prev),
		Next:                neighbor(cfg.Next),
	}
	if meta.JSONLD != "" {
		v.JSONLD = template.HTML(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
	}

	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, "base", v); err != nil {
		return "", fmt.Errorf("page: execute layout: %w", err)
	}
	return buf.String(), nil
}

func neighbor(l *Link) *Link {
	if l == nil {
		return nil
	}
	out := *l
	if out.Title == "" {
		out.Title = nav.TitleFromPath(out.Path)
	}
	return &out
}
