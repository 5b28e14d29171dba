package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Document is a full HTML page around a toolbar and a table.
type Document struct {
	Lang       string
	Title      string
	Heading    string
	LiveURL    string
	ScriptURL  string
	Toolbar    templ.Component
	Table      templ.Component
	Stylesheet string
}

// Page renders d as a complete HTML document.
func Page(d Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", d.Lang)
		h.open("head")
		h.open("meta", "charset", "utf-8")
		h.open("meta", "name", "viewport", "content", "width=device-width, initial-scale=1")
		h.element("title", d.Title)
		if d.Stylesheet != "" {
			h.open("link", "rel", "stylesheet", "href", d.Stylesheet)
		}
		h.close("head")

		h.open("body", "data-live", d.LiveURL)
		h.open("main")
		h.element("h1", d.Heading)
		if h.err != nil {
			return h.err
		}
		for _, c := range []templ.Component{d.Toolbar, d.Table} {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		h.close("main")
		if d.ScriptURL != "" {
			h.open("script", "src", d.ScriptURL, "defer", boolAttr)
			h.close("script")
		}
		h.close("body")
		h.close("html")
		return h.err
	})
}
