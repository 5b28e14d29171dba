package view

import (
	"io"
	"strings"

	"github.com/a-h/templ"
)

// htmlWriter writes markup and remembers the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// open writes a start tag. attrs are name/value pairs; a pair whose value
// is "\x00" is written as a bare boolean attribute.
func (h *htmlWriter) open(tag string, attrs ...string) {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		b.WriteByte(' ')
		b.WriteString(attrs[i])
		if attrs[i+1] == boolAttr {
			continue
		}
		b.WriteString(`="`)
		b.WriteString(templ.EscapeString(attrs[i+1]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	h.raw(b.String())
}

func (h *htmlWriter) close(tag string) {
	h.raw("</" + tag + ">")
}

func (h *htmlWriter) element(tag, body string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(body)
	h.close(tag)
}

const boolAttr = "\x00"

// flag returns a boolean attribute pair, or nothing when off.
func flag(name string, on bool) []string {
	if !on {
		return nil
	}
	return []string{name, boolAttr}
}
