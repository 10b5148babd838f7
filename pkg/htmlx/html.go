// Package htmlx builds HTML fragments that are safe to embed in outgoing
// notifications (email bodies, Telegram HTML parse mode).
package htmlx

import (
	"fmt"
	"html"
	"strings"
)

// H represents HTML that is safe to emit as-is.
// Values of type H should be treated as already-escaped.
type H string

func (h H) String() string { return string(h) }

// Esc escapes plain text for HTML output.
func Esc(s string) H { return H(html.EscapeString(s)) }

// Raw marks a string as already-safe HTML.
// Use sparingly.
func Raw(s string) H { return H(s) }

func wrap(tag string, inner H) H { return H("<" + tag + ">" + inner.String() + "</" + tag + ">") }

func B(s string) H    { return wrap("b", Esc(s)) }
func I(s string) H    { return wrap("i", Esc(s)) }
func Code(s string) H { return wrap("code", Esc(s)) }

// Pre renders a preformatted block.
// NOTE: Telegram requires each message chunk to have balanced tags, so avoid
// very long Pre content in chat messages.
func Pre(s string) H {
	return H("<pre><code>" + html.EscapeString(s) + "</code></pre>")
}

// Link builds an HTML link.
func Link(text, url string) H {
	// Escape attribute; html.EscapeString also escapes quotes.
	return H(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(text)))
}

// JoinH joins safe HTML parts with sep, skipping blank parts.
func JoinH(sep string, parts ...H) H {
	if len(parts) == 0 {
		return ""
	}
	ss := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p.String()) == "" {
			continue
		}
		ss = append(ss, p.String())
	}
	return H(strings.Join(ss, sep))
}

// ---- Email table helpers ----

// Cell escapes one table cell value.
func Cell(s string) H { return wrap("td", Esc(s)) }

// HeadCell escapes one header cell value.
func HeadCell(s string) H { return wrap("th", Esc(s)) }

// Row wraps already-safe cells in a table row.
func Row(cells ...H) H {
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString(c.String())
	}
	b.WriteString("</tr>")
	return H(b.String())
}

// Table renders a bordered table from a header and rows of plain text.
// All values are escaped.
func Table(header []string, rows [][]string) H {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="5" cellspacing="0">`)
	if len(header) > 0 {
		cells := make([]H, 0, len(header))
		for _, h := range header {
			cells = append(cells, HeadCell(h))
		}
		b.WriteString(Row(cells...).String())
	}
	for _, r := range rows {
		cells := make([]H, 0, len(r))
		for _, v := range r {
			cells = append(cells, Cell(v))
		}
		b.WriteString(Row(cells...).String())
	}
	b.WriteString("</table>")
	return H(b.String())
}
