package notify

import (
	"strconv"
	"strings"

	"samplewatch/internal/schedule"
	"samplewatch/pkg/htmlx"
)

var itemHeader = []string{
	"Area", "Product", "Line", "Attribute",
	"Frequency (days)", "Last Inspected", "Next Due",
}

func itemRows(items []schedule.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Area, it.Product, it.Line, it.Attribute,
			it.Frequency, it.Last, it.NextDue,
		})
	}
	return rows
}

// EmailHTML renders the full email body.
func EmailHTML(p *Payload) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(htmlx.JoinH("",
		htmlx.Raw("<p>"),
		htmlx.B("Sampling checks due as of "+schedule.FormatDate(p.RunDate)),
		htmlx.Raw(": "),
		htmlx.Esc(strconv.Itoa(p.Total)),
		htmlx.Raw("</p>"),
	).String())

	b.WriteString("<ul>")
	for _, a := range p.Areas {
		area := a.Area
		if area == "" {
			area = "(unset)"
		}
		b.WriteString("<li>")
		b.WriteString(htmlx.B(area).String())
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(a.Count))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")

	if len(p.Groups) > 1 {
		for _, g := range p.Groups {
			label := g.Label
			if label == "" {
				label = "Other"
			}
			b.WriteString("<h3>")
			b.WriteString(htmlx.Esc(label).String())
			b.WriteString("</h3>")
			b.WriteString(htmlx.Table(itemHeader, itemRows(g.Items)).String())
		}
	} else {
		b.WriteString(htmlx.Table(itemHeader, itemRows(p.Items)).String())
	}

	if len(p.Upcoming) > 0 {
		b.WriteString("<h3>Coming up</h3>")
		b.WriteString(htmlx.Table(itemHeader, itemRows(p.Upcoming)).String())
	}

	b.WriteString("</body></html>")
	return b.String()
}

// ChatText renders a compact HTML-parse-mode message for chat delivery.
func ChatText(p *Payload) string {
	var parts []htmlx.H
	parts = append(parts, htmlx.JoinH("",
		htmlx.B("Sampling checks due"),
		htmlx.Esc(" ("+schedule.FormatDate(p.RunDate)+"): "+strconv.Itoa(p.Total)),
	))

	for _, a := range p.Areas {
		area := a.Area
		if area == "" {
			area = "(unset)"
		}
		parts = append(parts, htmlx.JoinH("", htmlx.B(area), htmlx.Esc(": "+strconv.Itoa(a.Count))))
	}

	appendItems := func(items []schedule.Item) {
		for _, it := range items {
			line := it.Product
			if it.Attribute != "" {
				line += " / " + it.Attribute
			}
			line += " - due " + it.NextDue
			parts = append(parts, htmlx.JoinH("",
				htmlx.Esc("• "),
				htmlx.Esc(line),
			))
		}
	}

	if len(p.Groups) > 1 {
		for _, g := range p.Groups {
			label := g.Label
			if label == "" {
				label = "Other"
			}
			parts = append(parts, htmlx.Raw(""))
			parts = append(parts, htmlx.I(label))
			appendItems(g.Items)
		}
	} else {
		parts = append(parts, htmlx.Raw(""))
		appendItems(p.Items)
	}

	if len(p.Upcoming) > 0 {
		parts = append(parts, htmlx.Raw(""))
		parts = append(parts, htmlx.I("Coming up"))
		appendItems(p.Upcoming)
	}

	lines := make([]string, 0, len(parts))
	for _, h := range parts {
		lines = append(lines, h.String())
	}
	return strings.Join(lines, "\n")
}
