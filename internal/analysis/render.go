package analysis

import (
	"fmt"
	"html"
	"strings"
)

// RenderHTML builds the presentation card for an analysis: case-type badge,
// bulleted facts, issues, and reasonings, and the outcome paragraph. It is a
// pure function; the HTTP layer decides how to serve the markup.
func RenderHTML(a *Analysis, caseType string) string {
	badge := "Not Classified"
	if caseType != "" {
		badge = strings.ToUpper(caseType)
	}

	var b strings.Builder
	b.WriteString("<div class='stage1-card'>")
	fmt.Fprintf(&b, "<div class='stage1-header'><span class='stage1-label'>Case Type</span><span class='stage1-badge'>%s</span></div>", html.EscapeString(badge))
	renderSection(&b, "Facts", a.Facts)
	renderSection(&b, "Legal Issues", a.Issues)
	renderSection(&b, "Reasonings", a.Reasonings)
	fmt.Fprintf(&b, "<div class='stage1-section'><div class='stage1-section-title'>Outcome</div><p class='stage1-outcome'>%s</p></div>", html.EscapeString(a.Outcomes))
	b.WriteString("</div>")
	return b.String()
}

func renderSection(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "<div class='stage1-section'><div class='stage1-section-title'>%s</div><ul class='stage1-list'>", title)
	for _, item := range items {
		fmt.Fprintf(b, "<li>%s</li>", html.EscapeString(item))
	}
	b.WriteString("</ul></div>")
}
