package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// MarkdownToHTML converts a markdown report to an HTML fragment.
func MarkdownToHTML(markdown string) (string, error) {
	var out strings.Builder
	if err := md.Convert([]byte(markdown), &out); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return out.String(), nil
}

// BuildDocument wraps a report fragment in a standalone printable page.
func BuildDocument(title, fragment string) string {
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" +
		"body{font-family:Georgia,serif;max-width:860px;margin:0 auto;padding:1rem;color:#1c1917;}" +
		"h1,h2,h3{font-family:Helvetica,Arial,sans-serif;}" +
		"code{background:#f5f5f4;padding:0.1rem 0.3rem;border-radius:3px;}" +
		"pre{background:#f5f5f4;padding:0.6rem;overflow-x:auto;}" +
		"@media print{@page{size:auto;margin:12mm;} body{padding:0;}}" +
		"</style></head><body>" +
		"<div class='report-html'>" + fragment + "</div>" +
		"</body></html>"
}
