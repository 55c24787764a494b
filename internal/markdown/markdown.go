// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown handles post bodies stored in the legacy format: text
// written in Markdown starts with a marker comment, anything else is raw
// HTML. Render turns either form into HTML using goldmark.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Marker prefixes post text that is Markdown rather than HTML.
const Marker = "<!--markdown-->"

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		// Legacy bodies mix raw HTML into Markdown.
		html.WithUnsafe(),
	),
)

// IsMarkdown reports whether text carries the Markdown marker.
func IsMarkdown(text string) bool {
	return strings.HasPrefix(text, Marker)
}

// Mark prefixes text with the marker unless it already has one.
func Mark(text string) string {
	if IsMarkdown(text) {
		return text
	}
	return Marker + text
}

// Strip removes the marker, returning the Markdown source.
func Strip(text string) string {
	return strings.TrimPrefix(text, Marker)
}

// Render returns the HTML for a stored post body. Unmarked text is
// already HTML and is returned unchanged.
func Render(text string) (string, error) {
	if !IsMarkdown(text) {
		return text, nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(Strip(text)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
