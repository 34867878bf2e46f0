// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// RenderHTML converts a finished Markdown report to a standalone HTML
// document.
func RenderHTML(markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!doctype html><html><head><meta charset='utf-8'>" +
		"<title>Evidence Report</title>" +
		"<style>body{max-width:50rem;margin:2rem auto;padding:0 1rem;font-family:sans-serif;line-height:1.5}</style>" +
		"</head><body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("\n</body></html>\n")
	return doc.Bytes(), nil
}
