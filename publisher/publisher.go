// Package publisher ships generated output out of the assistant: to the
// clipboard, to a downloaded file, or as an HTML preview.
package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"content_assistant/generator"
	"content_assistant/logger"
)

// Publisher writes downloads into a directory and renders previews.
type Publisher struct {
	dir string
	md  goldmark.Markdown
}

// New creates a Publisher saving downloads under dir ("." when empty).
func New(dir string) *Publisher {
	if dir == "" {
		dir = "."
	}
	return &Publisher{
		dir: dir,
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// SaveDownload writes d into the download directory and returns its path.
func (p *Publisher) SaveDownload(d generator.Download) (string, error) {
	if d.Filename == "" {
		return "", errors.New("download has no filename")
	}
	if filepath.Base(d.Filename) != d.Filename {
		return "", fmt.Errorf("download filename %q must not contain a path", d.Filename)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}
	path := filepath.Join(p.dir, d.Filename)
	if err := os.WriteFile(path, d.Content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write download: %w", err)
	}
	logger.Infow("output saved", "path", path, "bytes", len(d.Content))
	return path, nil
}

// RenderMarkdown converts generated markdown to HTML for the preview pane.
// Raw HTML inside the markdown is not passed through.
func (p *Publisher) RenderMarkdown(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Excerpt collapses whitespace and cuts md to at most limit runes, for the
// history list.
func Excerpt(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	runes := []rune(joined)
	if len(runes) <= limit {
		return joined
	}
	return string(runes[:limit]) + "…"
}
