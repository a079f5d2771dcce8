// Package chapter loads narrative chapter files and splits them into
// identified paragraphs for extraction.
package chapter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Paragraph is one paragraph of chapter text with a stable id. Extraction
// prompts label paragraphs with these ids so events can reference them.
type Paragraph struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Chapter is a loaded chapter ready for extraction.
type Chapter struct {
	// ID identifies the chapter, derived from the file name.
	ID string `json:"id"`

	Title string `json:"title,omitempty"`

	Paragraphs []Paragraph `json:"paragraphs"`

	// Source is the path the chapter was loaded from.
	Source string `json:"source,omitempty"`

	// ContentHash fingerprints the raw file content for change detection.
	ContentHash string `json:"contentHash,omitempty"`
}

// Text returns the full chapter text with paragraphs joined by blank lines.
func (c *Chapter) Text() string {
	parts := make([]string, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n\n")
}

// blankLineRe splits text on runs of blank lines, tolerating whitespace.
var blankLineRe = regexp.MustCompile(`\n[ \t]*\n+`)

// SplitParagraphs splits raw text into identified paragraphs on blank
// lines. Whitespace-only paragraphs are dropped.
func SplitParagraphs(text string) []Paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []Paragraph
	for _, block := range blankLineRe.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			ID:   fmt.Sprintf("p%d", len(paragraphs)+1),
			Text: block,
		})
	}
	return paragraphs
}

// LoadFile loads a chapter from a text, markdown, or HTML file.
func LoadFile(path string) (*Chapter, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapter file: %w", err)
	}

	var title, text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		result, err := NewConverter().Convert(content)
		if err != nil {
			return nil, fmt.Errorf("convert HTML chapter: %w", err)
		}
		title = result.Title
		text = result.Markdown
	default:
		text = string(content)
		title = firstHeading(text)
	}

	ch := &Chapter{
		ID:          IDFromPath(path),
		Title:       title,
		Paragraphs:  SplitParagraphs(text),
		Source:      path,
		ContentHash: ContentHash(content),
	}
	return ch, nil
}

// IDFromPath derives a chapter id from a file path: the base name without
// extension, lowercased, with whitespace collapsed to hyphens.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(strings.TrimSpace(base))
	return strings.Join(strings.Fields(base), "-")
}

// ContentHash returns the hex-encoded SHA-256 of the content.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// firstHeading extracts the first markdown H1 heading, if any.
func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
