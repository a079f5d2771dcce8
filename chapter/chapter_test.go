package chapter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "blank line separated",
			text:     "沛公军霸上。\n\n项羽大怒。\n\n范增说项羽曰。",
			expected: []string{"沛公军霸上。", "项羽大怒。", "范增说项羽曰。"},
		},
		{
			name:     "multiple blank lines collapse",
			text:     "first\n\n\n\nsecond",
			expected: []string{"first", "second"},
		},
		{
			name:     "whitespace-only blocks dropped",
			text:     "first\n\n   \n\nsecond",
			expected: []string{"first", "second"},
		},
		{
			name:     "windows line endings",
			text:     "first\r\n\r\nsecond",
			expected: []string{"first", "second"},
		},
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitParagraphs(tt.text)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d paragraphs, want %d", len(got), len(tt.expected))
			}
			for i, p := range got {
				if p.Text != tt.expected[i] {
					t.Errorf("paragraph %d: got %q, want %q", i, p.Text, tt.expected[i])
				}
			}
		})
	}
}

func TestSplitParagraphs_IDs(t *testing.T) {
	got := SplitParagraphs("a\n\nb\n\nc")
	expected := []string{"p1", "p2", "p3"}
	for i, p := range got {
		if p.ID != expected[i] {
			t.Errorf("paragraph %d: got id %q, want %q", i, p.ID, expected[i])
		}
	}
}

func TestIDFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"chapters/07 Hongmen Banquet.txt", "07-hongmen-banquet"},
		{"/data/ch01.md", "ch01"},
		{"鸿门宴.txt", "鸿门宴"},
	}

	for _, tt := range tests {
		if got := IDFromPath(tt.path); got != tt.expected {
			t.Errorf("IDFromPath(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestChapterText(t *testing.T) {
	ch := &Chapter{
		Paragraphs: []Paragraph{
			{ID: "p1", Text: "first"},
			{ID: "p2", Text: "second"},
		},
	}
	if got := ch.Text(); got != "first\n\nsecond" {
		t.Errorf("Text() = %q", got)
	}
}

func TestLoadFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ch07.txt")
	content := "# 鸿门宴\n\n沛公军霸上。\n\n项羽大怒。"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ch, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if ch.ID != "ch07" {
		t.Errorf("expected id ch07, got %s", ch.ID)
	}
	if ch.Title != "鸿门宴" {
		t.Errorf("expected title 鸿门宴, got %s", ch.Title)
	}
	if len(ch.Paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(ch.Paragraphs))
	}
	if ch.ContentHash == "" {
		t.Error("expected content hash to be set")
	}

	// Same content hashes identically
	ch2, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if ch2.ContentHash != ch.ContentHash {
		t.Error("expected stable content hash")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
