package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/c360studio/chronicler/chapter"
)

// Chunk is one bounded text window submitted as a single extraction request,
// together with the ids of the paragraphs it contains.
type Chunk struct {
	Text         string
	ParagraphIDs []string
}

// ChunkParagraphs greedily stacks paragraphs into chunks. A chunk closes when
// appending the next paragraph would push it past the soft limit; once a
// buffer exists the larger hard limit applies instead, which avoids splitting
// a run of short paragraphs into pathologically small windows. Paragraph
// order is preserved and no paragraph is dropped. An empty paragraph list
// yields exactly one chunk holding the fallback text.
func ChunkParagraphs(paragraphs []chapter.Paragraph, fallback string, soft, hard int) []Chunk {
	if len(paragraphs) == 0 {
		return []Chunk{{Text: fallback}}
	}

	var (
		chunks []Chunk
		buf    strings.Builder
		ids    []string
	)

	flush := func() {
		chunks = append(chunks, Chunk{Text: buf.String(), ParagraphIDs: ids})
		buf.Reset()
		ids = nil
	}

	for _, para := range paragraphs {
		candidate := para.Text
		if buf.Len() > 0 {
			candidate = buf.String() + "\n\n" + para.Text
		}

		limit := soft
		if buf.Len() > 0 {
			limit = hard
		}

		if utf8.RuneCountInString(candidate) > limit && buf.Len() > 0 {
			flush()
			buf.WriteString(para.Text)
			ids = []string{para.ID}
			continue
		}

		buf.Reset()
		buf.WriteString(candidate)
		ids = append(ids, para.ID)
	}

	if buf.Len() > 0 {
		flush()
	}

	if len(chunks) == 0 {
		return []Chunk{{Text: fallback}}
	}
	return chunks
}
