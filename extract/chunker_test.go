package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/chronicler/chapter"
)

func TestChunkParagraphs_EmptyListUsesFallback(t *testing.T) {
	fallback := "鸿门宴，项羽设宴邀请刘邦，范增举玦，项庄舞剑。"

	chunks := ChunkParagraphs(nil, fallback, 12000, 20000)

	require.Len(t, chunks, 1)
	assert.Equal(t, fallback, chunks[0].Text)
	assert.Empty(t, chunks[0].ParagraphIDs)
}

func TestChunkParagraphs_SingleChunk(t *testing.T) {
	paragraphs := []chapter.Paragraph{
		{ID: "p1", Text: "沛公军霸上，未得与项羽相见。"},
		{ID: "p2", Text: "范增说项羽曰：沛公居山东时，贪于财货。"},
	}

	chunks := ChunkParagraphs(paragraphs, "", 12000, 20000)

	require.Len(t, chunks, 1)
	assert.Equal(t, paragraphs[0].Text+"\n\n"+paragraphs[1].Text, chunks[0].Text)
	assert.Equal(t, []string{"p1", "p2"}, chunks[0].ParagraphIDs)
}

func TestChunkParagraphs_FlushesAtSoftLimit(t *testing.T) {
	long := strings.Repeat("楚", 50)
	paragraphs := []chapter.Paragraph{
		{ID: "p1", Text: long},
		{ID: "p2", Text: long},
		{ID: "p3", Text: long},
	}

	// Soft limit fits one paragraph; the hard limit admits a second into an
	// open buffer but not a third.
	chunks := ChunkParagraphs(paragraphs, "", 60, 110)

	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"p1", "p2"}, chunks[0].ParagraphIDs)
	assert.Equal(t, []string{"p3"}, chunks[1].ParagraphIDs)
}

func TestChunkParagraphs_OrderPreserved(t *testing.T) {
	var paragraphs []chapter.Paragraph
	for i := 0; i < 40; i++ {
		paragraphs = append(paragraphs, chapter.Paragraph{
			ID:   chapterParaID(i),
			Text: strings.Repeat("汉", 30),
		})
	}

	chunks := ChunkParagraphs(paragraphs, "", 100, 160)
	require.NotEmpty(t, chunks)

	// Concatenating chunk contents in emission order reproduces the original
	// paragraph sequence, and every paragraph id appears exactly once.
	var joinedIDs []string
	var joinedText []string
	for _, c := range chunks {
		joinedIDs = append(joinedIDs, c.ParagraphIDs...)
		joinedText = append(joinedText, c.Text)
	}

	require.Len(t, joinedIDs, len(paragraphs))
	for i, p := range paragraphs {
		assert.Equal(t, p.ID, joinedIDs[i])
	}

	var original []string
	for _, p := range paragraphs {
		original = append(original, p.Text)
	}
	assert.Equal(t, strings.Join(original, "\n\n"), strings.Join(joinedText, "\n\n"))
}

func TestChunkParagraphs_OversizedParagraphStaysWhole(t *testing.T) {
	huge := strings.Repeat("秦", 300)
	paragraphs := []chapter.Paragraph{
		{ID: "p1", Text: "短段落"},
		{ID: "p2", Text: huge},
		{ID: "p3", Text: "又一段"},
	}

	chunks := ChunkParagraphs(paragraphs, "", 100, 150)

	// No paragraph is silently dropped even when one alone exceeds the hard
	// limit.
	var ids []string
	for _, c := range chunks {
		ids = append(ids, c.ParagraphIDs...)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
}

func chapterParaID(i int) string {
	return "p" + string(rune('a'+i/26)) + string(rune('a'+i%26))
}
