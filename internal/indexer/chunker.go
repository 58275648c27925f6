package indexer

import (
	"strings"
	"unicode/utf8"
)

// separators is the split ladder, highest level first: paragraph, line,
// sentence, word. Runes are the base case when no separator helps.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk splits text into non-empty pieces of at most target bytes. The split
// is hierarchical: it picks the highest-level separator that brings pieces
// within the target and recurses on over-long pieces. The concatenation of
// the returned chunks equals the input byte-for-byte, and repeated calls on
// the same input produce the same sequence.
func Chunk(text string, target int) []string {
	if text == "" {
		return nil
	}
	return chunkAtLevel(text, target, 0)
}

func chunkAtLevel(text string, target int, level int) []string {
	if len(text) <= target {
		return []string{text}
	}
	if level >= len(separators) {
		return chunkRunes(text, target)
	}

	pieces := strings.SplitAfter(text, separators[level])
	if len(pieces) == 1 {
		// Separator absent; try the next level down.
		return chunkAtLevel(text, target, level+1)
	}

	// Greedily pack pieces up to the target, recursing on pieces that are
	// themselves over-long.
	var chunks []string
	var buf strings.Builder
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if len(piece) > target {
			if buf.Len() > 0 {
				chunks = append(chunks, buf.String())
				buf.Reset()
			}
			chunks = append(chunks, chunkAtLevel(piece, target, level+1)...)
			continue
		}
		if buf.Len()+len(piece) > target {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteString(piece)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// chunkRunes splits on rune boundaries so multi-byte characters are never
// broken across chunks.
func chunkRunes(text string, target int) []string {
	var chunks []string
	start := 0
	end := 0
	for end < len(text) {
		_, size := utf8.DecodeRuneInString(text[end:])
		if end+size-start > target && end > start {
			chunks = append(chunks, text[start:end])
			start = end
		}
		end += size
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}
