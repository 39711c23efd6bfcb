package geminimulti

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/voxweave/voxweave/pkg/transcript"
)

// turn is one speaker utterance inside a synthesis chunk.
type turn struct {
	speaker string
	text    string
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// chunkTurns groups segments into synthesis chunks whose rendered tag form
// stays under maxBytes. Chunk boundaries always fall between turns; a turn
// whose text alone exceeds maxChars is first split into several turns by
// splitTurnText. Every chunk holds at least one turn, so an oversized single
// turn still goes out alone rather than being dropped.
func chunkTurns(segments []*transcript.Segment, maxBytes, maxChars int) [][]turn {
	var (
		chunks  [][]turn
		current []turn
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			size = 0
		}
	}
	for _, seg := range segments {
		for _, text := range splitTurnText(seg.Text, maxChars) {
			t := turn{speaker: seg.Voice.Voice, text: text}
			rendered := len(fmt.Sprintf("<person%d>%s</person%d>", seg.SpeakerID, text, seg.SpeakerID))
			if size+rendered > maxBytes {
				flush()
			}
			current = append(current, t)
			size += rendered
		}
	}
	flush()
	return chunks
}

// splitTurnText splits text into pieces no longer than maxChars, preferring
// sentence boundaries and falling back to word boundaries for run-on
// sentences. A single word longer than maxChars is kept whole.
func splitTurnText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var pieces []string
	var current string
	appendPiece := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			pieces = append(pieces, s)
		}
	}
	for _, sentence := range splitSentences(text) {
		if len(current)+len(sentence) > maxChars && current != "" {
			appendPiece(current)
			current = ""
		}
		if len(sentence) > maxChars {
			for _, wordRun := range splitWords(sentence, maxChars) {
				appendPiece(wordRun)
			}
			continue
		}
		current += sentence
	}
	appendPiece(current)
	return pieces
}

// splitSentences cuts text after sentence-ending punctuation, keeping the
// punctuation and trailing whitespace with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[last:m[1]])
		last = m[1]
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}

// splitWords packs whitespace-separated words into runs of at most maxChars.
func splitWords(text string, maxChars int) []string {
	var runs []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) > maxChars:
			runs = append(runs, current)
			current = word
		default:
			current += " " + word
		}
	}
	if current != "" {
		runs = append(runs, current)
	}
	return runs
}
