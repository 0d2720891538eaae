// Package flashcard parses model output into question/answer pairs and
// renders them for display and email delivery.
package flashcard

import (
	"strings"

	"github.com/bigm-o/Flash-mind/pkg/domain"
)

const (
	questionMarker = "Q:"
	answerMarker   = "A:"
)

// Parse extracts ordered flashcards from raw model output.
//
// The text is split on the literal "Q:" marker; the first segment (preamble)
// is discarded, as is any segment without an "A:" marker. Each surviving
// segment is split on its first "A:" into question and answer, both trimmed.
// Segments whose question or answer is empty after trimming are dropped and
// returned in skipped so the caller can log a diagnostic.
//
// Parse never fails: input without markers yields no cards.
func Parse(raw string) (cards []domain.Flashcard, skipped []string) {
	segments := strings.Split(raw, questionMarker)
	if len(segments) < 2 {
		return nil, nil
	}
	for _, segment := range segments[1:] {
		if !strings.Contains(segment, answerMarker) {
			continue
		}
		qa := strings.SplitN(segment, answerMarker, 2)
		question := strings.TrimSpace(qa[0])
		answer := strings.TrimSpace(qa[1])
		if question == "" || answer == "" {
			skipped = append(skipped, strings.TrimSpace(segment))
			continue
		}
		cards = append(cards, domain.Flashcard{Question: question, Answer: answer})
	}
	return cards, skipped
}
