package app

import (
	"fmt"
	"strings"

	"github.com/bigm-o/Flash-mind/pkg/ai"
	"github.com/bigm-o/Flash-mind/pkg/domain"
)

// systemInstruction is the fixed tutoring persona sent at the start of every
// chat call. It is never shown to the user or persisted in the transcript.
const systemInstruction = `You are FlashMind AI, a friendly study tutor. You help the user learn the subject matter of the document they provided. Answer questions using the document as your primary source, explain concepts clearly and concisely, and encourage the user to test their understanding. If a question falls outside the document, say so before answering from general knowledge.`

const (
	bootstrapGreeting = "Hello! I'm FlashMind AI. How can I help you learn from your document?"
	documentPreamble  = "Here is the document for analysis:"
	processedPreamble = "I have processed the document about"
)

const (
	// subjectSampleLimit caps how much document text the title-inference
	// prompt carries.
	subjectSampleLimit = 2000
	// pasteLimit caps pasted text at the input boundary.
	pasteLimit = 100000
	// initialFlashcardLimit caps the batch generated from the whole document.
	initialFlashcardLimit = 15
)

func subjectPrompt(text string) string {
	sample := []rune(text)
	if len(sample) > subjectSampleLimit {
		sample = sample[:subjectSampleLimit]
	}
	return fmt.Sprintf(`Analyze the following text and provide a concise, general subject title (e.g., "Photosynthesis", "World War II", "Python Programming Basics").
Text:
---
%s
---
Subject Title:`, string(sample))
}

func flashcardPrompt(sourceText string, maxCards int) string {
	var limitLine string
	if maxCards > 0 {
		limitLine = fmt.Sprintf("Generate a maximum of %d flashcards.\n", maxCards)
	}
	return fmt.Sprintf(`Generate question and answer flashcards based on the following text.
Format each flashcard strictly as "Q: Your question here A: Your answer here".
Ensure the questions cover key concepts and facts from the text.
Do not include any introductory or concluding remarks, just the Q&A pairs.
Each Q&A pair should be on a new line.
%s
Text:
---
%s
---
Flashcards:`, limitLine, sourceText)
}

func greetingText(subjectTitle string) string {
	return fmt.Sprintf("Oh, I see you want to learn about **%s**. What would you like to know about this subject matter?", subjectTitle)
}

// bootstrapTurns are the four synthesized turns injected at the start of
// every chat call: system instruction, canned greeting, document context and
// its acknowledgment. They never appear in the persisted transcript.
func bootstrapTurns(documentText, subjectTitle string) []ai.Content {
	return []ai.Content{
		{Role: "user", Parts: []ai.Part{{Text: systemInstruction}}},
		{Role: "model", Parts: []ai.Part{{Text: bootstrapGreeting}}},
		{Role: "user", Parts: []ai.Part{{Text: fmt.Sprintf("%s\n\n---\n%s\n---", documentPreamble, documentText)}}},
		{Role: "model", Parts: []ai.Part{{Text: fmt.Sprintf("%s **%s**. What would you like to do?", processedPreamble, subjectTitle)}}},
	}
}

// isBootstrapTurn reports whether a transcript message duplicates one of the
// bootstrap turns, so replays never repeat system or context instructions.
func isBootstrapTurn(msg domain.Message) bool {
	text := msg.Text()
	switch {
	case text == systemInstruction:
		return true
	case strings.HasPrefix(text, bootstrapGreeting):
		return true
	case strings.HasPrefix(text, documentPreamble):
		return true
	case strings.HasPrefix(text, processedPreamble):
		return true
	}
	return false
}
