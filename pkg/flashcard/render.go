package flashcard

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/bigm-o/Flash-mind/pkg/domain"
)

// Card text comes from the model (and transitively from user documents), so
// both renderers go through html/template to escape every interpolated value.

var interactiveTmpl = template.Must(template.New("interactive").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Flashcards</title>
<style>
.flashcard-container { padding-bottom: 2rem; }
.flashcard { background-color: transparent; width: 350px; height: 200px; perspective: 1000px; margin: 20px auto; position: relative; transition: transform 0.6s; transform-style: preserve-3d; cursor: pointer; }
.flashcard.flipped { transform: rotateY(180deg); }
.flashcard .front, .flashcard .back { width: 85%; height: 100%; border-radius: 15px; position: absolute; backface-visibility: hidden; padding: 20px; box-shadow: 0 4px 8px rgba(0,0,0,0.2); display: flex; align-items: center; justify-content: center; background: rgba(0, 0, 0, 0.1); }
.flashcard .front { border: 1px dashed white; font-size: 1.4rem; color: white; }
.flashcard .back { transform: rotateY(180deg); border: 1px dashed #67f88e; font-size: 1.1rem; color: #67f88e; }
p { margin: 0; line-height: 1.4; }
</style>
</head>
<body>
<div id="flashcards-container">
{{- range .Cards }}
<div class="flashcard-container">
  <div class="flashcard" onclick="this.classList.toggle('flipped')">
    <div class="front"><p>{{ .Question }}</p></div>
    <div class="back"><p>{{ .Answer }}</p></div>
  </div>
</div>
{{- end }}
</div>
</body>
</html>
`))

var emailTmpl = template.Must(template.New("email").Parse(`<html>
<head>
<style>
body { font-family: 'Poppins', sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background-color: #f9f9f9; }
h2 { color: #555; }
.flashcard-section { margin-bottom: 20px; border: 1px dashed #ccc; padding: 15px; border-radius: 5px; background-color: #fff; }
.question { font-weight: bold; color: #555; }
.answer { color: #008000; margin-top: 5px; }
.footer { margin-top: 30px; font-size: 0.9em; color: #777; text-align: center; }
</style>
</head>
<body>
<div class="container">
<h2>Your Flashcards on "{{ .SubjectTitle }}" from FlashMind AI</h2>
<p>Hello,</p>
<p>Here are the flashcards you requested:</p>
{{- range .Cards }}
<div class="flashcard-section">
  <p class="question"><strong>Q{{ .Number }}:</strong> {{ .Question }}</p>
  <p class="answer"><strong>A{{ .Number }}:</strong> {{ .Answer }}</p>
</div>
{{- end }}
<p>Happy learning!</p>
<p>Best regards,<br>The FlashMind AI Team</p>
<div class="footer"><p>This email was sent from FlashMind AI.</p></div>
</div>
</body>
</html>
`))

type numberedCard struct {
	Number   int
	Question string
	Answer   string
}

// RenderInteractive produces a standalone HTML document with one flip-card
// per flashcard. Cards start question-side up and toggle on click without
// any round-trip to the server.
func RenderInteractive(cards []domain.Flashcard) (string, error) {
	var sb strings.Builder
	if err := interactiveTmpl.Execute(&sb, struct {
		Cards []domain.Flashcard
	}{Cards: cards}); err != nil {
		return "", fmt.Errorf("render interactive flashcards: %w", err)
	}
	return sb.String(), nil
}

// RenderEmailBody produces the HTML email body listing every flashcard as a
// numbered Q/A block under a heading naming the subject title.
func RenderEmailBody(cards []domain.Flashcard, subjectTitle string) (string, error) {
	numbered := make([]numberedCard, 0, len(cards))
	for i, card := range cards {
		numbered = append(numbered, numberedCard{Number: i + 1, Question: card.Question, Answer: card.Answer})
	}
	var sb strings.Builder
	if err := emailTmpl.Execute(&sb, struct {
		SubjectTitle string
		Cards        []numberedCard
	}{SubjectTitle: subjectTitle, Cards: numbered}); err != nil {
		return "", fmt.Errorf("render flashcard email: %w", err)
	}
	return sb.String(), nil
}
