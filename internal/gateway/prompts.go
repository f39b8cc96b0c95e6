package gateway

import (
	"fmt"
	"strings"

	"vocabhero/internal/models"
)

// FallbackHint is returned when the provider answers a hint request with no text
const FallbackHint = "Think about how you might use this in a story!"

func wordPrompt(level int, category models.WordCategory) string {
	categoryPrompt := ""
	if category != "" {
		categoryPrompt = fmt.Sprintf(" focused on the category %q", string(category))
	}
	return fmt.Sprintf("Generate a challenging 11+ UK exam vocabulary word for Year %d level%s. Include a phonetic spelling.",
		level, categoryPrompt)
}

func hintPrompt(word, partOfSpeech string) string {
	return fmt.Sprintf("Give a cryptic but helpful hint for an 11+ student to guess the meaning of the %s %q. "+
		"Do not use the word itself or its definition directly. Keep it short and encouraging.", partOfSpeech, word)
}

func validationPrompt(word models.Word, answer models.GameAnswer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate this student's answer for the word %q.\n", word.Word)
	b.WriteString("Correct Word Data:\n")
	fmt.Fprintf(&b, "- Definition: %s\n", word.Definition)
	fmt.Fprintf(&b, "- Synonyms: %s\n", strings.Join(word.Synonyms, ", "))
	fmt.Fprintf(&b, "- Antonyms: %s\n\n", strings.Join(word.Antonyms, ", "))
	b.WriteString("Student Answer:\n")
	fmt.Fprintf(&b, "- Definition: %s\n", answer.Definition)
	fmt.Fprintf(&b, "- Synonyms: %s\n", answer.Synonyms)
	fmt.Fprintf(&b, "- Antonyms: %s\n", answer.Antonyms)
	fmt.Fprintf(&b, "- Sentence: %s\n\n", answer.Sentence)
	b.WriteString("Provide a constructive score (0-100) and specific feedback for an 11+ student.")
	return b.String()
}

func speechPrompt(word string) string {
	return "Say this word clearly: " + word
}
