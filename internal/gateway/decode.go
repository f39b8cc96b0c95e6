package gateway

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/google/uuid"

	"vocabhero/internal/models"
)

var (
	wordRequired       = []string{"word", "definition", "part_of_speech", "synonyms", "antonyms", "example_sentence", "level"}
	validationRequired = []string{"isCorrect", "score", "feedback", "corrections"}
)

// decodeWord checks the generated JSON field by field before building a
// Word. The result always carries a fresh id and mastery 0.
func decodeWord(raw string, requestedLevel int) (models.Word, error) {
	obj, err := decodeObject(OpGenerateWord, raw)
	if err != nil {
		return models.Word{}, err
	}
	if err := requireFields(OpGenerateWord, obj, wordRequired); err != nil {
		return models.Word{}, err
	}

	var w models.Word
	for field, dst := range map[string]*string{
		"word":             &w.Word,
		"definition":       &w.Definition,
		"part_of_speech":   &w.PartOfSpeech,
		"example_sentence": &w.ExampleSentence,
	} {
		s, ok := obj[field].(string)
		if !ok {
			return models.Word{}, shapeErr(OpGenerateWord, "field %q must be a string", field)
		}
		*dst = strings.TrimSpace(s)
	}
	if w.Word == "" {
		return models.Word{}, shapeErr(OpGenerateWord, "field %q must not be empty", "word")
	}

	if w.Synonyms, err = stringList(OpGenerateWord, obj, "synonyms"); err != nil {
		return models.Word{}, err
	}
	if w.Antonyms, err = stringList(OpGenerateWord, obj, "antonyms"); err != nil {
		return models.Word{}, err
	}

	level, ok := obj["level"].(float64)
	if !ok {
		return models.Word{}, shapeErr(OpGenerateWord, "field %q must be a number", "level")
	}
	w.Level = int(math.Round(level))
	if !models.ValidLevel(w.Level) {
		w.Level = requestedLevel
	}

	if v, present := obj["phonetic"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return models.Word{}, shapeErr(OpGenerateWord, "field %q must be a string", "phonetic")
		}
		w.Phonetic = strings.TrimSpace(s)
	}

	w.ID = uuid.NewString()
	w.MasteryLevel = 0
	return w, nil
}

// decodeValidation checks the grading JSON and clamps the score to 0-100
func decodeValidation(raw string) (models.ValidationResult, error) {
	op := OpValidateAnswer
	obj, err := decodeObject(op, raw)
	if err != nil {
		return models.ValidationResult{}, err
	}
	if err := requireFields(op, obj, validationRequired); err != nil {
		return models.ValidationResult{}, err
	}

	var res models.ValidationResult
	var ok bool
	if res.IsCorrect, ok = obj["isCorrect"].(bool); !ok {
		return models.ValidationResult{}, shapeErr(op, "field %q must be a boolean", "isCorrect")
	}
	score, ok := obj["score"].(float64)
	if !ok {
		return models.ValidationResult{}, shapeErr(op, "field %q must be a number", "score")
	}
	res.Score = int(math.Round(math.Max(0, math.Min(100, score))))
	if res.Feedback, ok = obj["feedback"].(string); !ok {
		return models.ValidationResult{}, shapeErr(op, "field %q must be a string", "feedback")
	}

	corrections, ok := obj["corrections"].(map[string]any)
	if !ok {
		return models.ValidationResult{}, shapeErr(op, "field %q must be an object", "corrections")
	}
	for field, dst := range map[string]*string{
		"definition": &res.Corrections.Definition,
		"synonyms":   &res.Corrections.Synonyms,
		"antonyms":   &res.Corrections.Antonyms,
		"sentence":   &res.Corrections.Sentence,
	} {
		v, present := corrections[field]
		if !present || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return models.ValidationResult{}, shapeErr(op, "correction %q must be a string", field)
		}
		*dst = s
	}
	return res, nil
}

func decodeObject(op Op, raw string) (map[string]any, error) {
	raw = stripFences(raw)
	if raw == "" {
		return nil, shapeErr(op, "empty response")
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, shapeErr(op, "invalid JSON: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, shapeErr(op, "response is not a JSON object")
	}
	return obj, nil
}

func requireFields(op Op, obj map[string]any, fields []string) error {
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			return shapeErr(op, "missing required field %q", f)
		}
	}
	return nil
}

func stringList(op Op, obj map[string]any, field string) ([]string, error) {
	items, ok := obj[field].([]any)
	if !ok {
		return nil, shapeErr(op, "field %q must be an array", field)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, shapeErr(op, "field %q must contain only strings", field)
		}
		out = append(out, s)
	}
	return out, nil
}

// stripFences removes a markdown code fence some models wrap JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
