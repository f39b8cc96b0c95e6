package gateway

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"vocabhero/internal/audio"
	"vocabhero/internal/config"
	"vocabhero/internal/models"
)

// GeminiGateway talks to the Gemini API
type GeminiGateway struct {
	client      *genai.Client
	textModel   string
	speechModel string
	voice       string
	sampleRate  int
}

func NewGeminiGateway(ctx context.Context, cfg config.AIConfig) (*GeminiGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGateway{
		client:      client,
		textModel:   cfg.TextModel,
		speechModel: cfg.SpeechModel,
		voice:       cfg.Voice,
		sampleRate:  cfg.SampleRate,
	}, nil
}

var geminiWordSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"word":             {Type: genai.TypeString},
		"definition":       {Type: genai.TypeString},
		"part_of_speech":   {Type: genai.TypeString},
		"synonyms":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"antonyms":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"example_sentence": {Type: genai.TypeString},
		"phonetic":         {Type: genai.TypeString},
		"level":            {Type: genai.TypeNumber},
	},
	Required: wordRequired,
}

var geminiValidationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isCorrect": {Type: genai.TypeBoolean},
		"score":     {Type: genai.TypeNumber},
		"feedback":  {Type: genai.TypeString},
		"corrections": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"definition": {Type: genai.TypeString},
				"synonyms":   {Type: genai.TypeString},
				"antonyms":   {Type: genai.TypeString},
				"sentence":   {Type: genai.TypeString},
			},
		},
	},
	Required: validationRequired,
}

func (g *GeminiGateway) GenerateWord(ctx context.Context, level int, category models.WordCategory) (models.Word, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(wordPrompt(level, category)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiWordSchema,
	})
	if err != nil {
		return models.Word{}, remoteErr(OpGenerateWord, err)
	}
	return decodeWord(resp.Text(), level)
}

func (g *GeminiGateway) GetHint(ctx context.Context, word, partOfSpeech string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(hintPrompt(word, partOfSpeech)), nil)
	if err != nil {
		return "", remoteErr(OpHint, err)
	}
	if hint := strings.TrimSpace(resp.Text()); hint != "" {
		return hint, nil
	}
	return FallbackHint, nil
}

func (g *GeminiGateway) ValidateAnswer(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(validationPrompt(word, answer)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiValidationSchema,
	})
	if err != nil {
		return models.ValidationResult{}, remoteErr(OpValidateAnswer, err)
	}
	return decodeValidation(resp.Text())
}

func (g *GeminiGateway) Pronounce(ctx context.Context, word string) (*audio.Buffer, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.speechModel, genai.Text(speechPrompt(word)), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	})
	if err != nil {
		return nil, remoteErr(OpPronounce, err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, &AudioUnavailableError{Word: word}
	}
	buf, err := audio.DecodePCM16(blob.Data, sampleRateFromMIME(blob.MIMEType, g.sampleRate), audio.DefaultChannels)
	if err != nil {
		return nil, &AudioUnavailableError{Word: word, Err: err}
	}
	return buf, nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return nil
	}
	return content.Parts[0].InlineData
}

// sampleRateFromMIME reads the rate parameter of e.g. "audio/L16;codec=pcm;rate=24000"
func sampleRateFromMIME(mime string, fallback int) int {
	for _, param := range strings.Split(mime, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "rate") {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return fallback
}
