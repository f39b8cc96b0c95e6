package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"vocabhero/internal/audio"
	"vocabhero/internal/config"
	"vocabhero/internal/models"
)

// OpenAIGateway talks to OpenAI or any compatible endpoint set by ai.base_url
type OpenAIGateway struct {
	client      *openai.Client
	textModel   string
	speechModel string
	voice       string
	sampleRate  int
}

func NewOpenAIGateway(cfg config.AIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIGateway{
		client:      openai.NewClientWithConfig(clientConfig),
		textModel:   cfg.TextModel,
		speechModel: cfg.SpeechModel,
		voice:       cfg.Voice,
		sampleRate:  cfg.SampleRate,
	}, nil
}

var (
	stringDef      = jsonschema.Definition{Type: jsonschema.String}
	stringArrayDef = jsonschema.Definition{Type: jsonschema.Array, Items: &stringDef}
)

var openAIWordSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"word":             stringDef,
		"definition":       stringDef,
		"part_of_speech":   stringDef,
		"synonyms":         stringArrayDef,
		"antonyms":         stringArrayDef,
		"example_sentence": stringDef,
		"phonetic":         stringDef,
		"level":            {Type: jsonschema.Number},
	},
	Required: wordRequired,
}

var openAIValidationSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"isCorrect": {Type: jsonschema.Boolean},
		"score":     {Type: jsonschema.Number},
		"feedback":  stringDef,
		"corrections": {
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"definition": stringDef,
				"synonyms":   stringDef,
				"antonyms":   stringDef,
				"sentence":   stringDef,
			},
		},
	},
	Required: validationRequired,
}

func (g *OpenAIGateway) GenerateWord(ctx context.Context, level int, category models.WordCategory) (models.Word, error) {
	text, err := g.complete(ctx, OpGenerateWord, wordPrompt(level, category), "vocab_word", &openAIWordSchema)
	if err != nil {
		return models.Word{}, err
	}
	return decodeWord(text, level)
}

func (g *OpenAIGateway) GetHint(ctx context.Context, word, partOfSpeech string) (string, error) {
	text, err := g.complete(ctx, OpHint, hintPrompt(word, partOfSpeech), "", nil)
	if err != nil {
		return "", err
	}
	if hint := strings.TrimSpace(text); hint != "" {
		return hint, nil
	}
	return FallbackHint, nil
}

func (g *OpenAIGateway) ValidateAnswer(ctx context.Context, word models.Word, answer models.GameAnswer) (models.ValidationResult, error) {
	text, err := g.complete(ctx, OpValidateAnswer, validationPrompt(word, answer), "answer_grade", &openAIValidationSchema)
	if err != nil {
		return models.ValidationResult{}, err
	}
	return decodeValidation(text)
}

func (g *OpenAIGateway) Pronounce(ctx context.Context, word string) (*audio.Buffer, error) {
	resp, err := g.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(g.speechModel),
		Input:          word,
		Voice:          openai.SpeechVoice(g.voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Instructions:   "Pronounce the word slowly and clearly for a child learning vocabulary.",
	})
	if err != nil {
		return nil, remoteErr(OpPronounce, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, remoteErr(OpPronounce, fmt.Errorf("failed to read speech: %w", err))
	}
	if len(data) == 0 {
		return nil, &AudioUnavailableError{Word: word}
	}
	buf, err := audio.DecodePCM16(data, g.sampleRate, audio.DefaultChannels)
	if err != nil {
		return nil, &AudioUnavailableError{Word: word, Err: err}
	}
	return buf, nil
}

// complete runs a single-message chat. A non-nil schema requests strict JSON output.
func (g *OpenAIGateway) complete(ctx context.Context, op Op, prompt, schemaName string, schema *jsonschema.Definition) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
			},
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", remoteErr(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", shapeErr(op, "no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
