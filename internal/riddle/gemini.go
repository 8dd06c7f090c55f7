package riddle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/robalobadob/neuroterm/internal/game"
)

// DefaultModel is used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-2.5-flash"

const riddlePrompt = "Generate a clever, challenging riddle with a single-word answer. The answer should be a common object or concept."

// Gemini asks a Gemini model for a riddle in structured JSON.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini connects to the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = riddleSchema()
	return &Gemini{client: client, model: m}, nil
}

func riddleSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString, Description: "The riddle text itself."},
			"answer":   {Type: genai.TypeString, Description: "The single word answer."},
			"hint":     {Type: genai.TypeString, Description: "A subtle hint to help the user if they are stuck."},
		},
		Required: []string{"question", "answer", "hint"},
	}
}

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context) (game.Riddle, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(riddlePrompt))
	if err != nil {
		return game.Riddle{}, fmt.Errorf("gemini generate: %w", err)
	}
	return decodeRiddle(responseText(resp))
}

// Close releases the underlying client.
func (g *Gemini) Close() error { return g.client.Close() }

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}

func decodeRiddle(text string) (game.Riddle, error) {
	if strings.TrimSpace(text) == "" {
		return game.Riddle{}, ErrEmptyResponse
	}
	var r game.Riddle
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return game.Riddle{}, fmt.Errorf("decode riddle: %w", err)
	}
	return validate(r)
}
