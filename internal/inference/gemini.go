package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiGateway implements Gateway against the Google Generative AI API.
type GeminiGateway struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiGateway(ctx context.Context, apiKey, modelName string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	return &GeminiGateway{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *GeminiGateway) Close() error {
	return g.client.Close()
}

func (g *GeminiGateway) Generate(ctx context.Context, req Request) (map[string]any, error) {
	prompt := req.Prompt
	if len(req.WebContext) > 0 {
		prompt = prompt + "\n\nCurrent market listings for reference:\n" + strings.Join(req.WebContext, "\n---\n")
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, blob := range req.Evidence {
		if len(blob.Data) == 0 {
			continue
		}
		parts = append(parts, genai.Blob{
			MIMEType: blob.MIMEType,
			Data:     blob.Data,
		})
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no content returned from model")
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}

	return DecodeJSONResponse(string(textPart))
}

// DecodeJSONResponse strips an optional markdown code fence and decodes
// the model's reply into a JSON object.
func DecodeJSONResponse(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```json") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimSuffix(raw, "```")
	} else if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
	}
	raw = strings.TrimSpace(raw)

	var result map[string]any
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model response to JSON: %w. \nRaw response was: %s", err, raw)
	}
	return result, nil
}
