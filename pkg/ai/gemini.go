package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini generates through the Gemini API. Schema-constrained requests use
// JSON mode with a response schema.
type Gemini struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{client: client, model: model, log: slog.With("component", "ai", "backend", BackendGemini)}, nil
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	prompt := req.Prompt
	if len(req.Schema) > 0 {
		model.ResponseMIMEType = "application/json"
		if s, err := genaiSchema(req.Schema); err == nil {
			model.ResponseSchema = s
		} else {
			g.log.Warn("response schema not convertible, embedding it in the prompt", "error", err)
			prompt += schemaInstruction(req.Schema)
		}
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", generationError(BackendGemini, 0, err)
	}
	if resp.UsageMetadata != nil {
		g.log.Info("LLM API call",
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
			"elapsed", time.Since(start))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", generationError(BackendGemini, 0, ErrEmptyResponse)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", generationError(BackendGemini, 0, ErrEmptyResponse)
	}
	return sb.String(), nil
}

// genaiSchema converts the subset of JSON schema used by this service
// (type, properties, items, required, local $ref) into a genai.Schema.
func genaiSchema(raw json.RawMessage) (*genai.Schema, error) {
	var root map[string]interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, err
	}
	defs, _ := root["definitions"].(map[string]interface{})
	return convertSchema(root, defs, 0)
}

func convertSchema(node map[string]interface{}, defs map[string]interface{}, depth int) (*genai.Schema, error) {
	if depth > 16 {
		return nil, errors.New("schema nesting too deep")
	}
	if ref, ok := node["$ref"].(string); ok {
		name := strings.TrimPrefix(ref, "#/definitions/")
		target, ok := defs[name].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unresolved schema reference %q", ref)
		}
		return convertSchema(target, defs, depth+1)
	}
	out := &genai.Schema{}
	if d, ok := node["description"].(string); ok {
		out.Description = d
	}
	switch node["type"] {
	case "object":
		out.Type = genai.TypeObject
		props, _ := node["properties"].(map[string]interface{})
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			pm, ok := p.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("property %q is not an object", name)
			}
			child, err := convertSchema(pm, defs, depth+1)
			if err != nil {
				return nil, err
			}
			out.Properties[name] = child
		}
		if req, ok := node["required"].([]interface{}); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					out.Required = append(out.Required, s)
				}
			}
		}
	case "array":
		out.Type = genai.TypeArray
		items, ok := node["items"].(map[string]interface{})
		if !ok {
			return nil, errors.New("array schema without items")
		}
		child, err := convertSchema(items, defs, depth+1)
		if err != nil {
			return nil, err
		}
		out.Items = child
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %v", node["type"])
	}
	return out, nil
}
