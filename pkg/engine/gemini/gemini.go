// Package gemini implements the reasoning engine boundary on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/voicegate/pkg/audio"
	"github.com/vango-go/voicegate/pkg/engine"
	"github.com/vango-go/voicegate/pkg/tools"
)

const defaultModel = "gemini-2.0-flash"

const systemInstruction = "You are a helpful assistant who can answer questions about the time and weather in a city."

// Config holds Gemini client settings.
type Config struct {
	APIKey string
	Model  string
}

// Engine calls the Gemini API. One GenerateContent round per Generate call.
type Engine struct {
	client *genai.Client
	model  string
}

// New builds a Gemini engine. The model defaults to gemini-2.0-flash.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Engine{client: client, model: model}, nil
}

// Generate submits the turn to Gemini and maps the response to an Outcome.
// A function call in the response wins over any interleaved text.
func (e *Engine) Generate(ctx context.Context, req *engine.Request) (engine.Outcome, error) {
	resp, err := e.client.Models.GenerateContent(ctx, e.model, buildContents(req), buildConfig(req.Catalog))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: response carried no candidates")
	}

	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			return engine.ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: stringArgs(part.FunctionCall.Args),
			}, nil
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return engine.Reply{Text: strings.Join(texts, "")}, nil
}

// buildContents lays out the turn as Gemini content: the user utterance,
// then the tool round-trip (if one happened) as a model function call
// followed by a user function response.
func buildContents(req *engine.Request) []*genai.Content {
	userPart := &genai.Part{Text: req.Utterance.Text}
	if req.Utterance.IsAudio() {
		userPart = &genai.Part{InlineData: &genai.Blob{
			MIMEType: "audio/wav",
			Data:     audio.WrapWAV(req.Utterance.Audio, audio.TargetSampleRate, audio.TargetChannels),
		}}
	}

	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{userPart}},
	}

	if req.Exchange != nil {
		callArgs := make(map[string]any, len(req.Exchange.Call.Arguments))
		for k, v := range req.Exchange.Call.Arguments {
			callArgs[k] = v
		}
		contents = append(contents,
			&genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{
				FunctionCall: &genai.FunctionCall{Name: req.Exchange.Call.Name, Args: callArgs},
			}}},
			&genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					Name:     req.Exchange.Call.Name,
					Response: resultResponse(req.Exchange.Result),
				},
			}}},
		)
	}
	return contents
}

func buildConfig(catalog []tools.Definition) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	if len(catalog) == 0 {
		return config
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, def := range catalog {
		props := make(map[string]*genai.Schema, len(def.Parameters))
		for name, p := range def.Parameters {
			props[name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   def.Required,
			},
		})
	}
	config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	return config
}

// resultResponse flattens a tool result into the function response map the
// API expects, mirroring the status/report/error_message contract.
func resultResponse(result tools.Result) map[string]any {
	out := map[string]any{"status": string(result.Status)}
	for k, v := range result.Payload {
		out[k] = v
	}
	if result.ErrorMessage != "" {
		out["error_message"] = result.ErrorMessage
	}
	return out
}

func stringArgs(args map[string]any) map[string]string {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]string, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
