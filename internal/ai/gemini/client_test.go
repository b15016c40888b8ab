package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls []fakeCall
}

type fakeCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, fakeCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, text := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorGenerateContent(t *testing.T) {
	models := &fakeModels{resp: textResponse(" {\"patient_id\": ", "", "\"P-1\"} ")}
	g := &Generator{models: models, model: "gemini-2.5-flash", logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "  extract this  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "{\"patient_id\":\n\"P-1\"}" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}

	call := models.calls[0]
	if call.model != "gemini-2.5-flash" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config == nil || call.config.Temperature == nil || *call.config.Temperature != 0 {
		t.Fatalf("expected temperature 0 to be sent, got %+v", call.config)
	}
	if got := call.contents[0].Parts[0].Text; got != "extract this" {
		t.Fatalf("unexpected prompt sent: %q", got)
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := &Generator{models: models, model: "gemini-2.5-flash", logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected api error to be wrapped, got %v", err)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected a single call, got %d", len(models.calls))
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: textResponse("   ")}, model: "m", logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{}
	g := &Generator{models: models, model: "m", logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), " \n "); err == nil {
		t.Fatal("expected error for empty prompt")
	}

	if len(models.calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(models.calls))
	}

	var nilGenerator *Generator
	if _, err := nilGenerator.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for nil generator")
	}
}

func TestNewGeneratorModel(t *testing.T) {
	g, err := NewGenerator(context.Background(), "test-key", "  ", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != defaultModel {
		t.Fatalf("expected default model %q, got %q", defaultModel, g.Model())
	}

	g, err = NewGenerator(context.Background(), "test-key", "gemini-2.5-pro", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != "gemini-2.5-pro" {
		t.Fatalf("unexpected model: %q", g.Model())
	}

	var missing *Generator
	if missing.Model() != "" {
		t.Fatalf("expected empty model for nil generator")
	}
}
