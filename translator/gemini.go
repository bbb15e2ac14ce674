package translator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/vantage-org/vantage/schema"
)

// ============================================================================
// GEMINI TRANSLATOR — NL question -> engine.ReportRequest
// ============================================================================
// The only code in this repository that calls an external service. Everything
// downstream of the returned request is pure local computation.
// ============================================================================

const defaultModel = "gemini-2.0-flash"

// Gemini translates natural language questions via the Gemini API.
type Gemini struct {
	cfg Config
	log *zap.Logger
}

// NewGemini creates a translator.
func NewGemini(cfg Config) *Gemini {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{cfg: cfg, log: log}
}

// Translate converts a question into a report request against the catalog.
func (g *Gemini) Translate(ctx context.Context, question string, cat *schema.Catalog) (*TranslateResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	prompt := BuildPrompt(cat, time.Now().UTC())

	g.log.Debug("translating question",
		zap.String("model", g.cfg.Model),
		zap.String("catalog", cat.Name),
		zap.Int("question_len", len(question)))

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(question), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompt}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	result, err := ParseResponse(text)
	if err != nil {
		return nil, err
	}

	g.log.Debug("translated question",
		zap.Float64("confidence", result.Confidence),
		zap.Int("blocks", len(result.Request.Formula.Blocks)))

	return result, nil
}
