package translator

import (
	"go.uber.org/zap"

	"github.com/vantage-org/vantage/engine"
)

// Config configures the Gemini translator.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// TranslateResult is a parsed, engine-ready report request plus what the
// model understood.
type TranslateResult struct {
	Request    engine.ReportRequest `json:"request"`
	Summary    string               `json:"summary,omitempty"`
	Confidence float64              `json:"confidence"`
}
