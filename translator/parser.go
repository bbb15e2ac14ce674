package translator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-org/vantage/engine"
)

// ParseResponse extracts a TranslateResult from a model response, tolerating
// markdown code fences and filling in defaults the model omitted.
func ParseResponse(response string) (*TranslateResult, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var result TranslateResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("parse translator response: %w (response: %.200s)", err, response)
	}

	applyDefaults(&result.Request)
	return &result, nil
}

// applyDefaults fills the gaps models commonly leave: block ids, aggregation
// defaults, granularity, and a trailing-year range when none was given.
func applyDefaults(req *engine.ReportRequest) {
	for i := range req.Formula.Blocks {
		b := &req.Formula.Blocks[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.Op == "" {
			b.Op = engine.AggSum
		}
		if b.Type == "" {
			b.Type = engine.TemporalSumOverPeriod
		}
	}

	if req.Granularity == "" {
		req.Granularity = engine.GranMonth
	}

	if req.Start.IsZero() || req.End.IsZero() {
		now := time.Now().UTC()
		req.End = now
		req.Start = now.AddDate(-1, 0, 0)
	}
}
