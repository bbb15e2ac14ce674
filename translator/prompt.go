package translator

import (
	"fmt"
	"strings"
	"time"

	"github.com/vantage-org/vantage/schema"
)

// ============================================================================
// PROMPT BUILDER — Schema-driven prompt for NL -> report request
// ============================================================================
// The model sees object/field metadata and the request JSON contract, never
// row data. It translates only; every number is computed locally by the
// engine.
// ============================================================================

// BuildPrompt generates the system prompt for the translator from the
// catalog.
func BuildPrompt(cat *schema.Catalog, today time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a query translator for %q, an analytics reporting application.

CURRENT DATE: %s

YOUR ROLE:
Translate the user's natural language question into a structured report request
that a computation engine will execute. You are a TRANSLATOR ONLY — never
compute values yourself.

DATA MODEL:
`, cat.Name, today.Format("2006-01-02"))

	for _, name := range cat.ObjectNames() {
		obj := cat.Objects[name]
		fmt.Fprintf(&b, "- %s (%s): ", name, obj.Label)
		var fields []string
		for _, f := range obj.Fields {
			desc := fmt.Sprintf("%s [%s]", f.Name, f.Type)
			if f.Unit != "" {
				desc += " unit=" + f.Unit
			}
			if len(f.Enum) > 0 {
				desc += " values=" + strings.Join(f.Enum, "|")
			}
			fields = append(fields, desc)
		}
		b.WriteString(strings.Join(fields, ", "))
		b.WriteString("\n")
	}

	if len(cat.Relationships) > 0 {
		b.WriteString("\nRELATIONSHIPS (fields on related objects are reachable through these):\n")
		for _, r := range cat.Relationships {
			fmt.Fprintf(&b, "- %s.%s -> %s.%s\n", r.Source, r.SourceField, r.Target, r.TargetField)
		}
	}

	b.WriteString(`
REQUEST CONTRACT (respond with exactly one JSON object of this shape):
{
  "title": "short report title",
  "summary": "one sentence restating what will be computed",
  "confidence": 0.0-1.0,
  "request": {
    "formula": {
      "blocks": [{
        "id": "a",
        "name": "Revenue",
        "source": {"object": "payment", "field": "amount"},
        "op": "sum|count|avg|min|max|distinct_count",
        "type": "sum_over_period|latest|first",
        "filters": [{"field": {"object": "payment", "field": "status"},
                     "operator": "equals|not_equals|in|between|greater_than|less_than|contains|is_true|is_false",
                     "value": "succeeded"}]
      }],
      "calculation": {"operator": "add|subtract|multiply|divide",
                      "leftOperand": "a", "rightOperand": "b",
                      "resultUnitType": "count|currency|volume|rate"}
    },
    "start": "YYYY-MM-DDT00:00:00Z",
    "end": "YYYY-MM-DDT00:00:00Z",
    "granularity": "day|week|month|quarter|year",
    "filters": [],
    "compare": "previous_period|previous_year|period_start",
    "groupBy": {"field": {"object": "payment", "field": "currency"}, "values": ["usd", "eur"]}
  }
}

RULES:
- "sum_over_period" is for flow metrics (revenue in a month); "latest" is for
  stock metrics (active subscriber count as of each bucket).
- Omit "calculation" for a single metric. With a calculation, supply two
  blocks and reference their ids.
- Omit "compare" and "groupBy" unless the user asks for a comparison or a
  breakdown.
- Only use objects, fields and enum values from the DATA MODEL above.
`)

	return b.String()
}
