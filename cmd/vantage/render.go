package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vantage-org/vantage/engine"
)

// writeResult renders a report result as a terminal table or JSON.
func writeResult(result *engine.ReportResult, format, out string) error {
	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return writeJSON(w, result, false)
	case "pretty":
		return writeJSON(w, result, true)
	default:
		renderTable(w, result)
		return nil
	}
}

func renderTable(w io.Writer, result *engine.ReportResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if result.Title != "" {
		t.SetTitle(result.Title)
	}

	header := table.Row{"Bucket", "Value"}
	if result.Comparison != nil {
		header = append(header, "Comparison ("+string(result.Comparison.Mode)+")")
	}
	for _, g := range result.Groups {
		header = append(header, g.Value)
	}
	t.AppendHeader(header)

	for i, p := range result.Series {
		row := table.Row{p.Date, fmtNum(p.Value)}
		if result.Comparison != nil {
			if i < len(result.Comparison.Series) {
				row = append(row, fmtNum(result.Comparison.Series[i].Value))
			} else {
				row = append(row, "")
			}
		}
		for _, g := range result.Groups {
			if i < len(g.Result.Series) {
				row = append(row, fmtNum(g.Result.Series[i].Value))
			} else {
				row = append(row, "")
			}
		}
		t.AppendRow(row)
	}

	t.AppendFooter(table.Row{"Total (" + string(result.Unit) + ")", fmtNum(result.Value)})
	t.Render()

	if result.Note != "" {
		fmt.Fprintln(w, "Note:", result.Note)
	}
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
