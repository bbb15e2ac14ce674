package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vantage-org/vantage/engine"
	"github.com/vantage-org/vantage/helpers"
	"github.com/vantage-org/vantage/schema"
	"github.com/vantage-org/vantage/translator"
)

const version = "0.1.0"

// cliConfig is resolved from defaults, an optional vantage.yaml, VANTAGE_*
// environment variables, then flags.
type cliConfig struct {
	Data    string `koanf:"data"`
	Schema  string `koanf:"schema"`
	Model   string `koanf:"model"`
	Verbose bool   `koanf:"verbose"`
}

var (
	cfg    cliConfig
	logger *zap.Logger
)

func main() {
	// .env is optional; ignore absence.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "vantage",
		Short:   "Ad-hoc analytics reports over an in-memory warehouse",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
	}

	root.PersistentFlags().String("data", "", "directory of entity tables (*.json, *.csv)")
	root.PersistentFlags().String("schema", "", "schema catalog YAML (omit to auto-discover)")
	root.PersistentFlags().String("config", "", "config file (default vantage.yaml if present)")
	root.PersistentFlags().Bool("verbose", false, "debug logging")

	root.AddCommand(runCmd(), askCmd(), validateCmd(), inspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command) error {
	k := koanf.New(".")

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		if _, err := os.Stat("vantage.yaml"); err == nil {
			configPath = "vantage.yaml"
		}
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("VANTAGE_", ".", envTransform), nil); err != nil {
		return err
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return err
	}

	// Flags win over file and environment.
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		cfg.Data = v
	}
	if v, _ := cmd.Flags().GetString("schema"); v != "" {
		cfg.Schema = v
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = true
	}

	var err error
	if cfg.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	return err
}

func envTransform(s string) string {
	// VANTAGE_DATA -> data
	return strings.ToLower(strings.TrimPrefix(s, "VANTAGE_"))
}

// loadWorkspace loads the warehouse and catalog per config: an explicit
// catalog file wins; otherwise the catalog is discovered from the data.
func loadWorkspace() (*engine.Warehouse, *schema.Catalog, error) {
	if cfg.Data == "" {
		return nil, nil, fmt.Errorf("--data is required")
	}

	if cfg.Schema != "" {
		cat, err := schema.Load(cfg.Schema)
		if err != nil {
			return nil, nil, err
		}
		w, err := helpers.LoadWarehouseDir(cfg.Data, cat)
		if err != nil {
			logger.Warn("some tables failed to load", zap.Error(err))
		}
		return w, cat, nil
	}

	// Discovery pass: load with no catalog, infer one, reload canonically.
	raw, err := helpers.LoadWarehouseDir(cfg.Data, nil)
	if err != nil {
		logger.Warn("some tables failed to load", zap.Error(err))
	}

	tables := make(map[string][]map[string]any)
	for name, rows := range raw.Tables() {
		converted := make([]map[string]any, len(rows))
		for i, row := range rows {
			converted[i] = row
		}
		tables[name] = converted
	}
	cat := schema.Discover("discovered", tables)

	w := engine.NewWarehouse(cat)
	for name, rows := range raw.Tables() {
		w.SetTable(name, rows)
	}
	return w, cat, nil
}

func runCmd() *cobra.Command {
	var reportPath, format, out string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a report configuration against the warehouse",
		RunE: func(_ *cobra.Command, _ []string) error {
			w, cat, err := loadWorkspace()
			if err != nil {
				return err
			}

			req, err := readRequest(reportPath)
			if err != nil {
				return err
			}

			eng := engine.New(cat, engine.WithLogger(logger))
			result, err := eng.RunReport(w, *req)
			if err != nil {
				return err
			}

			return writeResult(result, format, out)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report request JSON file (required)")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, pretty")
	cmd.Flags().StringVar(&out, "out", "", "write output to file instead of stdout")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func askCmd() *cobra.Command {
	var format, out, model string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Translate a natural language question and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey := os.Getenv("GEMINI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("GEMINI_API_KEY is required for ask")
			}

			w, cat, err := loadWorkspace()
			if err != nil {
				return err
			}

			if model == "" {
				model = cfg.Model
			}
			tr := translator.NewGemini(translator.Config{APIKey: apiKey, Model: model, Logger: logger})
			translated, err := tr.Translate(cmd.Context(), args[0], cat)
			if err != nil {
				return err
			}
			logger.Info("translated question",
				zap.String("summary", translated.Summary),
				zap.Float64("confidence", translated.Confidence))

			eng := engine.New(cat, engine.WithLogger(logger))
			result, err := eng.RunReport(w, translated.Request)
			if err != nil {
				return err
			}

			return writeResult(result, format, out)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json, pretty")
	cmd.Flags().StringVar(&out, "out", "", "write output to file instead of stdout")
	cmd.Flags().StringVar(&model, "model", "", "Gemini model name")
	return cmd
}

func validateCmd() *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a report configuration without running it",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, cat, err := loadWorkspace()
			if err != nil {
				return err
			}

			req, err := readRequest(reportPath)
			if err != nil {
				return err
			}

			eng := engine.New(cat, engine.WithLogger(logger))
			res := eng.ValidateRequest(*req)
			return writeJSON(os.Stdout, res, true)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report request JSON file (required)")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the effective schema catalog",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, cat, err := loadWorkspace()
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, cat, true)
		},
	}
}

func readRequest(path string) (*engine.ReportRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var req engine.ReportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &req, nil
}
