package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/ontograph/internal/config"
	"github.com/efebarandurmaz/ontograph/internal/dataset"
	"github.com/efebarandurmaz/ontograph/internal/observability"
	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/store"
)

// app carries state shared by every subcommand.
type app struct {
	out        io.Writer
	configPath string
	logLevel   string
	logFormat  string
	skip       bool
	auditPath  string

	cfg    *config.Config
	logger *slog.Logger
	audit  *observability.AuditLogger
	tracer *observability.TracerProvider
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "ontograph",
		Short:         "Multi-ontology knowledge graph analysis across product variants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd.Context())
		},
	}
	rootCmd.SetOut(out)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file path (defaults plus ONTOGRAPH_* env when empty)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&a.skip, "skip-dangling", false, "Skip edges whose endpoints are missing instead of failing")
	pf.StringVar(&a.auditPath, "audit", "", "Append JSON-lines audit events to this file")

	rootCmd.AddCommand(
		a.analyzeCmd(),
		a.traverseCmd(),
		a.pathCmd(),
		a.overlapCmd(),
		a.cyclesCmd(),
		a.exportCmd(),
		a.recommendCmd(),
		a.validateCmd(),
		a.snapshotCmd(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if cmd.Flags().Changed("skip-dangling") {
		cfg.Dataset.SkipDangling = a.skip
	}
	a.cfg = cfg

	a.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	for _, w := range cfg.Validate() {
		a.logger.Warn("config", "warning", w)
	}

	a.audit, err = observability.NewAuditLogger(observability.AuditConfig{
		Enabled:    a.auditPath != "",
		OutputPath: a.auditPath,
	})
	if err != nil {
		return err
	}

	a.tracer, err = observability.InitTracing(cmd.Context(), &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: "0.1.0",
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	return err
}

func (a *app) teardown(ctx context.Context) error {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown", "error", err)
		}
	}
	return a.audit.Close()
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadGraph reads a dataset and builds its store. The result lists edges
// skipped when skip_dangling is on.
func (a *app) loadGraph(ctx context.Context, path string) (*store.Graph, dataset.BuildResult, error) {
	_, span := observability.StartLoadSpan(ctx, path)
	defer span.End()

	doc, err := dataset.Load(path)
	if err != nil {
		observability.RecordError(span, err)
		return nil, dataset.BuildResult{}, err
	}
	g, res, err := dataset.Build(doc, dataset.BuildOptions{
		SkipDangling: a.cfg.Dataset.SkipDangling,
		Logger:       a.logger,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, res, fmt.Errorf("build graph from %s: %w", path, err)
	}
	observability.RecordLoadResult(span, g.NodeCount(), g.EdgeCount(), len(res.Skipped))
	a.audit.LogDatasetLoad(path, dataset.ContentHash(doc), g.NodeCount(), g.EdgeCount(), len(res.Skipped))
	return g, res, nil
}

func (a *app) functionalLevels() []string {
	if len(a.cfg.Analysis.FunctionalLevels) == 0 {
		return ontology.LevelOrder(ontology.LayerFunctional)
	}
	return a.cfg.Analysis.FunctionalLevels
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("wrote output", "path", path, "bytes", len(data))
	return nil
}
