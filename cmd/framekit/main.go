package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ajitpratap0/framekit/internal/command"
	"github.com/ajitpratap0/framekit/internal/pipeline"
	"github.com/ajitpratap0/framekit/pkg/compression"
	"github.com/ajitpratap0/framekit/pkg/config"
	"github.com/ajitpratap0/framekit/pkg/errors"
	"github.com/ajitpratap0/framekit/pkg/frame"
	"github.com/ajitpratap0/framekit/pkg/logger"
	"github.com/ajitpratap0/framekit/pkg/metrics"
	"github.com/ajitpratap0/framekit/pkg/observability"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "framekit",
		Short: "framekit - memory-mapped frame pipelines for financial time series",
		Long: `framekit loads DATE-indexed CSV tables into memory-mapped frames and runs
pipe-delimited transform pipelines over them on a worker pool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "framekit v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "ops",
		Short: "List pipeline operations",
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, op := range command.Ops() {
				fmt.Fprintf(tw, "  %s\t%s\n", op.Usage(), op.Summary())
			}
			tw.Flush()
		},
	})

	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var input, configFile string

	runCmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "Run a frame pipeline",
		Long: `Run a pipe-delimited pipeline. Unless the pipeline starts with load, the
initial frame is read from --input or, when omitted, from stdin.

Example:
  framekit run --input prices.csv "dlog | -> r | cumsum 100 | save out.csv.zst"
  cat prices.csv | framekit run "after 2020-01-01 | describe"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runPipeline(cmd, cfg, args[0], input)
		},
	}

	flags := runCmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "Input CSV file (default stdin)")
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	flags.String("layout", "col", "Buffer layout of loaded frames (row, col)")
	flags.Int("workers", 0, "Block engine workers (0 = one per physical core)")
	flags.String("scratch-dir", "", "Directory for disk-backed scratch buffers")
	flags.Int("summary-threshold", config.DefaultSummaryThreshold, "Rows above which terminal output is summarized")
	flags.Int("compression-concurrency", 0, "Encoder goroutines for lz4, zstd and s2 saves (0 = codec default)")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.Bool("trace", false, "Write OpenTelemetry spans to stderr")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file at exit")

	return runCmd
}

// settings binds each configuration key to its flag. Keys double as the
// FRAMEKIT_* environment variable names.
var settings = []struct {
	key  string
	flag string
}{
	{"workers", "workers"},
	{"layout", "layout"},
	{"scratch_dir", "scratch-dir"},
	{"summary_threshold", "summary-threshold"},
	{"compression_concurrency", "compression-concurrency"},
	{"log_level", "log-level"},
	{"trace", "trace"},
	{"metrics_file", "metrics-file"},
}

// loadConfig resolves the configuration with precedence flags > environment >
// config file > defaults
func loadConfig(path string, flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load config").WithDetail("path", path)
		}
		cfg = loaded
	}

	v := viper.New()
	v.SetEnvPrefix("FRAMEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("workers", cfg.Engine.Workers)
	v.SetDefault("layout", cfg.Frame.Layout)
	v.SetDefault("scratch_dir", cfg.Engine.ScratchDir)
	v.SetDefault("summary_threshold", cfg.Output.SummaryThreshold)
	v.SetDefault("compression_concurrency", cfg.Output.CompressionConcurrency)
	v.SetDefault("log_level", cfg.Observability.LogLevel)
	v.SetDefault("trace", cfg.Observability.EnableTracing)
	v.SetDefault("metrics_file", cfg.Observability.MetricsFile)

	for _, s := range settings {
		if err := v.BindPFlag(s.key, flags.Lookup(s.flag)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to bind flag").WithDetail("flag", s.flag)
		}
	}

	cfg.Engine.Workers = v.GetInt("workers")
	cfg.Frame.Layout = v.GetString("layout")
	cfg.Engine.ScratchDir = v.GetString("scratch_dir")
	cfg.Output.SummaryThreshold = v.GetInt("summary_threshold")
	cfg.Output.CompressionConcurrency = v.GetInt("compression_concurrency")
	cfg.Observability.LogLevel = v.GetString("log_level")
	cfg.Observability.EnableTracing = v.GetBool("trace")
	cfg.Observability.MetricsFile = v.GetString("metrics_file")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPipeline(cmd *cobra.Command, cfg *config.Config, pipelineText, input string) (err error) {
	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogFormat,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid logging configuration")
	}
	defer logger.Sync()
	log := logger.Get()

	ctx := context.WithValue(cmd.Context(), logger.PipelineKey, pipelineText)

	if cfg.Observability.EnableTracing {
		tc := observability.DefaultTracingConfig()
		tc.ServiceVersion = version
		tc.SamplingRate = cfg.Observability.TracingSampleRate
		shutdown, err := observability.InitTracing(tc)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
		}
		defer shutdown(context.Background())
	}

	if path := cfg.Observability.MetricsFile; path != "" {
		defer func() {
			if werr := metrics.WriteTextfile(path); werr != nil && err == nil {
				err = errors.Wrap(werr, errors.ErrorTypeFile, "failed to write metrics").WithDetail("path", path)
			}
		}()
	}

	layout, _ := cfg.Frame.ParsedLayout()
	level, _ := compression.ParseLevel(cfg.Output.CompressionLevel)

	engine := pipeline.NewEngine(pipeline.Config{
		Workers:    cfg.Engine.GetWorkers(),
		ScratchDir: cfg.Engine.ScratchDir,
	}, log)
	d := command.NewDispatcher(engine, command.Options{
		Output:                 cmd.OutOrStdout(),
		ScratchDir:             cfg.Engine.ScratchDir,
		SummaryThreshold:       cfg.Output.SummaryThreshold,
		CompressionLevel:       level,
		CompressionConcurrency: cfg.Output.CompressionConcurrency,
		Logger:                 log,
	})

	steps, err := command.Parse(pipelineText)
	if err != nil {
		return err
	}

	var initial *frame.Frame
	if command.NeedsInput(steps) {
		initial, err = readInput(d, input, layout, frame.Options{ScratchDir: cfg.Engine.ScratchDir, Logger: log})
		if err != nil {
			return err
		}
	}

	ec := command.NewContext(initial, layout)
	defer ec.Close()

	err = observability.Trace(ctx, "pipeline", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("steps", len(steps))
		span.SetAttribute("layout", layout)
		if err := d.Run(ctx, ec, steps); err != nil {
			return err
		}
		return d.Finish(ec)
	})
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Debug("pipeline finished",
		zap.Int("steps", len(steps)),
		zap.Duration("elapsed", ec.Elapsed()),
		zap.Int("workers", engine.Workers()))
	return nil
}

// readInput loads the initial frame from path, or from stdin when path is empty
func readInput(d *command.Dispatcher, path string, layout frame.Layout, opts frame.Options) (*frame.Frame, error) {
	if path != "" {
		return d.ReadFrame(path, layout)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New(errors.ErrorTypeValidation, "no input: pass --input, pipe CSV on stdin or start the pipeline with load")
	}
	return frame.FromReader(os.Stdin, layout, opts)
}
