package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	productanalyzer "github.com/menta2k/product-analyzer"
	"github.com/menta2k/product-analyzer/internal/config"
	"github.com/menta2k/product-analyzer/internal/utils"
	"github.com/menta2k/product-analyzer/pkg/segment"
	"github.com/menta2k/product-analyzer/pkg/types"
)

const (
	modeArea   = "area"
	modeColors = "colors"
	modeAll    = "all"
)

func main() {
	os.Exit(run())
}

func run() int {
	var in, methodName, mode, outDir, configPath string
	var backend, url, model, logLevel string
	var seed int64
	var preview, asJSON, warmup, probeOnly bool

	flag.StringVar(&in, "in", "", "input image path, directory or URL (jpg/png/gif/webp)")
	flag.StringVar(&methodName, "method", string(types.MethodAdaptiveThreshold), "extraction method: "+methodNames())
	flag.StringVar(&mode, "mode", modeAll, "what to measure: area|colors|all")
	flag.StringVar(&outDir, "out", "", "output directory for previews (overrides config)")
	flag.StringVar(&configPath, "config", "", "config file (default "+config.GetConfigPath()+" when present)")
	flag.Int64Var(&seed, "seed", 0, "clustering seed (0 keeps the configured seed)")
	flag.StringVar(&backend, "backend", "", "segmentation backend: rembg|ollama|llamacpp")
	flag.StringVar(&url, "url", "", "segmentation server URL")
	flag.StringVar(&model, "model", "", "vision model name for ollama/llamacpp backends")
	flag.BoolVar(&preview, "preview", false, "write the contour/rectangle overlay for area measurements")
	flag.BoolVar(&asJSON, "json", false, "print results as JSON")
	flag.BoolVar(&warmup, "warmup", false, "load the segmentation model before processing")
	flag.BoolVar(&probeOnly, "probe", false, "ask the vision backend what it sees and draw its product box, then exit")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")

	flag.Parse()
	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in image.jpg|dir|URL [-method alpha-matte|adaptive-threshold] [-mode area|colors|all] [-json]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		return 2
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if backend != "" {
		cfg.Segmenter.Backend = backend
	}
	if url != "" {
		cfg.Segmenter.URL = url
	}
	if model != "" {
		cfg.Segmenter.Model = model
	}
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if seed != 0 {
		cfg.Colors.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	method, err := types.ParseMethod(methodName)
	if err != nil {
		logger.Error("bad method", "error", err)
		return 2
	}
	if mode != modeArea && mode != modeColors && mode != modeAll {
		logger.Error("bad mode", "mode", mode)
		return 2
	}

	sources, err := utils.ExpandInputs(in)
	if err != nil {
		logger.Error("no input", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if probeOnly {
		if err := probe(ctx, cfg, sources, logger); err != nil {
			logger.Error("probe failed", "error", err, "retryable", types.IsRetryable(err))
			return 1
		}
		return 0
	}

	acfg := productanalyzer.DefaultConfig()
	acfg.Extraction = cfg.ForegroundOptions()
	acfg.Colors = cfg.Colors
	acfg.Stroke = cfg.Area.Stroke
	acfg.Preview = preview
	acfg.Logger = logger
	// Only the alpha-matte method talks to a segmentation server.
	if method == types.MethodAlphaMatte {
		seg, err := segment.New(cfg.SegmentConfig(), logger)
		if err != nil {
			logger.Error("segmenter setup failed", "error", err)
			return 1
		}
		acfg.Segmenter = seg
	}
	analyzer := productanalyzer.NewWithConfig(acfg)

	if warmup && method == types.MethodAlphaMatte {
		start := time.Now()
		if err := analyzer.WarmUp(ctx); err != nil {
			logger.Error("warm-up failed", "error", err, "retryable", types.IsRetryable(err))
			return 1
		}
		logger.Info("segmenter warmed up", "elapsed", time.Since(start))
	}

	if preview {
		if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
			logger.Error("cannot create output directory", "dir", cfg.Output.OutputDir, "error", err)
			return 1
		}
	}

	failed := 0
	records := make([]record, 0, len(sources))
	for _, src := range sources {
		rec := analyze(ctx, analyzer, src, method, mode, cfg, preview, logger)
		if rec.Error != "" {
			failed++
		}
		records = append(records, rec)
		if ctx.Err() != nil {
			break
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		var v any = records
		if len(records) == 1 {
			v = records[0]
		}
		if err := enc.Encode(v); err != nil {
			logger.Error("failed to write output", "error", err)
			return 1
		}
	} else {
		for _, r := range records {
			fmt.Println(r.String())
		}
	}

	if failed > 0 {
		logger.Warn("some inputs failed", "failed", failed, "total", len(records))
		return 1
	}
	return 0
}

func analyze(ctx context.Context, a *productanalyzer.Analyzer, src string, method types.Method, mode string, cfg *config.Config, preview bool, logger *slog.Logger) record {
	rec := record{Source: src, Method: string(method)}
	log := logger.With("source", src)

	in, err := a.LoadImage(ctx, src)
	if err != nil {
		log.Error("load failed", "error", err)
		rec.Error = err.Error()
		return rec
	}
	rec.Size = utils.FormatFileSize(int64(len(in.Data)))
	log.Debug("image loaded", "size", rec.Size, "bounds", in.Image.Bounds().Size())

	var report *productanalyzer.Report
	switch mode {
	case modeArea:
		report, err = a.AreaRatio(ctx, in, method)
	case modeColors:
		report, err = a.Colors(ctx, in, method, cfg.Colors)
	default:
		report, err = a.Analyze(ctx, in, method, cfg.Colors)
	}
	if err != nil {
		log.Error("analysis failed", "error", err, "retryable", types.IsRetryable(err))
		rec.Error = err.Error()
		return rec
	}

	rec.fill(report)
	if preview && report.Area != nil && report.Area.Preview != nil {
		path, err := a.SavePreview(report, cfg.Output.OutputDir, cfg.EncodeOptions())
		if err != nil {
			log.Warn("preview save failed", "error", err)
		} else {
			rec.Preview = path
		}
	}
	return rec
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func methodNames() string {
	names := make([]string, 0, 2)
	for _, m := range types.Methods() {
		names = append(names, m.String())
	}
	return strings.Join(names, "|")
}

// newLogger writes to stderr so stdout stays clean for results.
func newLogger(c config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
