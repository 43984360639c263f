package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
	"github.com/felixgeelhaar/ngr/internal/exitcodes"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/config"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/logsink"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/report"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/wizard"
	"github.com/felixgeelhaar/ngr/internal/mcp"
	"github.com/felixgeelhaar/ngr/internal/pathutil"
)

var initWizard = wizard.Run

var serveMCP = func(ctx context.Context, svc Service, cfg application.Config) error {
	return mcp.New(svc, cfg, Version).Run(ctx)
}

var newWatcher = func(logger *slog.Logger) (application.FileWatcher, error) {
	return watcher.New(watcher.WithDebounce(watchDebounce), watcher.WithLogger(logger))
}

type runner struct {
	stdout   io.Writer
	stderr   io.Writer
	stdin    io.Reader
	build    Builder
	logger   *slog.Logger
	reporter report.Writer
	loader   config.Loader
}

// Run executes the command line and returns the process exit code.
// SIGINT and SIGTERM cancel running dispatches.
func Run(args []string, stdout, stderr io.Writer, build Builder) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, args, stdout, stderr, build)
}

func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer, build Builder) int {
	r := &runner{
		stdout: stdout,
		stderr: stderr,
		stdin:  os.Stdin,
		build:  build,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	err := r.app().RunContext(ctx, args)
	if err == nil {
		return exitcodes.Success
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(stderr, "ngr: %s\n", msg)
		}
		return exitErr.ExitCode()
	}
	fmt.Fprintf(stderr, "ngr: %v\n", err)
	return exitcodes.UsageErr
}

func (r *runner) app() *cli.App {
	return &cli.App{
		Name:           "ngr",
		Usage:          "Run the tests of any project with its own tool-chain",
		Version:        fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		Writer:         r.stdout,
		ErrWriter:      r.stderr,
		Flags:          globalFlags(),
		Before:         r.setupLogging,
		OnUsageError:   onUsageError,
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return usageErr("unknown command %q", c.Args().First())
			}
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			{
				Name:         "test",
				Usage:        "Detect the ecosystem of each target and run its tests",
				ArgsUsage:    "TARGET...",
				Flags:        testFlags(),
				OnUsageError: onUsageError,
				Action:       r.test,
			},
			{
				Name:         "detect",
				Usage:        "Show candidates and planned steps without running them",
				ArgsUsage:    "[TARGET]",
				Flags:        detectFlags(),
				OnUsageError: onUsageError,
				Action:       r.detect,
			},
			{
				Name:         "list",
				Usage:        "List supported ecosystems",
				Flags:        []cli.Flag{outputFlag()},
				OnUsageError: onUsageError,
				Action:       r.list,
			},
			{
				Name:         "mcp",
				Usage:        "Serve test, detect and list as MCP tools over stdio",
				Flags:        mcpFlags(),
				OnUsageError: onUsageError,
				Action:       r.serve,
			},
			{
				Name:         "init",
				Usage:        "Write a config file with the interactive wizard",
				ArgsUsage:    "[TARGET]",
				Flags:        initFlags(),
				OnUsageError: onUsageError,
				Action:       r.init,
			},
		},
	}
}

func (r *runner) setupLogging(c *cli.Context) error {
	color := logsink.Color(c.String(LogColorFlagName))
	switch color {
	case logsink.ColorAuto, logsink.ColorAlways, logsink.ColorNever:
	default:
		return usageErr("invalid log color %q", color)
	}
	logger, err := logsink.NewLogger(r.stderr, logsink.Options{
		Level:  c.String(LogLevelFlagName),
		Format: logsink.Format(c.String(LogFormatFlagName)),
		Color:  color,
	})
	if err != nil {
		return usageErr("%v", err)
	}
	r.logger = logger
	return nil
}

func (r *runner) test(c *cli.Context) error {
	targets := c.Args().Slice()
	if len(targets) == 0 {
		return usageErr("test requires at least one TARGET")
	}
	format, err := parseOutput(c.String(OutputFlagName))
	if err != nil {
		return err
	}
	cfg, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := r.service(cfg)
	if err != nil {
		return err
	}

	opts := application.TestOptions{Targets: targets, Config: cfg}
	if c.Bool(WatchFlagName) {
		return r.watch(c.Context, svc, opts, format)
	}
	outcomes, err := svc.Test(c.Context, opts)
	if err != nil {
		return runtimeErr(err)
	}
	if err := r.reporter.Write(r.stdout, outcomes, format); err != nil {
		return runtimeErr(err)
	}
	if code := exitcodes.ForOutcomes(outcomes); code != exitcodes.Success {
		return cli.Exit("", code)
	}
	return nil
}

func (r *runner) watch(ctx context.Context, svc Service, opts application.TestOptions, format application.OutputFormat) error {
	w, err := newWatcher(r.logger)
	if err != nil {
		return runtimeErr(fmt.Errorf("create watcher: %w", err))
	}
	defer w.Close()

	fmt.Fprintln(r.stdout, "Watching for file changes... (Ctrl+C to stop)")
	callback := func(runNumber int, outcomes []domain.DispatchOutcome, runErr error) {
		fmt.Fprintf(r.stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if runErr != nil {
			r.logger.Error("test run failed", "run", runNumber, "error", runErr)
			return
		}
		if err := r.reporter.Write(r.stdout, outcomes, format); err != nil {
			r.logger.Error("write report", "error", err)
		}
	}

	if err := svc.Watch(ctx, opts, w, callback); err != nil && !errors.Is(err, context.Canceled) {
		return runtimeErr(err)
	}
	return nil
}

func (r *runner) detect(c *cli.Context) error {
	if c.NArg() > 1 {
		return usageErr("detect takes a single TARGET")
	}
	target := c.Args().First()
	if target == "" {
		target = "."
	}
	format, err := parseOutput(c.String(OutputFlagName))
	if err != nil {
		return err
	}
	cfg, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := r.service(cfg)
	if err != nil {
		return err
	}
	res, err := svc.Detect(c.Context, application.DetectOptions{Target: target, Config: cfg})
	if err != nil {
		return runtimeErr(err)
	}
	if err := r.reporter.WriteDetect(r.stdout, res, format); err != nil {
		return runtimeErr(err)
	}
	if res.Err != nil {
		return cli.Exit("", exitcodes.ForError(res.Err))
	}
	return nil
}

func (r *runner) list(c *cli.Context) error {
	format, err := parseOutput(c.String(OutputFlagName))
	if err != nil {
		return err
	}
	svc := r.build(config.Default(), r.logger, r.stderr)
	if err := r.reporter.WriteEcosystems(r.stdout, svc.Ecosystems(), format); err != nil {
		return runtimeErr(err)
	}
	return nil
}

func (r *runner) serve(c *cli.Context) error {
	if c.NArg() > 0 {
		return usageErr("mcp takes no arguments")
	}
	cfg, err := r.loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := r.service(cfg)
	if err != nil {
		return err
	}
	r.logger.Info("serving MCP over stdio")
	if err := serveMCP(c.Context, svc, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return runtimeErr(err)
	}
	return nil
}

func (r *runner) init(c *cli.Context) error {
	if c.NArg() > 1 {
		return usageErr("init takes a single TARGET")
	}
	target := c.Args().First()
	if target == "" {
		target = "."
	}
	dir, err := pathutil.ValidateTarget(target)
	if err != nil {
		return runtimeErr(fmt.Errorf("%w: %v", domain.ErrInvalidTarget, err))
	}
	path := c.String(ConfigFlagName)
	if path == "" {
		path = filepath.Join(dir, config.DefaultPath)
	}
	force := c.Bool(ForceFlagName)

	cfg := config.Default()
	exists, err := r.loader.Exists(path)
	if err != nil {
		return runtimeErr(err)
	}
	if exists {
		if !force {
			return usageErr("config %s already exists (use --force to overwrite)", path)
		}
		if cfg, err = r.loader.Load(path); err != nil {
			return usageErr("%v", err)
		}
	}

	if !c.Bool(NoInteractiveFlagName) {
		svc := r.build(cfg, r.logger, r.stderr)
		res, err := svc.Detect(c.Context, application.DetectOptions{Target: dir, Config: cfg})
		if err != nil {
			return runtimeErr(err)
		}
		var confirmed bool
		cfg, confirmed, err = initWizard(cfg, dir, res.Candidates, svc.Ecosystems(), r.stdout, r.stdin)
		if err != nil {
			return runtimeErr(err)
		}
		if !confirmed {
			fmt.Fprintln(r.stdout, "Init cancelled; no configuration written.")
			return nil
		}
	}
	if err := writeConfigFile(path, cfg); err != nil {
		return runtimeErr(err)
	}
	fmt.Fprintf(r.stdout, "Config written to %s\n", path)
	return nil
}

func (r *runner) service(cfg application.Config) (Service, error) {
	svc := r.build(cfg, r.logger, r.stderr)
	known := svc.Ecosystems()
	for _, eco := range cfg.Prefer {
		if !slices.Contains(known, eco) {
			return nil, usageErr("unknown ecosystem %q in prefer", eco)
		}
	}
	return svc, nil
}

// loadConfig merges flags over the config file over defaults. A config path
// given explicitly must exist.
func (r *runner) loadConfig(c *cli.Context) (application.Config, error) {
	path := c.String(ConfigFlagName)
	cfg := config.Default()
	exists, err := r.loader.Exists(path)
	if err != nil {
		return cfg, runtimeErr(err)
	}
	switch {
	case exists:
		if cfg, err = r.loader.Load(path); err != nil {
			return cfg, usageErr("%v", err)
		}
		r.logger.Debug("loaded config", "path", path)
	case c.IsSet(ConfigFlagName):
		return cfg, usageErr("%v: %s", application.ErrConfigNotFound, path)
	}

	if c.IsSet(AcceptNoVenvFlagName) {
		cfg.Options.AcceptNoVenv = c.Bool(AcceptNoVenvFlagName)
	}
	if c.IsSet(WrapperRegenerateFlagName) {
		cfg.Options.WrapperRegenerate = c.Bool(WrapperRegenerateFlagName)
	}
	if c.IsSet(DotnetVersionFlagName) {
		cfg.Options.DotnetVersion = c.String(DotnetVersionFlagName)
	}
	if c.IsSet(NpgsqlVersionFlagName) {
		cfg.Options.NpgsqlVersion = c.String(NpgsqlVersionFlagName)
	}
	if c.IsSet(ToolVersionFlagName) {
		cfg.Options.ToolVersion = c.String(ToolVersionFlagName)
	}
	if c.IsSet(TaskFlagName) {
		cfg.Options.Task = c.String(TaskFlagName)
	}
	if c.IsSet(PreferFlagName) {
		cfg.Prefer = nil
		for _, p := range c.StringSlice(PreferFlagName) {
			cfg.Prefer = append(cfg.Prefer, domain.Ecosystem(p))
		}
	}
	if c.IsSet(TimeoutFlagName) {
		cfg.Timeout = c.Duration(TimeoutFlagName)
	}
	if c.IsSet(GracePeriodFlagName) || cfg.GracePeriod == 0 {
		cfg.GracePeriod = c.Duration(GracePeriodFlagName)
	}
	if c.IsSet(CaptureFlagName) {
		cfg.Capture = application.CaptureMode(c.String(CaptureFlagName))
	}
	if c.IsSet(ParallelFlagName) {
		cfg.Parallel = c.Int(ParallelFlagName)
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, usageErr("%v", err)
	}
	return cfg, nil
}

func parseOutput(value string) (application.OutputFormat, error) {
	switch format := application.OutputFormat(value); format {
	case application.OutputText, application.OutputJSON, application.OutputBrief:
		return format, nil
	default:
		return "", usageErr("invalid output format: %s", value)
	}
}

func writeConfigFile(path string, cfg application.Config) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func onUsageError(_ *cli.Context, err error, _ bool) error {
	return cli.Exit(err.Error(), exitcodes.UsageErr)
}

func usageErr(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), exitcodes.UsageErr)
}

func runtimeErr(err error) error {
	return cli.Exit(err.Error(), exitcodes.RuntimeErr)
}
