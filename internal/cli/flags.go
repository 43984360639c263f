package cli

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/felixgeelhaar/ngr/internal/infrastructure/config"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/logsink"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/procexec"
)

const EnvVarPrefix = "NGR"

const (
	LogLevelFlagName          = "log.level"
	LogFormatFlagName         = "log.format"
	LogColorFlagName          = "log.color"
	ConfigFlagName            = "config"
	OutputFlagName            = "output"
	AcceptNoVenvFlagName      = "accept-no-venv"
	DotnetVersionFlagName     = "dotnet-version"
	NpgsqlVersionFlagName     = "npgsql-version"
	ToolVersionFlagName       = "tool-version"
	WrapperRegenerateFlagName = "wrapper-regenerate"
	TaskFlagName              = "task"
	PreferFlagName            = "prefer"
	TimeoutFlagName           = "timeout"
	GracePeriodFlagName       = "grace-period"
	CaptureFlagName           = "capture"
	ParallelFlagName          = "parallel"
	WatchFlagName             = "watch"
	ForceFlagName             = "force"
	NoInteractiveFlagName     = "no-interactive"
)

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// Flags are built per app: urfave flags keep parse state between runs.

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    LogLevelFlagName,
			Value:   "info",
			EnvVars: prefixEnvVars("LOG_LEVEL"),
			Usage:   "Log level: debug|info|warn|error",
		},
		&cli.StringFlag{
			Name:    LogFormatFlagName,
			Value:   string(logsink.FormatText),
			EnvVars: prefixEnvVars("LOG_FORMAT"),
			Usage:   "Log format: text|json",
		},
		&cli.StringFlag{
			Name:    LogColorFlagName,
			Value:   string(logsink.ColorAuto),
			EnvVars: prefixEnvVars("LOG_COLOR"),
			Usage:   "Colorize logs: auto|always|never",
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    ConfigFlagName,
		Value:   config.DefaultPath,
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "Config file path",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    OutputFlagName,
		Aliases: []string{"o"},
		Value:   "text",
		EnvVars: prefixEnvVars("OUTPUT"),
		Usage:   "Output format: text|json|brief",
	}
}

// runFlags feed application.Config and are shared by test and detect.
func runFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.BoolFlag{
			Name:    AcceptNoVenvFlagName,
			EnvVars: prefixEnvVars("ACCEPT_NO_VENV"),
			Usage:   "Run Python projects outside a virtualenv",
		},
		&cli.StringFlag{
			Name:    DotnetVersionFlagName,
			EnvVars: prefixEnvVars("DOTNET_VERSION"),
			Usage:   "Target framework of .NET projects (e.g. net8.0 or 8.0.x)",
		},
		&cli.StringFlag{
			Name:    NpgsqlVersionFlagName,
			EnvVars: prefixEnvVars("NPGSQL_VERSION"),
			Usage:   "Npgsql package version added to .NET projects",
		},
		&cli.StringFlag{
			Name:    ToolVersionFlagName,
			EnvVars: prefixEnvVars("TOOL_VERSION"),
			Usage:   "Runtime version for ecosystems that support selection",
		},
		&cli.BoolFlag{
			Name:    WrapperRegenerateFlagName,
			EnvVars: prefixEnvVars("WRAPPER_REGENERATE"),
			Usage:   "Regenerate the build tool wrapper before testing",
		},
		&cli.StringFlag{
			Name:    TaskFlagName,
			EnvVars: prefixEnvVars("TASK"),
			Usage:   "Task or job run by task-runner recipes",
		},
		&cli.StringSliceFlag{
			Name:    PreferFlagName,
			EnvVars: prefixEnvVars("PREFER"),
			Usage:   "Ecosystem tried before marker priority (repeatable)",
		},
		&cli.DurationFlag{
			Name:    TimeoutFlagName,
			EnvVars: prefixEnvVars("TIMEOUT"),
			Usage:   "Per-step timeout (e.g. '10m'); 0 disables it",
		},
		&cli.DurationFlag{
			Name:    GracePeriodFlagName,
			Value:   procexec.DefaultGracePeriod,
			EnvVars: prefixEnvVars("GRACE_PERIOD"),
			Usage:   "Time between SIGTERM and SIGKILL when a step is stopped",
		},
		&cli.StringFlag{
			Name:    CaptureFlagName,
			EnvVars: prefixEnvVars("CAPTURE"),
			Usage:   "Child output handling: stream|buffer",
		},
		&cli.IntFlag{
			Name:    ParallelFlagName,
			Aliases: []string{"j"},
			EnvVars: prefixEnvVars("PARALLEL"),
			Usage:   "Number of targets tested concurrently",
		},
	}
}

func testFlags() []cli.Flag {
	return append(runFlags(),
		outputFlag(),
		&cli.BoolFlag{
			Name:    WatchFlagName,
			Aliases: []string{"w"},
			EnvVars: prefixEnvVars("WATCH"),
			Usage:   "Re-run tests when files in the targets change",
		},
	)
}

func detectFlags() []cli.Flag {
	return append(runFlags(), outputFlag())
}

func mcpFlags() []cli.Flag {
	return runFlags()
}

func initFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  ConfigFlagName,
			Usage: "Config file path (default: .ngr.yaml in the target)",
		},
		&cli.BoolFlag{
			Name:  ForceFlagName,
			Usage: "Overwrite an existing config file",
		},
		&cli.BoolFlag{
			Name:  NoInteractiveFlagName,
			Usage: "Write the detected configuration without the wizard",
		},
	}
}

// watchDebounce is the quiet period before a watch re-run.
const watchDebounce = 500 * time.Millisecond
