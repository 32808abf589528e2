// Package cli provides the command-line interface for persona.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/persona/internal/config"
	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
}

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	return newApp(os.Stdout, os.Stderr).Run(ctx, args)
}

func newApp(out, errOut io.Writer) *cli.Command {
	a := &app{out: out, errOut: errOut, cfg: config.Default()}

	return &cli.Command{
		Name:      "persona",
		Usage:     "Build and verify the agent persona catalog",
		Version:   Version,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Directory to scan for entity documents (repeatable, default .agent)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file (default .persona.yaml, .persona.yml or .persona.toml)",
			},
			&cli.IntFlag{
				Name:  "warn-token-count",
				Usage: "Warn when the catalog exceeds this many estimated tokens (0 disables)",
			},
			&cli.IntFlag{
				Name:  "error-token-count",
				Usage: "Fail when the catalog exceeds this many estimated tokens (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "Write logs as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, a.configure(cmd)
		},
		Commands: []*cli.Command{
			a.checkCommand(),
			a.listCommand(),
			a.buildCommand(),
			a.browseCommand(),
			a.configCommand(),
			versionCommand(),
		},
	}
}

// configure resolves the effective configuration (defaults, file,
// environment, flags) and sets up colors and logging from it.
func (a *app) configure(cmd *cli.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			cfg, err = config.Load(wd)
		}
	}
	if err != nil {
		return err
	}

	if cmd.IsSet("input") {
		cfg.Inputs = cmd.StringSlice("input")
	}
	if cmd.IsSet("warn-token-count") {
		cfg.Budget.Warn = cmd.Int("warn-token-count")
	}
	if cmd.IsSet("error-token-count") {
		cfg.Budget.Error = cmd.Int("error-token-count")
	}
	if cmd.Bool("log-json") {
		cfg.Output.LogFormat = config.LogFormatJSON
	}
	if cmd.Bool("no-color") {
		cfg.Output.Color = ui.ColorNever
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := ui.Configure(cfg.Output.Color); err != nil {
		return err
	}
	return a.configureLogging(cmd)
}

// configureLogging sets up the logging level based on CLI flags.
func (a *app) configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()
	opts.Output = a.errOut
	opts.Level = slog.LevelWarn
	opts.JSON = a.cfg.Output.LogFormat == config.LogFormatJSON

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
		opts.OmitTime = false
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logging.SetDefault(logging.New(opts))
	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
