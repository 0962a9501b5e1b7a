package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/pika-go/internal/cli/dispatch"
	"github.com/nightconcept/pika-go/internal/cli/self"
	"github.com/nightconcept/pika-go/internal/core/args"
	"github.com/nightconcept/pika-go/internal/core/config"
	"github.com/nightconcept/pika-go/internal/core/errs"
)

// version is the application version, set at build time.
var version = self.DevVersion

func main() {
	cfg, err := config.Load(config.Dir())
	if err != nil {
		log.Fatal(err)
	}
	setupLogging(cfg.LogLevel)

	app := newApp(cfg, dispatch.Options{RunnerCommand: cfg.Runner})
	if err := app.Run(appArgs(os.Args)); err != nil {
		log.Fatal(err)
	}
}

func setupLogging(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid log level %s, defaulting to warn", level)
		parsed = log.WarnLevel
	}
	log.SetLevel(parsed)
}

// appArgs rewrites `help <cmd>` before urfave/cli sees the arguments, so
// both pika's own `self` command and delegated tools answer `help <cmd>`.
// A Go binary has no script slot, so one is borrowed for the rewrite.
func appArgs(osArgs []string) []string {
	if len(osArgs) == 0 {
		return osArgs
	}
	withScript := append([]string{osArgs[0]}, osArgs...)
	return args.Normalize(withScript)[1:]
}

// newApp builds the CLI. Every command other than `self` is handed, with
// its raw arguments, to the dispatcher. base supplies the dispatcher
// options that do not come from the command line.
func newApp(cfg *config.Config, base dispatch.Options) *cli.App {
	return &cli.App{
		Name:            "pika",
		Usage:           "A package manager front-end for modern JavaScript packages",
		Version:         version,
		HideHelp:        true,
		HideVersion:     true,
		SkipFlagParsing: true,
		Commands: []*cli.Command{
			self.SelfCmd(cfg.UpdateSource),
		},
		Action: func(c *cli.Context) error {
			opts := base
			opts.Version = c.App.Version
			if opts.Stdout == nil {
				opts.Stdout = c.App.Writer
			}

			argv := append([]string{os.Args[0], c.App.Name}, c.Args().Slice()...)
			if _, err := dispatch.Run(c.Context, opts, argv); err != nil {
				return cli.Exit(err.Error(), errs.ExitCode(err))
			}
			return nil
		},
	}
}
