// Package dispatch routes a pika invocation to the tool that implements it.
package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/nightconcept/pika-go/internal/core/args"
	"github.com/nightconcept/pika-go/internal/core/manifest"
	"github.com/nightconcept/pika-go/internal/core/output"
	"github.com/nightconcept/pika-go/internal/core/resolver"
	"github.com/nightconcept/pika-go/internal/core/runner"
)

const (
	publishTool     = "np"
	defaultContents = "pkg/"

	versionScriptWithBuild = "npm run build"
	versionScriptPack      = "npx @pika/pack"
)

// tool describes a delegated command: the npm dependency that provides it
// and the bin name that dependency installs.
type tool struct {
	Dependency string
	Bin        string
}

var tools = map[string]tool{
	"install": {Dependency: "@pika/web", Bin: "pika-web"},
	"build":   {Dependency: "@pika/pack", Bin: "pika-pack"},
	"init":    {Dependency: "@pika/init", Bin: "pika-init"},
}

// Options configures a single dispatch. The zero value runs real tools
// through npx and prints to os.Stdout.
type Options struct {
	// Version is printed for --version.
	Version string
	// DryRun forces dry-run mode regardless of --dry-run.
	DryRun bool
	// RunnerCommand names the package runner, runner.DefaultCommand when empty.
	RunnerCommand string
	// Runner overrides the process runner used outside dry-run mode.
	Runner runner.Runner
	// Resolver overrides local package lookup.
	Resolver resolver.Resolver
	// Stdout receives the printed log, os.Stdout when nil.
	Stdout io.Writer
}

type dispatcher struct {
	out      *output.Log
	flags    *args.Flags
	cwd      string
	runner   runner.Runner
	resolver resolver.Resolver
}

// Run handles one invocation. argv uses the [program, script, ...] layout.
// The returned lines are everything pika printed, in order; they are
// returned even when err is non-nil.
func Run(ctx context.Context, opts Options, argv []string) ([]string, error) {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	out := output.New(stdout)

	flags, err := args.Parse(args.Normalize(argv))
	if err != nil {
		return out.Lines(), err
	}

	if flags.Version {
		out.Println(opts.Version)
		return out.Lines(), nil
	}
	if flags.Command == args.HelpCommand {
		printHelp(out)
		return out.Lines(), nil
	}

	cwd, err := effectiveCwd(flags.Cwd)
	if err != nil {
		return out.Lines(), err
	}

	d := &dispatcher{
		out:      out,
		flags:    flags,
		cwd:      cwd,
		runner:   pickRunner(opts, flags, out),
		resolver: opts.Resolver,
	}
	if d.resolver == nil {
		d.resolver = resolver.Node{}
	}

	log.WithFields(log.Fields{
		"command": flags.Command,
		"args":    flags.CommandArgs,
		"cwd":     cwd,
	}).Debug("dispatching")

	recognized, recommended, err := d.runExternal(ctx)
	if err != nil {
		return out.Lines(), err
	}
	if !recognized {
		out.Printf("Command %s not recognized.", output.Bold(flags.Command))
		printHelp(out)
		return out.Lines(), nil
	}
	if recommended != "" {
		out.Println(output.Tip(), "Speed up the command next time by installing", output.Bold(recommended), "locally.")
	}
	return out.Lines(), nil
}

// pickRunner latches dry-run mode: once either source asks for it, nothing
// is spawned for the rest of the invocation.
func pickRunner(opts Options, flags *args.Flags, out *output.Log) runner.Runner {
	if opts.DryRun || flags.DryRun {
		return runner.DryRun{Command: opts.RunnerCommand, Log: out}
	}
	if opts.Runner != nil {
		return opts.Runner
	}
	return runner.Exec{Command: opts.RunnerCommand}
}

func effectiveCwd(flagCwd string) (string, error) {
	if flagCwd == "" {
		return os.Getwd()
	}
	return filepath.Abs(flagCwd)
}

// runExternal delegates the command. It reports whether the command is
// known and, when the providing dependency is not installed locally, the
// dependency to recommend.
func (d *dispatcher) runExternal(ctx context.Context) (bool, string, error) {
	command := d.flags.Command
	if command == "publish" {
		return d.publish(ctx)
	}
	t, ok := tools[command]
	if !ok {
		return false, "", nil
	}

	_, local := d.resolver.Resolve(d.cwd, t.Dependency)
	pkg := t.Dependency
	if local {
		pkg = t.Bin
	}
	if err := d.runner.Run(ctx, append([]string{pkg}, d.flags.CommandArgs...)); err != nil {
		return true, "", err
	}
	if local {
		return true, "", nil
	}
	return true, t.Dependency, nil
}

// publish makes sure package.json rebuilds on `npm version` before handing
// off to np. When the script has to be added, np is not run: the user
// reviews the change and runs publish again.
func (d *dispatcher) publish(ctx context.Context) (bool, string, error) {
	m, err := manifest.Load(d.cwd)
	if err != nil {
		return true, "", err
	}

	if m.Script("version") == "" {
		d.out.Println(output.Bold(`missing "version" script:`),
			"You'll need to create a fresh build after bumping the master package.json version.")

		script := versionScriptPack
		if m.Script("build") != "" {
			script = versionScriptWithBuild
		}
		if err := m.SetScript("version", script); err != nil {
			return true, "", err
		}
		d.out.Println(`Adding the following "version" lifecycle script to your package.json...`,
			output.Bold(`"`+script+`"`))

		if err := manifest.Save(d.cwd, m); err != nil {
			return true, "", err
		}
		d.out.Println("Please review & commit this change before publishing.")
		return true, "", nil
	}

	_, local := d.resolver.Resolve(d.cwd, publishTool)

	// A user-supplied --contents already travels in CommandArgs.
	runArgs := append([]string{publishTool}, d.flags.CommandArgs...)
	if d.flags.Contents == "" {
		runArgs = append(runArgs, "--contents", defaultContents)
	}
	if err := d.runner.Run(ctx, runArgs); err != nil {
		return true, "", err
	}
	if local {
		return true, "", nil
	}
	return true, publishTool, nil
}

func printHelp(out *output.Log) {
	out.Println(strings.TrimSpace(`
` + output.Bold("Usage:") + `
  pika [command] [flags]
` + output.Bold("Commands:") + `
  help [command]      output usage information about a command
  init                ` + output.Underline("https://github.com/pikapkg/init") + `
  build               ` + output.Underline("https://github.com/pikapkg/pack") + `
  install             ` + output.Underline("https://github.com/pikapkg/web") + `
  publish             ` + output.Underline("https://github.com/pikapkg/cli") + `
  self update         update pika to the latest release
` + output.Bold("Global Options:") + `
  -v, --version       output the CLI version
  -h, --help          output usage information
  --cwd               set the current working directory
  --dry-run           don't actually run any commands
`))
}
