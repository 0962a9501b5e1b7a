// Package args turns a raw pika invocation into a command, its forwarded
// arguments and the handful of global flags pika itself understands.
package args

import (
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nightconcept/pika-go/internal/core/errs"
)

// HelpCommand is the command assumed when none is given.
const HelpCommand = "help"

// Flags is the parsed view of an invocation.
type Flags struct {
	Version  bool
	Help     bool
	DryRun   bool
	Cwd      string
	Contents string

	// Command is the first positional token, or HelpCommand.
	Command string
	// CommandArgs holds every token after the command token, in order. It is
	// forwarded verbatim.
	CommandArgs []string
}

// flags that consume the following token when written without "=".
var valueFlags = map[string]bool{
	"--cwd":      true,
	"--contents": true,
}

// Normalize rewrites `help <cmd> [rest...]` into `<cmd> --help [rest...]` so
// every delegated tool prints its own help. argv uses the conventional
// [program, script, ...] layout. The input slice is never modified.
func Normalize(argv []string) []string {
	if len(argv) < 4 || argv[2] != HelpCommand {
		return argv
	}
	next := argv[3]
	if next == "" || strings.HasPrefix(next, "-") {
		return argv
	}
	out := make([]string, 0, len(argv))
	out = append(out, argv[0], argv[1], next, "--help")
	out = append(out, argv[4:]...)
	return out
}

// Parse extracts the global flags from argv. Unknown flags are tolerated;
// those after the command are left in CommandArgs.
func Parse(argv []string) (*Flags, error) {
	var rest []string
	if len(argv) > 2 {
		rest = argv[2:]
	}

	f := &Flags{}
	fs := pflag.NewFlagSet("pika", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.BoolVarP(&f.Version, "version", "v", false, "output the CLI version")
	fs.BoolVarP(&f.Help, "help", "h", false, "output usage information")
	fs.StringVar(&f.Cwd, "cwd", "", "set the current working directory")
	fs.BoolVar(&f.DryRun, "dry-run", false, "don't actually run any commands")
	fs.StringVar(&f.Contents, "contents", "", "publish the given directory")

	if err := fs.Parse(rest); err != nil {
		return nil, errs.ErrorUsage(err.Error())
	}

	f.Command = HelpCommand
	f.CommandArgs = []string{}
	if idx := commandIndex(rest); idx >= 0 {
		f.Command = rest[idx]
		f.CommandArgs = append(f.CommandArgs, rest[idx+1:]...)
	}
	return f, nil
}

// commandIndex returns the position of the first positional token in rest,
// or -1. Only the values of pika's own value flags are skipped, so an
// unknown flag never consumes the command.
func commandIndex(rest []string) int {
	afterTerminator := false
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if !afterTerminator {
			if tok == "--" {
				afterTerminator = true
				continue
			}
			if strings.HasPrefix(tok, "-") && tok != "-" {
				if valueFlags[tok] {
					i++
				}
				continue
			}
		}
		return i
	}
	return -1
}
