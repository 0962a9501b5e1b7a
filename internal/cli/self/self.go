package self

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/urfave/cli/v2"
)

// DevVersion is the version of builds made without release ldflags.
const DevVersion = "dev"

// SelfCmd creates the command that manages the pika binary itself.
// defaultSource is the owner/repo checked when --source is not given.
func SelfCmd(defaultSource string) *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the pika CLI itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update pika to the latest release",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Value: defaultSource,
						Usage: "GitHub repository to update from, as 'owner/repo'",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Enable verbose output",
					},
				},
				Action: updateAction,
			},
		},
	}
}

// ParseCurrentVersion accepts versions with or without a leading "v".
func ParseCurrentVersion(v string) (*semver.Version, error) {
	parsed, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
	if err != nil {
		return nil, fmt.Errorf("error parsing current version '%s': %w. Ensure version is like vX.Y.Z or X.Y.Z", v, err)
	}
	return parsed, nil
}

// ParseSource validates an 'owner/repo' slug.
func ParseSource(source string) (string, error) {
	parts := strings.Split(source, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid --source format. Expected 'owner/repo', got: %s", source)
	}
	return source, nil
}

// confirm asks a yes/no question on in; anything but "y" declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s (y/N): ", question)
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(input)) == "y"
}

func updateAction(c *cli.Context) error {
	currentVersionStr := c.App.Version
	verbose := c.Bool("verbose")
	stdout := c.App.Writer

	if verbose {
		_, _ = fmt.Fprintf(stdout, "pika current version: %s\n", currentVersionStr)
	}

	if currentVersionStr == "" || currentVersionStr == DevVersion {
		return cli.Exit("this pika build has no release version (dev); install a release build to use self update", 1)
	}
	currentSemVer, err := ParseCurrentVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	repoSlug, err := ParseSource(c.String("source"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if verbose {
		_, _ = fmt.Fprintf(stdout, "Using GitHub source: %s\n", repoSlug)
	}

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), 1)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source: ghSource,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), 1)
	}

	if verbose {
		_, _ = fmt.Fprintln(stdout, "Checking for latest version...")
	}
	latestRelease, found, err := updater.DetectLatest(c.Context, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), 1)
	}
	if !found {
		_, _ = fmt.Fprintf(stdout, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}

	if verbose {
		_, _ = fmt.Fprintf(stdout, "Latest version detected: %s (Release URL: %s)\n", latestRelease.Version(), latestRelease.URL)
		if latestRelease.ReleaseNotes != "" {
			_, _ = fmt.Fprintf(stdout, "Release Notes:\n%s\n", latestRelease.ReleaseNotes)
		}
	}

	if !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(stdout, "Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)

	if c.Bool("check") {
		return nil
	}
	if !c.Bool("yes") && !confirm(os.Stdin, stdout, "Do you want to update?") {
		_, _ = fmt.Fprintln(stdout, "Update cancelled.")
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), 1)
	}
	if err := updater.UpdateTo(c.Context, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), 1)
	}

	_, _ = fmt.Fprintf(stdout, "Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}
