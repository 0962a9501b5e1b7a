package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/serum-errors/go-serum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/pika-go/internal/core/errs"
	"github.com/nightconcept/pika-go/internal/core/manifest"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// recordingRunner captures every delegated invocation.
type recordingRunner struct {
	calls [][]string
	err   error
}

func (r *recordingRunner) Run(_ context.Context, args []string) error {
	r.calls = append(r.calls, append([]string(nil), args...))
	return r.err
}

// fakeResolver reports the packages in installed as local.
type fakeResolver struct {
	installed map[string]bool
	dirs      []string
}

func (f *fakeResolver) Resolve(fromDir, name string) (string, bool) {
	f.dirs = append(f.dirs, fromDir)
	if f.installed[name] {
		return filepath.Join(fromDir, "node_modules", name, "index.js"), true
	}
	return "", false
}

type harness struct {
	runner   *recordingRunner
	resolver *fakeResolver
	stdout   bytes.Buffer
}

func newHarness(installed ...string) *harness {
	h := &harness{
		runner:   &recordingRunner{},
		resolver: &fakeResolver{installed: map[string]bool{}},
	}
	for _, name := range installed {
		h.resolver.installed[name] = true
	}
	return h
}

func (h *harness) options() Options {
	return Options{
		Version:  "0.6.1",
		Runner:   h.runner,
		Resolver: h.resolver,
		Stdout:   &h.stdout,
	}
}

func (h *harness) run(t *testing.T, argv ...string) []string {
	t.Helper()
	lines, err := Run(context.Background(), h.options(), argv)
	require.NoError(t, err)
	return lines
}

func usageText(t *testing.T) string {
	t.Helper()
	lines := newHarness().run(t, "node", "pika")
	require.Len(t, lines, 1)
	return lines[0]
}

func setupProject(t *testing.T, packageJSON string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(packageJSON), 0644)
	require.NoError(t, err, "Failed to write package.json")
	return dir
}

func TestRun_Version(t *testing.T) {
	h := newHarness()
	lines := h.run(t, "node", "pika", "--version")
	assert.Equal(t, []string{"0.6.1"}, lines)
	assert.Equal(t, "0.6.1\n", h.stdout.String())
}

func TestRun_VersionBeatsEverything(t *testing.T) {
	for _, argv := range [][]string{
		{"node", "pika", "foo", "--version"},
		{"node", "pika", "help", "-v"},
		{"node", "pika", "build", "-v"},
		{"node", "pika", "publish", "--version"},
	} {
		h := newHarness()
		lines := h.run(t, argv...)
		assert.Equal(t, []string{"0.6.1"}, lines, "%v", argv)
		assert.Empty(t, h.runner.calls, "%v", argv)
	}
}

func TestRun_Help(t *testing.T) {
	usage := usageText(t)
	assert.Contains(t, usage, "Usage:")
	assert.Contains(t, usage, "pika [command] [flags]")
	assert.Contains(t, usage, "https://github.com/pikapkg/pack")
	assert.Contains(t, usage, "--dry-run")

	for _, argv := range [][]string{
		{"node", "pika", "help"},
		{"node", "pika", "help", "--dry-run"},
		{"node", "pika", "--help"},
	} {
		h := newHarness()
		assert.Equal(t, []string{usage}, h.run(t, argv...), "%v", argv)
		assert.Empty(t, h.runner.calls)
	}
}

func TestRun_HelpCommandDelegatesToToolHelp(t *testing.T) {
	viaHelp := newHarness()
	viaHelpLines := viaHelp.run(t, "node", "pika", "help", "build")

	direct := newHarness()
	directLines := direct.run(t, "node", "pika", "build", "--help")

	assert.Equal(t, [][]string{{"@pika/pack", "--help"}}, viaHelp.runner.calls)
	assert.Equal(t, direct.runner.calls, viaHelp.runner.calls)
	assert.Equal(t, directLines, viaHelpLines)
}

func TestRun_Unrecognized(t *testing.T) {
	usage := usageText(t)
	h := newHarness()
	lines := h.run(t, "node", "pika", "nonexistent")
	assert.Equal(t, []string{"Command nonexistent not recognized.", usage}, lines)
	assert.Empty(t, h.runner.calls)
}

func TestRun_DelegatesToRemotePackage(t *testing.T) {
	tests := []struct {
		command string
		pkg     string
	}{
		{"install", "@pika/web"},
		{"build", "@pika/pack"},
		{"init", "@pika/init"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			h := newHarness()
			lines := h.run(t, "node", "pika", tt.command, "--foo", "bar")
			assert.Equal(t, [][]string{{tt.pkg, "--foo", "bar"}}, h.runner.calls)
			assert.Equal(t, []string{
				"TIP! Speed up the command next time by installing " + tt.pkg + " locally.",
			}, lines)
		})
	}
}

func TestRun_DelegatesToLocalBin(t *testing.T) {
	tests := []struct {
		command    string
		dependency string
		bin        string
	}{
		{"install", "@pika/web", "pika-web"},
		{"build", "@pika/pack", "pika-pack"},
		{"init", "@pika/init", "pika-init"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			h := newHarness(tt.dependency)
			lines := h.run(t, "node", "pika", tt.command)
			assert.Equal(t, [][]string{{tt.bin}}, h.runner.calls)
			assert.Empty(t, lines, "no tip when installed locally")
		})
	}
}

func TestRun_CwdFlagDrivesResolution(t *testing.T) {
	dir := t.TempDir()
	h := newHarness()
	h.run(t, "node", "pika", "--cwd", dir, "build")
	require.NotEmpty(t, h.resolver.dirs)
	assert.Equal(t, dir, h.resolver.dirs[0])
	assert.Equal(t, [][]string{{"@pika/pack"}}, h.runner.calls, "--cwd before the command is not forwarded")
}

func TestRun_GlobalFlagsBeforeCommandStayWithPika(t *testing.T) {
	dir := t.TempDir()
	h := newHarness()
	h.run(t, "node", "pika", "--cwd", dir, "init", "x")
	assert.Equal(t, [][]string{{"@pika/init", "x"}}, h.runner.calls)
}

func TestRun_UnknownFlagBeforeCommand(t *testing.T) {
	h := newHarness()
	lines := h.run(t, "node", "pika", "--verbose", "build")
	assert.Equal(t, [][]string{{"@pika/pack"}}, h.runner.calls)
	assert.Equal(t, []string{
		"TIP! Speed up the command next time by installing @pika/pack locally.",
	}, lines)
}

func TestRun_DefaultCwdIsProcessDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	h := newHarness()
	h.run(t, "node", "pika", "install")
	require.NotEmpty(t, h.resolver.dirs)
	assert.Equal(t, wd, h.resolver.dirs[0])
}

func TestRun_DryRunFlag(t *testing.T) {
	h := newHarness()
	lines := h.run(t, "node", "pika", "build", "--dry-run")
	assert.Empty(t, h.runner.calls, "nothing is spawned in dry-run mode")
	assert.Equal(t, []string{
		"npx @pika/pack --dry-run",
		"TIP! Speed up the command next time by installing @pika/pack locally.",
	}, lines)
}

func TestRun_DryRunOptionLatches(t *testing.T) {
	h := newHarness("@pika/web")
	opts := h.options()
	opts.DryRun = true
	opts.RunnerCommand = "pnpx"

	lines, err := Run(context.Background(), opts, []string{"node", "pika", "install", "--dry-run=false"})
	require.NoError(t, err)
	assert.Empty(t, h.runner.calls)
	assert.Equal(t, []string{"pnpx pika-web --dry-run=false"}, lines)
}

func TestRun_DelegationFailure(t *testing.T) {
	h := newHarness()
	h.runner.err = errs.ErrorDelegationFailed("npx @pika/pack", 2, errors.New("exit status 2"))

	lines, err := Run(context.Background(), h.options(), []string{"node", "pika", "build"})
	require.Error(t, err)
	assert.Equal(t, errs.CodeDelegationFailed, serum.Code(err))
	assert.Equal(t, 2, errs.ExitCode(err))
	assert.Empty(t, lines, "no tip after a failed delegation")
}

func TestRun_UsageError(t *testing.T) {
	h := newHarness()
	_, err := Run(context.Background(), h.options(), []string{"node", "pika", "build", "--cwd"})
	require.Error(t, err)
	assert.Equal(t, errs.CodeUsage, serum.Code(err))
	assert.Empty(t, h.runner.calls)
}

func TestPublish_AddsPackVersionScript(t *testing.T) {
	dir := setupProject(t, `{"scripts":{}}`)
	h := newHarness()

	lines := h.run(t, "node", "pika", "publish", "--cwd", dir)

	assert.Empty(t, h.runner.calls, "publish tool must not run when the script was just added")
	require.Len(t, lines, 3)
	assert.Equal(t, `missing "version" script: You'll need to create a fresh build after bumping the master package.json version.`, lines[0])
	assert.Equal(t, `Adding the following "version" lifecycle script to your package.json... "npx @pika/pack"`, lines[1])
	assert.Equal(t, "Please review & commit this change before publishing.", lines[2])

	data, err := os.ReadFile(filepath.Join(dir, manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"scripts\": {\n    \"version\": \"npx @pika/pack\"\n  }\n}\n", string(data))
}

func TestPublish_AddsBuildVersionScript(t *testing.T) {
	original := "{\n    \"name\": \"lib\",\n    \"scripts\": {\n        \"build\": \"pika-pack build\"\n    }\n}\n"
	dir := setupProject(t, original)
	h := newHarness()

	lines := h.run(t, "node", "pika", "publish", "--cwd", dir)

	assert.Empty(t, h.runner.calls)
	assert.Contains(t, lines[1], `"npm run build"`)

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "npm run build", m.Script("version"))
	assert.Equal(t, "    ", m.Indent, "original indentation is preserved")
}

func TestPublish_CreatesMissingScriptsObject(t *testing.T) {
	dir := setupProject(t, `{"name": "bare"}`)
	h := newHarness()

	h.run(t, "node", "pika", "publish", "--cwd", dir)

	m, err := manifest.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "npx @pika/pack", m.Script("version"))
}

func TestPublish_RunsPublishToolWithDefaultContents(t *testing.T) {
	dir := setupProject(t, `{"scripts": {"version": "npm run build"}}`)
	h := newHarness()

	lines := h.run(t, "node", "pika", "publish", "--cwd", dir, "--yolo")

	assert.Equal(t, [][]string{{"np", "--cwd", dir, "--yolo", "--contents", "pkg/"}}, h.runner.calls)
	assert.Equal(t, []string{"TIP! Speed up the command next time by installing np locally."}, lines)
}

func TestPublish_UserContentsIsForwardedOnce(t *testing.T) {
	dir := setupProject(t, `{"scripts": {"version": "npm run build"}}`)
	h := newHarness("np")

	lines := h.run(t, "node", "pika", "--cwd", dir, "publish", "--contents", "dist/")

	assert.Equal(t, [][]string{{"np", "--contents", "dist/"}}, h.runner.calls)
	assert.Empty(t, lines)
}

func TestPublish_DryRun(t *testing.T) {
	dir := setupProject(t, `{"scripts": {"version": "npm run build"}}`)
	h := newHarness("np")

	lines := h.run(t, "node", "pika", "publish", "--dry-run", "--cwd", dir)

	assert.Empty(t, h.runner.calls)
	assert.Equal(t, []string{"npx np --dry-run --cwd " + dir + " --contents pkg/"}, lines)
}

func TestPublish_MissingManifest(t *testing.T) {
	h := newHarness()
	lines, err := Run(context.Background(), h.options(), []string{"node", "pika", "publish", "--cwd", t.TempDir()})
	require.Error(t, err)
	assert.Equal(t, errs.CodeManifestRead, serum.Code(err))
	assert.Empty(t, lines)
	assert.Empty(t, h.runner.calls)
}
