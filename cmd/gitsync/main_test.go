package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/NicabarNimble/go-gitsync/internal/config"
	"github.com/NicabarNimble/go-gitsync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.NotNil(t, cmd)
	assert.Equal(t, "gitsync", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("v"), "klog verbosity flag")
}

func TestSubcommands(t *testing.T) {
	cmd := newRootCmd()

	commandNames := make(map[string]bool)
	for _, subcmd := range cmd.Commands() {
		commandNames[subcmd.Name()] = true
	}

	for _, expected := range []string{"sync", "apply", "configure", "tool", "token"} {
		assert.True(t, commandNames[expected], "Expected command %s not found", expected)
	}
}

func TestSyncCommand(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("README.md", "v1\n")
	first := up.Commit("first")
	up.Tag("1.0.0", first)
	up.WriteFile("README.md", "v2\n")
	up.Commit("second")

	dst := filepath.Join(t.TempDir(), "dst")

	out, err := execute(t, "sync", dst, up.URL(), "--rev", "1.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "Synchronized "+dst)
	assert.Equal(t, "v1\n", testutil.ReadFile(t, filepath.Join(dst, "README.md")))

	out, err = execute(t, "sync", dst, up.URL(), "--progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed: Sync "+dst)
	assert.Equal(t, "v2\n", testutil.ReadFile(t, filepath.Join(dst, "README.md")))
}

func TestSyncCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing arguments",
			args: []string{"sync", "only-dst"},
			want: "accepts 2 arg(s), received 1",
		},
		{
			name: "unknown backend",
			args: []string{"sync", "dst", "https://example.com/r.git", "--backend", "svn"},
			want: "unknown backend",
		},
		{
			name: "empty url",
			args: []string{"sync", "dst", "", "--rev", "main"},
			want: "invalid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string(nil), tt.args...)
			if len(args) > 1 && args[1] == "dst" {
				args[1] = filepath.Join(t.TempDir(), "dst")
			}
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigureCommand(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gitsync.yaml")

	tests := []struct {
		name        string
		args        []string
		validate    func(*testing.T, *config.SyncConfig)
		expectError bool
	}{
		{
			name: "add target",
			args: []string{"--dest", "a", "--url", "https://example.com/a.git", "--rev", "1.1.0"},
			validate: func(t *testing.T, cfg *config.SyncConfig) {
				require.Len(t, cfg.Targets, 1)
				assert.Equal(t, config.Target{Destination: "a", URL: "https://example.com/a.git", Revision: "1.1.0"}, cfg.Targets[0])
				assert.Equal(t, "plumbing", cfg.Backend)
			},
		},
		{
			name: "replace target and set backend",
			args: []string{"--dest", "a", "--url", "https://example.com/a2.git", "--backend", "cli", "--git", "/usr/bin/git"},
			validate: func(t *testing.T, cfg *config.SyncConfig) {
				require.Len(t, cfg.Targets, 1)
				assert.Equal(t, "https://example.com/a2.git", cfg.Targets[0].URL)
				assert.Empty(t, cfg.Targets[0].Revision)
				assert.Equal(t, "cli", cfg.Backend)
				assert.Equal(t, "/usr/bin/git", cfg.Git)
			},
		},
		{
			name:        "destination without url",
			args:        []string{"--dest", "b"},
			expectError: true,
		},
		{
			name:        "invalid backend",
			args:        []string{"--backend", "svn"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"configure", "--config", configPath}, tt.args...)
			out, err := execute(t, args...)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Contains(t, out, "Configuration updated")
			cfg, err := config.LoadConfig(configPath)
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestApplyCommand(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("README.md", "hello\n")
	up.Commit("first")

	root := t.TempDir()
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.AddTarget(config.Target{Destination: filepath.Join(root, "one"), URL: up.URL()}))
	require.NoError(t, cfg.AddTarget(config.Target{Destination: filepath.Join(root, "two"), URL: up.URL(), Revision: "master"}))
	configPath := filepath.Join(root, "gitsync.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))

	out, err := execute(t, "apply", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Synchronized "+filepath.Join(root, "one"))
	assert.Equal(t, "hello\n", testutil.ReadFile(t, filepath.Join(root, "one", "README.md")))
	assert.Equal(t, "hello\n", testutil.ReadFile(t, filepath.Join(root, "two", "README.md")))
}

func TestApplyCommand_PartialFailure(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("README.md", "hello\n")
	up.Commit("first")

	root := t.TempDir()
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.AddTarget(config.Target{Destination: filepath.Join(root, "bad"), URL: up.URL(), Revision: "no-such-branch"}))
	require.NoError(t, cfg.AddTarget(config.Target{Destination: filepath.Join(root, "good"), URL: up.URL()}))
	configPath := filepath.Join(root, "gitsync.yaml")
	require.NoError(t, config.SaveConfig(cfg, configPath))

	out, err := execute(t, "apply", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 targets failed")
	assert.Contains(t, out, "Failed "+filepath.Join(root, "bad")+"\n")
	assert.Contains(t, out, "Synchronized "+filepath.Join(root, "good")+"\n")
	assert.FileExists(t, filepath.Join(root, "good", "README.md"))
}

func TestApplyCommand_NoTargets(t *testing.T) {
	_, err := execute(t, "apply", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets")
}

func TestToolCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"),
		[]byte("[merge]\n\ttool = meld\n[mergetool \"meld\"]\n\tcmd = meld $LOCAL $MERGED $REMOTE\n"), 0o644))

	out, err := execute(t, "tool", "merge")
	require.NoError(t, err)
	assert.Equal(t, "meld $LOCAL $MERGED $REMOTE\n", out)

	_, err = execute(t, "tool")
	assert.Error(t, err)
}
