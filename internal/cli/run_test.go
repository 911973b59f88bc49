package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broom/internal/cleaner"
	"broom/internal/cli"
	"broom/internal/database"
	"broom/internal/exitcodes"
	"broom/internal/report"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// workspace returns a resolved temp dir holding one artifact of each kind.
func workspace(t *testing.T) string {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "app", "node_modules", "react", "index.js"), "x")
	writeFile(t, filepath.Join(root, "app", "src", "index.js"), "x")
	writeFile(t, filepath.Join(root, "tool", "Cargo.toml"), "[package]\n")
	writeFile(t, filepath.Join(root, "tool", "target", "release", "tool"), "bin")
	writeFile(t, filepath.Join(root, "lib", "__pycache__", "lib.cpython-312.pyc"), "pyc")
	writeFile(t, filepath.Join(root, ".git", "node_modules", "hidden.js"), "x")

	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	return out.String(), err
}

func TestRunDryRun(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "--dry-run", "-t", "all", root)
	require.NoError(t, err)

	want := strings.Join([]string{
		"node: " + filepath.Join(root, "app", "node_modules"),
		"python: " + filepath.Join(root, "lib", "__pycache__"),
		"cargo: " + filepath.Join(root, "tool", "target"),
	}, "\n") + "\n"
	assert.Equal(t, want, out)

	assert.DirExists(t, filepath.Join(root, "app", "node_modules"))
	assert.DirExists(t, filepath.Join(root, "tool", "target"))
	assert.DirExists(t, filepath.Join(root, "lib", "__pycache__"))
}

func TestRunRemovesSelectedTypes(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "-t", "node", "-t", "cargo", root)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))

	assert.NoDirExists(t, filepath.Join(root, "app", "node_modules"))
	assert.NoDirExists(t, filepath.Join(root, "tool", "target"))
	assert.DirExists(t, filepath.Join(root, "lib", "__pycache__"))
	assert.DirExists(t, filepath.Join(root, ".git", "node_modules"))
	assert.FileExists(t, filepath.Join(root, "app", "src", "index.js"))
	assert.FileExists(t, filepath.Join(root, "tool", "Cargo.toml"))
}

func TestRunDuplicateRootsReportOnce(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "--dry-run", "-t", "python", root, root, root+string(filepath.Separator))
	require.NoError(t, err)
	assert.Equal(t, "python: "+filepath.Join(root, "lib", "__pycache__")+"\n", out)
}

func TestRunMissingRootIsSkipped(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "--dry-run", "-t", "cargo", filepath.Join(root, "nope"), root)
	require.NoError(t, err)
	assert.Equal(t, "cargo: "+filepath.Join(root, "tool", "target")+"\n", out)
}

func TestRunNoneIsNoop(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "-t", "none", root)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.DirExists(t, filepath.Join(root, "app", "node_modules"))
}

func TestRunWithoutTypeIsNoop(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "--dry-run", root)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, root)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.DirExists(t, filepath.Join(root, "app", "node_modules"))
	assert.DirExists(t, filepath.Join(root, "tool", "target"))
	assert.DirExists(t, filepath.Join(root, "lib", "__pycache__"))
}

func TestRunJSONWithSize(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "--dry-run", "--size", "-o", "json", "-t", "cargo", root)
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, []string{"cargo"}, rec.Categories)
	assert.Equal(t, filepath.Join(root, "tool", "target"), rec.Path)
	assert.True(t, rec.Dir)
	require.NotNil(t, rec.Size)
	assert.Equal(t, int64(3), *rec.Size)
}

func TestRunProtect(t *testing.T) {
	root := workspace(t)

	out, err := execute(t, "-t", "node", "--protect", filepath.Join(root, "app"), root)
	require.NoError(t, err)

	// Reported but not removed.
	assert.Equal(t, "node: "+filepath.Join(root, "app", "node_modules")+"\n", out)
	assert.DirExists(t, filepath.Join(root, "app", "node_modules"))
}

func TestRunHistoryAndMetrics(t *testing.T) {
	root := workspace(t)
	state := t.TempDir()
	db := filepath.Join(state, "history.db")
	prom := filepath.Join(state, "broom.prom")

	_, err := execute(t, "-t", "all", "--history", db, "--metrics-file", prom, "--size", root)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `broom_matches_total{category="node"}`)
	assert.Contains(t, string(data), "broom_last_run_timestamp_seconds")

	out, err := execute(t, "history", "--db", db, "--json")
	require.NoError(t, err)

	var records []database.Removal
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, database.ActionDelete, r.Action)
		assert.NotNil(t, r.Size)
	}

	out, err = execute(t, "history", "--db", db, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted:")
	assert.Contains(t, out, "By category:")

	out, err = execute(t, "history", "--db", db, "--action", "skip")
	require.NoError(t, err)
	assert.Equal(t, "No records found\n", out)

	out, err = execute(t, "history", "--db", db, "--path", filepath.Join(root, "tool")+"%")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(root, "tool", "target"))
	assert.Contains(t, out, "cargo")
}

func TestHistoryRequiresDB(t *testing.T) {
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, exitcodes.InvalidArgs, cli.ExitCode(err))
}

func TestRunInvalidArgs(t *testing.T) {
	root := workspace(t)

	tcs := map[string]struct {
		args []string
	}{
		"unknown type": {
			args: []string{"-t", "gradle", root},
		},
		"unknown output": {
			args: []string{"-o", "xml", root},
		},
		"unknown log level": {
			args: []string{"--log-level", "loud", root},
		},
		"unknown flag": {
			args: []string{"--frobnicate", root},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, exitcodes.InvalidArgs, cli.ExitCode(err))
		})
	}

	// Nothing was removed along the way.
	assert.DirExists(t, filepath.Join(root, "app", "node_modules"))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		want int
	}{
		"nil": {
			err:  nil,
			want: exitcodes.Success,
		},
		"invalid args": {
			err:  fmt.Errorf("%w: bad", cli.ErrInvalidArgs),
			want: exitcodes.InvalidArgs,
		},
		"unknown category": {
			err:  fmt.Errorf("parse: %w", cleaner.ErrUnknownCategory),
			want: exitcodes.InvalidArgs,
		},
		"runtime": {
			err:  errors.New("disk on fire"),
			want: exitcodes.RuntimeError,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, cli.ExitCode(tc.err))
		})
	}
}
