package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loccat/internal/config"
	"loccat/internal/languages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand 执行根命令并返回标准输出与标准错误。
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	rootCmd := newRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "2024-01-01"}, languages.NewRegistry())
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"CMakeLists.txt":          "# Copyright 2022\n\nproject(demo)\n",
		"libs/core/a.cpp":         "// comment\nint a;\n",
		"libs/core/tests/t.cpp":   "TEST(A, B) {}\n",
		"libs/core/wraps/w.cpp":   "PYBIND11_MODULE(core, m) {}\n",
		"tools/script.py":         "print('hi')\n",
		"docs/notes.md":           "# ignored\n",
		"libs/ui/style/theme.qss": "QWidget {}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestCountTextOutput(t *testing.T) {
	root := writeProject(t)

	stdout, _, err := runCommand(t, "count", root, "--color", "no")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Total Line Counts: 9\n"), stdout)
	assert.Contains(t, stdout, "\nC++ Line Counts: 4\n")
	assert.Contains(t, stdout, "\nQt Stylesheet Line Counts: 1\n")
}

func TestCountWithLayoutFromConfigFile(t *testing.T) {
	root := writeProject(t)
	configPath := filepath.Join(t.TempDir(), "loccat.yaml")
	content := "subtrees:\n  - libs\nroot-files:\n  - CMakeLists.txt\noutput: csv\ncolor: \"no\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	stdout, _, err := runCommand(t, "count", root, "--config", configPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Total,Blank,Legal,"))
	// tools/script.py 不在布局中。
	assert.True(t, strings.HasPrefix(lines[1], "8,1,1,1,0,1,1,3,"), lines[1])
}

func TestCountJSONByFile(t *testing.T) {
	root := writeProject(t)

	stdout, _, err := runCommand(t, "count", root, "-o", "json", "--by-file", "--color", "no")
	require.NoError(t, err)

	var decoded struct {
		Files []struct {
			Path     string `json:"path"`
			Language string `json:"language"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	require.Len(t, decoded.Files, 6)
	assert.Equal(t, "CMakeLists.txt", decoded.Files[0].Path)
	assert.Equal(t, "CMake", decoded.Files[0].Language)
}

func TestCountWritesOutputFile(t *testing.T) {
	root := writeProject(t)
	outputPath := filepath.Join(t.TempDir(), "out", "table.txt")

	stdout, stderr, err := runCommand(t, "count", root, "-o", "table", "--output-file", outputPath, "--color", "no")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, outputPath)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "TOTAL")
}

func TestCountWarnsAboutIgnoredByFile(t *testing.T) {
	root := writeProject(t)

	_, stderr, err := runCommand(t, "count", root, "--by-file", "--color", "no")
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning: --by-file has no effect with --output text")
}

func TestCountRejectsInvalidOutput(t *testing.T) {
	_, _, err := runCommand(t, "count", t.TempDir(), "-o", "xml", "--color", "no")
	assert.ErrorIs(t, err, config.ErrInvalidOutput)
}

func TestCountMissingRoot(t *testing.T) {
	_, _, err := runCommand(t, "count", filepath.Join(t.TempDir(), "missing"), "--color", "no")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHistoryParquetNeedsOutputFile(t *testing.T) {
	_, _, err := runCommand(t, "history", t.TempDir(), "-o", "parquet", "--color", "no", "--cache-backend", "none")
	assert.ErrorIs(t, err, config.ErrOutputFileRequired)
}

func TestExplain(t *testing.T) {
	root := writeProject(t)
	path := filepath.Join(root, "libs", "core", "tests", "t.cpp")

	stdout, _, err := runCommand(t, "explain", path, "--root", root, "--color", "no")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(C++, test=true, wrap=false)")
	assert.Contains(t, stdout, "     1  Test     TEST(A, B) {}\n")

	stdout, _, err = runCommand(t, "explain", path, "--color", "no")
	require.NoError(t, err)
	assert.Contains(t, stdout, "     1  Code     TEST(A, B) {}\n")

	stdout, _, err = runCommand(t, "explain", filepath.Join(root, "libs", "core", "a.cpp"), "--wrap", "--color", "no")
	require.NoError(t, err)
	assert.Contains(t, stdout, "     1  Comment  // comment\n")
	assert.Contains(t, stdout, "     2  Wrap     int a;\n")
}

func TestLanguageAndVersion(t *testing.T) {
	stdout, _, err := runCommand(t, "language")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Qt Stylesheet")
	assert.Contains(t, stdout, "CMakeLists.txt")
	assert.Contains(t, stdout, "*.cpp, *.h")

	stdout, _, err = runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "loccat version 1.2.3 (commit abc, built 2024-01-01)\n", stdout)
}
