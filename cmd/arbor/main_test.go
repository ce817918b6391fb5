package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patrol = `
id: patrol
name: Patrol
root:
  type: Sequence
  children:
    - type: SetShared
      properties: {key: marked, value: true}
    - type: Running
      name: walk
      properties: {ticks: 1}
`

func writeDef(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "arbor version "), out)
}

func TestValidateCommand(t *testing.T) {
	good := writeDef(t, "good.yaml", patrol)
	bad := writeDef(t, "bad.yaml", "root:\n  type: Teleport\n")

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.yaml: valid")

	out, err = execute(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, "bad.yaml: invalid")
	assert.Contains(t, out, "Teleport")
}

func TestGraphCommand(t *testing.T) {
	path := writeDef(t, "patrol.yaml", patrol)

	out, err := execute(t, "graph", path, "--ticks", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "running;")
}

func TestInspectCommand(t *testing.T) {
	path := writeDef(t, "patrol.yaml", patrol)

	out, err := execute(t, "inspect", path, "--raw", "--ticks", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "# Patrol")
	assert.Contains(t, out, "**walk** _Running_ `RUNNING`")
	assert.Contains(t, out, "| marked | true |")
}

func TestRunCommand(t *testing.T) {
	path := writeDef(t, "patrol.yaml", patrol)

	out, err := execute(t, "run", path, "--interval", "0", "--json")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"status":"RUNNING"`)
	assert.Contains(t, lines[1], `"status":"SUCCESS"`)
}

func TestRunCommand_Failure(t *testing.T) {
	path := writeDef(t, "fail.yaml", "name: doomed\nroot:\n  type: Fail\n")

	out, err := execute(t, "run", path, "--interval", "0", "--json=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILURE")
	assert.Contains(t, out, "Finished with FAILURE.")
}

func TestRunCommand_FileStore(t *testing.T) {
	path := writeDef(t, "patrol.yaml", patrol)
	dir := t.TempDir()
	defer func() { globalOpts.Store, globalOpts.Dir = "", "" }()

	_, err := execute(t, "run", path, "--interval", "0", "--json", "--store", "file", "--store-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "patrol.json"))
}

func TestMCPCommand_UnknownTransport(t *testing.T) {
	path := writeDef(t, "patrol.yaml", patrol)

	_, err := execute(t, "mcp", path, "--transport", "carrier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown transport "carrier"`)
}
