package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genelet/sheetcast/convert"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "rows.yaml")
	doc, err := convert.RowsToYAML([]string{"ID", "Name"}, []map[string]string{
		{"ID": "1", "Name": "widget"},
		{"ID": "2", "Name": "gadget"},
		{"ID": "3", "Name": "bolt"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(input, doc, 0o600))

	book := filepath.Join(dir, "book.xlsx")
	_, err = execute(t, "import", input, "-o", book, "--max-rows", "2")
	require.NoError(t, err)

	out, err := execute(t, "export", book, "--sheet", "Sheet2", "--format", "json")
	require.NoError(t, err)
	header, rows, err := convert.JSONToRows([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name"}, header)
	assert.Equal(t, []map[string]string{{"ID": "3", "Name": "bolt"}}, rows)

	hclPath := filepath.Join(dir, "rows.hcl")
	_, err = execute(t, "export", book, "--limit", "1", "-o", hclPath)
	require.NoError(t, err)
	raw, err := os.ReadFile(hclPath)
	require.NoError(t, err)
	_, rows, err = convert.HCLToRows(raw)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"ID": "1", "Name": "widget"}}, rows)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"ID": 1, "tmp_x": "junk"}]`), 0o600))
	config := filepath.Join(dir, "sheetcast.yaml")
	require.NoError(t, os.WriteFile(config, []byte("ignore: [\"tmp_*\"]\n"), 0o600))

	book := filepath.Join(dir, "book.xlsx")
	_, err := execute(t, "import", input, "-o", book, "--config", config)
	require.NoError(t, err)

	out, err := execute(t, "export", book)
	require.NoError(t, err)
	header, _, err := convert.JSONToRows([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, header)
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "import", filepath.Join(dir, "rows.json"))
	assert.Error(t, err)
	_, err = execute(t, "export", filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
	_, err = execute(t, "export", filepath.Join(dir, "missing.xlsx"), "--format", "toml")
	assert.Error(t, err)
}

func TestConfigFlagUsage(t *testing.T) {
	flag := newRootCmd(&bytes.Buffer{}).PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "YAML")
	assert.Contains(t, flag.Usage, "HCL")
}
