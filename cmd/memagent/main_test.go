package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion_ListsCompiledModules(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "memagent dev")
	for _, id := range []string{
		"gateway.http",
		"memory.chromem",
		"memory.mem0",
		"memory.sqlite",
		"memory.vector",
		"provider.groq",
	} {
		assert.Contains(t, out, "  "+id+"\n")
	}
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestConfigCheck_MissingFile(t *testing.T) {
	_, err := execute(t, "config", "check", "/nonexistent/memagent.yaml")
	assert.Error(t, err)
}

func TestRoot_RejectsArguments(t *testing.T) {
	_, err := execute(t, "hello")
	assert.Error(t, err)
}

func TestConfigCheck_RedactsModuleSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	const key = "gsk_0123456789abcdefghijKLMNOP"
	t.Setenv("MEMAGENT_TEST_KEY", key)
	for _, name := range []string{"MEMAGENT_USER_ID", "MEMAGENT_MODEL", "MEMAGENT_STORE"} {
		t.Setenv(name, "")
	}

	path := filepath.Join(dir, "memagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1"
user_id: alice
modules:
  provider.groq:
    api_key: ${MEMAGENT_TEST_KEY}
    model: llama-3.1-8b-instant
  memory.sqlite: {}
`), 0o600))

	out, err := execute(t, "config", "check", "--data-dir", filepath.Join(dir, "data"), path)
	require.NoError(t, err)

	assert.Contains(t, out, "Configuration OK ("+path+", 2 modules)")
	assert.Contains(t, out, "  provider.groq\n")
	assert.Contains(t, out, "    model: llama-3.1-8b-instant\n")
	assert.Contains(t, out, "***REDACTED***")
	assert.NotContains(t, out, key)
	assert.Contains(t, out, "Credentials: provider.groq.api_key")
}
