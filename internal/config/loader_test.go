package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("MEMAGENT_TEST_KEY", "gsk_from_env")

	cfg, err := Parse([]byte(`
version: "1"
agent:
  temperature: 0.4
modules:
  provider.groq:
    api_key: ${MEMAGENT_TEST_KEY}
    model: ${MEMAGENT_TEST_MODEL:-gemma2-9b-it}
  memory.sqlite: {}
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultUserID, cfg.UserID)
	assert.Equal(t, DefaultSearchLimit, cfg.Agent.SearchLimit)
	assert.Equal(t, DefaultTopicPurgeLimit, cfg.Agent.TopicPurgeLimit)
	assert.True(t, cfg.Agent.PersistsInstruction())
	require.NotNil(t, cfg.Agent.Temperature)
	assert.InDelta(t, 0.4, *cfg.Agent.Temperature, 1e-9)

	var groq struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	}
	node := cfg.Modules["provider.groq"]
	require.NoError(t, node.Decode(&groq))
	assert.Equal(t, "gsk_from_env", groq.APIKey)
	assert.Equal(t, "gemma2-9b-it", groq.Model)
}

func TestParse_UnresolvedVariable(t *testing.T) {
	_, err := Parse([]byte("user_id: ${MEMAGENT_SURELY_UNSET_VAR}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved variable: MEMAGENT_SURELY_UNSET_VAR")
}

func TestParse_PersistInstructionFalse(t *testing.T) {
	cfg, err := Parse([]byte("agent:\n  persist_instruction: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Agent.PersistsInstruction())
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, "user1", cfg.UserID)
	assert.Equal(t, []string{"provider.groq", "memory.sqlite"}, Resolve(cfg))
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	path, err := Find("")
	require.NoError(t, err)
	assert.Empty(t, path, "nothing on the search path yet")

	want := filepath.Join(dir, "memagent", FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(want), 0o755))
	require.NoError(t, os.WriteFile(want, []byte("version: \"1\"\n"), 0o600))

	path, err = Find("")
	require.NoError(t, err)
	assert.Equal(t, want, path)

	_, err = Find(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadOrDefault_FallsBackToDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nuser_id: alice\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.UserID)
}

func TestResolve_ProvidersThenStoresThenRest(t *testing.T) {
	t.Parallel()

	cfg := &Config{Modules: map[string]yaml.Node{}}
	for _, id := range []string{"gateway.http", "memory.vector", "provider.groq"} {
		cfg.Modules[id] = emptyMapping()
	}
	assert.Equal(t, []string{"provider.groq", "memory.vector", "gateway.http"}, Resolve(cfg))
}
