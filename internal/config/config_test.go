package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"ai": {"provider": "gemini", "generate_model": "g", "embed_model": "e"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "local", cfg.Docs.Type)
	require.Equal(t, "memory", cfg.Index.Backend)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, 800, cfg.RAG.ChunkSize)
	require.Equal(t, 100, cfg.RAG.ChunkOverlap)
	require.Equal(t, 5, cfg.RAG.TopK)
	require.Equal(t, 4, cfg.RAG.MaxHistory)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing port", `{"ai": {"provider": "gemini", "generate_model": "g", "embed_model": "e"}}`},
		{"missing provider", `{"port": 8080, "ai": {"generate_model": "g", "embed_model": "e"}}`},
		{"missing generate model", `{"port": 8080, "ai": {"provider": "gemini", "embed_model": "e"}}`},
		{"missing embed model", `{"port": 8080, "ai": {"provider": "gemini", "generate_model": "g"}}`},
		{"overlap over chunk size", `{"port": 8080, "ai": {"provider": "gemini", "generate_model": "g", "embed_model": "e"}, "rag": {"chunk_size": 100, "chunk_overlap": 200}}`},
		{"negative top_k", `{"port": 8080, "ai": {"provider": "gemini", "generate_model": "g", "embed_model": "e"}, "rag": {"top_k": -1}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
