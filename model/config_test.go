package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0o644)
	require.NoError(t, err)
	return dir
}

func TestParseConfigT5Style(t *testing.T) {
	dir := writeConfig(t, `{
		"model_type": "t5",
		"vocab_size": 32128,
		"eos_token_id": 1,
		"pad_token_id": 0,
		"decoder_start_token_id": 0,
		"num_layers": 6,
		"num_heads": 8,
		"d_model": 512,
		"max_length": 200
	}`)

	cfg, err := ParseConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "t5", cfg.ModelType)
	assert.Equal(t, 32128, cfg.VocabSize)
	assert.Equal(t, []int{1}, cfg.EOSTokenIDs)
	assert.Equal(t, 0, cfg.PadTokenID)
	assert.Equal(t, 6, cfg.NumLayers)
	assert.Equal(t, 8, cfg.NumHeads)
	assert.Equal(t, 512, cfg.DModel)
	assert.Equal(t, 200, cfg.MaxLength)
}

func TestParseConfigAlternateSpellings(t *testing.T) {
	// eos as a list, pad null, bart-style field names.
	dir := writeConfig(t, `{
		"model_type": "bart",
		"vocab_size": 50265,
		"eos_token_id": [2, 3],
		"pad_token_id": null,
		"decoder_layers": 12,
		"decoder_attention_heads": 16,
		"hidden_size": 1024
	}`)

	cfg, err := ParseConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, cfg.EOSTokenIDs)
	assert.Equal(t, -1, cfg.PadTokenID, "absent pad id maps to -1")
	assert.Equal(t, 12, cfg.NumLayers)
	assert.Equal(t, 16, cfg.NumHeads)
	assert.Equal(t, 1024, cfg.DModel)
}

func TestParseConfigMissingModelType(t *testing.T) {
	dir := writeConfig(t, `{"vocab_size": 100}`)
	_, err := ParseConfig(dir)
	require.Error(t, err)
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := ParseConfig(t.TempDir())
	require.Error(t, err)
}

func TestOpenUnknownModelType(t *testing.T) {
	dir := writeConfig(t, `{"model_type": "no-such-backend"}`)
	_, _, err := Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend registered")
}

func TestOpenRegisteredBackend(t *testing.T) {
	Register("config-test-backend", func(dir string, cfg *Config) (Seq2Seq, error) {
		return &fakeBackend{}, nil
	})

	dir := writeConfig(t, `{"model_type": "config-test-backend", "vocab_size": 10}`)
	m, cfg, err := Open(dir)
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 10, cfg.VocabSize)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("config-test-dup", func(string, *Config) (Seq2Seq, error) { return nil, nil })
	assert.Panics(t, func() {
		Register("config-test-dup", func(string, *Config) (Seq2Seq, error) { return nil, nil })
	})
}
