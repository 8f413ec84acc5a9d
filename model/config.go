package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the subset of a pretrained artifact's config.json the
// harness needs: which backend to pick and the token ids generation
// depends on.
type Config struct {
	ModelType string
	VocabSize int

	// EOSTokenIDs holds every end-of-sequence id; config.json spells
	// this as an int or a list.
	EOSTokenIDs         []int
	PadTokenID          int // -1 when absent
	DecoderStartTokenID int

	NumLayers int
	NumHeads  int
	DModel    int
	MaxLength int
}

// rawConfig mirrors config.json. Field names differ across model
// families, so alternates are listed and normalized afterwards.
type rawConfig struct {
	ModelType string `json:"model_type"`
	VocabSize int    `json:"vocab_size"`

	EOSTokenID          any `json:"eos_token_id"` // int or []int
	PadTokenID          any `json:"pad_token_id"` // int or null
	DecoderStartTokenID int `json:"decoder_start_token_id"`

	DecoderLayers    int `json:"decoder_layers"`
	NumDecoderLayers int `json:"num_decoder_layers"`
	NumLayers        int `json:"num_layers"`

	DecoderAttentionHeads int `json:"decoder_attention_heads"`
	NumHeads              int `json:"num_heads"`

	DModel     int `json:"d_model"`
	HiddenSize int `json:"hidden_size"`

	MaxLength int `json:"max_length"`
}

// ParseConfig reads <dir>/config.json.
func ParseConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("model: parsing %s: %w", path, err)
	}
	if raw.ModelType == "" {
		return nil, fmt.Errorf("model: %s has no model_type", path)
	}

	cfg := &Config{
		ModelType:           raw.ModelType,
		VocabSize:           raw.VocabSize,
		EOSTokenIDs:         tokenIDList(raw.EOSTokenID),
		PadTokenID:          tokenIDOr(raw.PadTokenID, -1),
		DecoderStartTokenID: raw.DecoderStartTokenID,
		NumLayers:           firstNonZero(raw.DecoderLayers, raw.NumDecoderLayers, raw.NumLayers),
		NumHeads:            firstNonZero(raw.DecoderAttentionHeads, raw.NumHeads),
		DModel:              firstNonZero(raw.DModel, raw.HiddenSize),
		MaxLength:           raw.MaxLength,
	}
	return cfg, nil
}

func tokenIDList(v any) []int {
	switch x := v.(type) {
	case float64:
		return []int{int(x)}
	case []any:
		var out []int
		for _, e := range x {
			if f, ok := e.(float64); ok {
				out = append(out, int(f))
			}
		}
		return out
	default:
		return nil
	}
}

func tokenIDOr(v any, fallback int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return fallback
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
