// Package tokenizer wraps a pretrained HuggingFace-format tokenizer
// (tokenizer.json) behind the small surface the harness needs: encode
// with truncation, batch decode to cleaned text, and the special-token
// ids the dataset and model layers depend on.
package tokenizer

import (
	"fmt"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/manningwu07/seqtune/hub"
)

// Special-token spellings probed in order. T5-style vocabularies use
// the first spelling of each group.
var (
	padTokens = []string{"<pad>", "[PAD]"}
	eosTokens = []string{"</s>", "<eos>", "[EOS]", "<|endoftext|>"}
	unkTokens = []string{"<unk>", "[UNK]"}
)

// Tokenizer is constructed once at startup and lives for the process
// lifetime. It is safe for concurrent encode/decode once loading and
// EnsureDistinctEOS are done.
type Tokenizer struct {
	tk    *tk.Tokenizer
	vocab map[string]int

	padID int
	eosID int
	unkID int
}

// Load resolves nameOrPath through the hub cache and reads its
// tokenizer.json. An unresolvable artifact is fatal at startup.
func Load(nameOrPath, cacheDir string) (*Tokenizer, error) {
	path, err := hub.ResolveFile(nameOrPath, cacheDir, "tokenizer.json")
	if err != nil {
		return nil, err
	}
	inner, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: loading %s: %w", path, err)
	}
	return fromPretrained(inner), nil
}

func fromPretrained(inner *tk.Tokenizer) *Tokenizer {
	vocab := inner.GetVocab(true)
	return &Tokenizer{
		tk:    inner,
		vocab: vocab,
		padID: findSpecial(vocab, padTokens, 0),
		eosID: findSpecial(vocab, eosTokens, -1),
		unkID: findSpecial(vocab, unkTokens, -1),
	}
}

func findSpecial(vocab map[string]int, spellings []string, fallback int) int {
	for _, s := range spellings {
		if id, ok := vocab[s]; ok {
			return id
		}
	}
	return fallback
}

func (t *Tokenizer) PadID() int     { return t.padID }
func (t *Tokenizer) EOSID() int     { return t.eosID }
func (t *Tokenizer) VocabSize() int { return len(t.vocab) }

// Encode tokenizes text, truncating to maxLen ids. When truncation
// drops the tail, the end-of-sequence token is kept as the final id so
// the target still terminates.
func (t *Tokenizer) Encode(text string, maxLen int) ([]int, error) {
	enc, err := t.tk.EncodeSingle(text)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: encode: %w", err)
	}
	return truncate(enc.Ids, maxLen, t.eosID), nil
}

func truncate(ids []int, maxLen, eosID int) []int {
	if maxLen <= 0 || len(ids) <= maxLen {
		return ids
	}
	out := append([]int(nil), ids[:maxLen]...)
	if eosID >= 0 {
		out[maxLen-1] = eosID
	}
	return out
}

// Decode converts ids back to text, skipping special tokens and
// normalizing whitespace.
func (t *Tokenizer) Decode(ids []int) string {
	return clean(t.tk.Decode(ids, true))
}

// DecodeBatch decodes each sequence independently; rows may have
// different lengths.
func (t *Tokenizer) DecodeBatch(batch [][]int) []string {
	out := make([]string, len(batch))
	for i, ids := range batch {
		out[i] = t.Decode(ids)
	}
	return out
}

// clean collapses internal whitespace runs and strips the ends.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
