package tokenizer

import (
	"fmt"

	tk "github.com/sugarme/tokenizer"
)

// ReservedEOSID is the id some pretrained vocabularies hand out for the
// end-of-sequence token even though it is reserved next to padding.
// Generation against such a vocabulary stops one token early, so the
// tokenizer gets a fresh, explicit end-of-sequence token instead.
const ReservedEOSID = 1

const distinctEOSToken = "[EOS]"

// EmbeddingResizer grows a model's token embedding table to a new
// vocabulary size. Implemented by every model backend.
type EmbeddingResizer interface {
	ResizeTokenEmbeddings(vocabSize int) error
}

// collidesWithReservedID names the condition for the fix.
func collidesWithReservedID(eosID int) bool {
	return eosID == ReservedEOSID
}

// EnsureDistinctEOS applies the corrective action when the
// end-of-sequence id collides with ReservedEOSID: register [EOS] as a
// new special token, adopt its id, and grow the model's embedding table
// to match the extended vocabulary. Returns whether the fix was
// applied. Call once, right after constructing tokenizer and model.
func (t *Tokenizer) EnsureDistinctEOS(m EmbeddingResizer) (bool, error) {
	if !collidesWithReservedID(t.eosID) {
		return false, nil
	}

	t.tk.AddSpecialTokens([]tk.AddedToken{tk.NewAddedToken(distinctEOSToken, true)})
	t.vocab = t.tk.GetVocab(true)
	id, ok := t.vocab[distinctEOSToken]
	if !ok {
		return false, fmt.Errorf("tokenizer: %s not registered after AddSpecialTokens", distinctEOSToken)
	}
	t.eosID = id

	if m != nil {
		if err := m.ResizeTokenEmbeddings(len(t.vocab)); err != nil {
			return false, fmt.Errorf("tokenizer: resizing embeddings to %d: %w", len(t.vocab), err)
		}
	}
	return true, nil
}
