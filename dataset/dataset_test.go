package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordEncoder assigns ids by word, 10 + first-seen order, so tests can
// predict encodings without a real tokenizer. Pad id is 0. The mutex
// keeps it safe under the loader's worker pool.
type wordEncoder struct {
	mu   sync.Mutex
	ids  map[string]int
	fail bool
}

func newWordEncoder() *wordEncoder {
	return &wordEncoder{ids: make(map[string]int)}
}

func (e *wordEncoder) Encode(text string, maxLen int) ([]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return nil, fmt.Errorf("encoder down")
	}
	var out []int
	for _, w := range strings.Fields(text) {
		if _, ok := e.ids[w]; !ok {
			e.ids[w] = 10 + len(e.ids)
		}
		out = append(out, e.ids[w])
	}
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out, nil
}

func (e *wordEncoder) PadID() int { return 0 }

func writeSplit(t *testing.T, dir, split string, sources, targets []string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, split+".source"), []byte(strings.Join(sources, "\n")+"\n"), 0o644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, split+".target"), []byte(strings.Join(targets, "\n")+"\n"), 0o644)
	require.NoError(t, err)
}

func TestLoadSplit(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, "train",
		[]string{"who wrote hamlet", "capital of france"},
		[]string{"shakespeare", "paris"})

	ds, err := Load(dir, "train", newWordEncoder(), 1024, 56)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoadMisalignedSplit(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, "validation",
		[]string{"one", "two", "three"},
		[]string{"1", "2"})

	_, err := Load(dir, "validation", newWordEncoder(), 1024, 56)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 sources but 2 targets")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "test", newWordEncoder(), 1024, 56)
	require.Error(t, err)
}

func TestCollatePadding(t *testing.T) {
	enc := newWordEncoder()
	ds := New([]Example{
		{Source: "a b c", Target: "x"},
		{Source: "a", Target: "x y"},
	}, enc, 1024, 56)

	b, err := ds.Collate([]int{0, 1})
	require.NoError(t, err)

	// Rows pad to the longest in the batch; mask marks real tokens.
	require.Equal(t, 2, b.Size())
	assert.Len(t, b.SourceIDs[0], 3)
	assert.Len(t, b.SourceIDs[1], 3)
	assert.Equal(t, []int{1, 1, 1}, b.SourceMask[0])
	assert.Equal(t, []int{1, 0, 0}, b.SourceMask[1])
	assert.Equal(t, enc.PadID(), b.SourceIDs[1][1])
	assert.Equal(t, enc.PadID(), b.SourceIDs[1][2])
	assert.Len(t, b.TargetIDs[0], 2)
	assert.Equal(t, enc.PadID(), b.TargetIDs[0][1])
}

func TestCollateTruncatesSource(t *testing.T) {
	ds := New([]Example{{Source: "a b c d e f", Target: "x"}}, newWordEncoder(), 4, 56)

	b, err := ds.Collate([]int{0})
	require.NoError(t, err)
	assert.Len(t, b.SourceIDs[0], 4)
}

func TestCollateBadIndex(t *testing.T) {
	ds := New([]Example{{Source: "a", Target: "b"}}, newWordEncoder(), 8, 8)
	_, err := ds.Collate([]int{5})
	require.Error(t, err)
}

func TestTrimNoPadding(t *testing.T) {
	b := &Batch{
		SourceIDs:  [][]int{{5, 6}, {7, 8}},
		SourceMask: [][]int{{1, 1}, {1, 1}},
		TargetIDs:  [][]int{{9, 10}, {11, 12}},
	}

	src, mask, tgt := Trim(b, 0)
	assert.Equal(t, b.SourceIDs, src, "pad-free batch should trim to itself")
	assert.Equal(t, b.SourceMask, mask)
	assert.Equal(t, b.TargetIDs, tgt)
}

func TestTrimSharedPadding(t *testing.T) {
	const pad = 0
	b := &Batch{
		// Last two source columns are pad in every row; only the last
		// target column is shared padding.
		SourceIDs:  [][]int{{5, 6, pad, pad}, {7, pad, pad, pad}},
		SourceMask: [][]int{{1, 1, 0, 0}, {1, 0, 0, 0}},
		TargetIDs:  [][]int{{9, pad, pad}, {10, 11, pad}},
	}

	src, mask, tgt := Trim(b, pad)
	assert.Equal(t, [][]int{{5, 6}, {7, pad}}, src)
	assert.Equal(t, [][]int{{1, 1}, {1, 0}}, mask)
	assert.Equal(t, [][]int{{9, pad}, {10, 11}}, tgt)
}
