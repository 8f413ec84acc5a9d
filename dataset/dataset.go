// Package dataset loads question-answering splits and collates them
// into padded batches of token ids for the training and evaluation
// steps.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Encoder is the tokenizer surface the dataset needs.
type Encoder interface {
	Encode(text string, maxLen int) ([]int, error)
	PadID() int
}

// Example is one aligned (question, answer) text pair.
type Example struct {
	Source string
	Target string
}

// Dataset holds one split's examples plus the encoding parameters.
type Dataset struct {
	enc       Encoder
	examples  []Example
	maxSource int
	maxTarget int
}

// Load reads <dir>/<split>.source and <dir>/<split>.target, one example
// per line, aligned by line number.
func Load(dir, split string, enc Encoder, maxSource, maxTarget int) (*Dataset, error) {
	sources, err := readLines(filepath.Join(dir, split+".source"))
	if err != nil {
		return nil, err
	}
	targets, err := readLines(filepath.Join(dir, split+".target"))
	if err != nil {
		return nil, err
	}
	if len(sources) != len(targets) {
		return nil, fmt.Errorf("dataset: split %q has %d sources but %d targets", split, len(sources), len(targets))
	}

	examples := make([]Example, len(sources))
	for i := range sources {
		examples[i] = Example{Source: sources[i], Target: targets[i]}
	}
	return New(examples, enc, maxSource, maxTarget), nil
}

// New wraps already-loaded examples; used by tests and synthetic runs.
func New(examples []Example, enc Encoder, maxSource, maxTarget int) *Dataset {
	return &Dataset{enc: enc, examples: examples, maxSource: maxSource, maxTarget: maxTarget}
}

// Len returns the number of examples in the split.
func (d *Dataset) Len() int { return len(d.examples) }

// Collate encodes the selected examples and right-pads source and
// target to the longest row in the batch.
func (d *Dataset) Collate(indices []int) (*Batch, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("dataset: empty batch")
	}

	sources := make([][]int, len(indices))
	targets := make([][]int, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(d.examples) {
			return nil, fmt.Errorf("dataset: index %d out of range [0,%d)", idx, len(d.examples))
		}
		ex := d.examples[idx]
		src, err := d.enc.Encode(ex.Source, d.maxSource)
		if err != nil {
			return nil, fmt.Errorf("dataset: encoding source %d: %w", idx, err)
		}
		tgt, err := d.enc.Encode(ex.Target, d.maxTarget)
		if err != nil {
			return nil, fmt.Errorf("dataset: encoding target %d: %w", idx, err)
		}
		sources[i], targets[i] = src, tgt
	}

	padID := d.enc.PadID()
	b := &Batch{
		SourceIDs:  make([][]int, len(indices)),
		SourceMask: make([][]int, len(indices)),
		TargetIDs:  make([][]int, len(indices)),
	}
	srcWidth := maxLen(sources)
	tgtWidth := maxLen(targets)
	for i := range indices {
		b.SourceIDs[i], b.SourceMask[i] = padRow(sources[i], srcWidth, padID)
		b.TargetIDs[i], _ = padRow(targets[i], tgtWidth, padID)
	}
	return b, nil
}

func padRow(ids []int, width, padID int) (padded, mask []int) {
	padded = make([]int, width)
	mask = make([]int, width)
	for i := 0; i < width; i++ {
		if i < len(ids) {
			padded[i] = ids[i]
			mask[i] = 1
		} else {
			padded[i] = padID
		}
	}
	return padded, mask
}

func maxLen(rows [][]int) int {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", path, err)
	}
	return lines, nil
}
