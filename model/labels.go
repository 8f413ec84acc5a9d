package model

import "fmt"

// IgnoreIndex marks label positions the loss computation skips.
const IgnoreIndex = -100

// BuildDecoderInputs derives the teacher-forcing pair from padded
// targets: the decoder input drops the last column, the labels drop
// the first and replace every pad with IgnoreIndex. Both results have
// width len(target)-1.
func BuildDecoderInputs(targetIDs [][]int, padID int) (decoderInput, labels [][]int, err error) {
	decoderInput = make([][]int, len(targetIDs))
	labels = make([][]int, len(targetIDs))
	for i, row := range targetIDs {
		if len(row) < 2 {
			return nil, nil, fmt.Errorf("model: target row %d has %d tokens, need at least 2 for teacher forcing", i, len(row))
		}
		decoderInput[i] = append([]int(nil), row[:len(row)-1]...)
		shifted := make([]int, len(row)-1)
		for j, id := range row[1:] {
			if id == padID {
				shifted[j] = IgnoreIndex
			} else {
				shifted[j] = id
			}
		}
		labels[i] = shifted
	}
	return decoderInput, labels, nil
}
