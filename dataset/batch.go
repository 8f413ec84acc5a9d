package dataset

// Batch is one collated step of aligned examples. All rows are
// right-padded to a common length with the pad id; SourceMask is 1
// exactly where SourceIDs holds a real token.
type Batch struct {
	SourceIDs  [][]int
	SourceMask [][]int
	TargetIDs  [][]int
}

// Size returns the number of examples in the batch.
func (b *Batch) Size() int { return len(b.SourceIDs) }

// Trim drops trailing padding columns shared by every example, source
// and target independently, and returns the trimmed views. A batch
// with no shared trailing padding comes back unchanged. The receiver
// is not mutated.
func Trim(b *Batch, padID int) (sourceIDs, sourceMask, targetIDs [][]int) {
	srcKeep := usedColumns(b.SourceIDs, padID)
	tgtKeep := usedColumns(b.TargetIDs, padID)

	sourceIDs = trimColumns(b.SourceIDs, srcKeep)
	sourceMask = trimColumns(b.SourceMask, srcKeep)
	targetIDs = trimColumns(b.TargetIDs, tgtKeep)
	return sourceIDs, sourceMask, targetIDs
}

// usedColumns finds the smallest width that still covers the last
// non-pad token of every row.
func usedColumns(rows [][]int, padID int) int {
	keep := 0
	for _, row := range rows {
		for j := len(row) - 1; j >= 0; j-- {
			if row[j] != padID {
				if j+1 > keep {
					keep = j + 1
				}
				break
			}
		}
	}
	return keep
}

func trimColumns(rows [][]int, keep int) [][]int {
	if len(rows) == 0 || keep >= len(rows[0]) {
		return rows
	}
	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = row[:keep]
	}
	return out
}
