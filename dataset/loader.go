package dataset

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// Loader iterates a Dataset in collated batches. Collation runs on a
// small worker pool feeding a bounded prefetch window; batches are
// delivered in plan order regardless of which worker finished first.
type Loader struct {
	Dataset   *Dataset
	BatchSize int

	// Shuffle permutes example order per iteration (training only).
	Shuffle bool
	Seed    int64

	// Workers is the collation pool size; values below one mean
	// sequential collation. Prefetch bounds how many batches may sit
	// ready ahead of the consumer (default 2).
	Workers  int
	Prefetch int
}

// NumBatches returns the number of batches one pass produces.
func (l *Loader) NumBatches() int {
	if l.BatchSize <= 0 {
		return 0
	}
	return (l.Dataset.Len() + l.BatchSize - 1) / l.BatchSize
}

func (l *Loader) plan() [][]int {
	indices := make([]int, l.Dataset.Len())
	for i := range indices {
		indices[i] = i
	}
	if l.Shuffle {
		rng := rand.New(rand.NewSource(l.Seed))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	chunks := make([][]int, 0, l.NumBatches())
	for start := 0; start < len(indices); start += l.BatchSize {
		end := min(start+l.BatchSize, len(indices))
		chunks = append(chunks, indices[start:end])
	}
	return chunks
}

// Batches starts one pass over the dataset. The returned channel
// closes when the pass completes; the returned wait function reports
// the first collation error or context cancellation. Callers must
// drain the channel before calling wait.
func (l *Loader) Batches(ctx context.Context) (<-chan *Batch, func() error) {
	chunks := l.plan()
	workers := max(1, l.Workers)
	prefetch := l.Prefetch
	if prefetch <= 0 {
		prefetch = 2
	}

	out := make(chan *Batch)
	results := make([]chan *Batch, len(chunks))
	for i := range results {
		results[i] = make(chan *Batch, 1)
	}
	// Each token is one batch allowed to exist ahead of the consumer.
	tokens := make(chan struct{}, prefetch)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pool, pctx := errgroup.WithContext(ctx)
		pool.SetLimit(workers)
	spawn:
		for i, chunk := range chunks {
			i, chunk := i, chunk
			select {
			case tokens <- struct{}{}:
			case <-pctx.Done():
				break spawn
			}
			pool.Go(func() error {
				b, err := l.Dataset.Collate(chunk)
				if err != nil {
					return err
				}
				select {
				case results[i] <- b:
					return nil
				case <-pctx.Done():
					return pctx.Err()
				}
			})
		}
		return pool.Wait()
	})

	g.Go(func() error {
		defer close(out)
		for i := range results {
			var b *Batch
			select {
			case b = <-results[i]:
			case <-ctx.Done():
				return ctx.Err()
			}
			select {
			case out <- b:
				<-tokens
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return out, g.Wait
}
