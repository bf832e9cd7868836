package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is one encoded input of a batch.
type BatchItem struct {
	Name string
	Data []byte
}

// BatchResult holds the outcome for the item at the same index.
type BatchResult struct {
	Name string
	Data []byte
	Err  error
}

// ApplyBatch filters every item on a bounded pool of workers. Item failures
// are reported per result and do not stop the batch; a cancelled context
// stops scheduling and is returned as the error.
func ApplyBatch(ctx context.Context, kind Kind, items []BatchItem, workers int, opts Options) ([]BatchResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := ApplyKindContext(gctx, item.Data, kind, opts)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[i] = BatchResult{Name: item.Name, Data: data, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
