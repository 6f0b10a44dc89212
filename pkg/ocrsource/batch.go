package ocrsource

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/bilalelmas/invoscan/pkg/invoice"
)

// Result is the per-file outcome of a batch extraction. A failed file
// carries its error and never aborts the batch.
type Result struct {
	Path      string
	Fragments []invoice.TextBlock
	Err       error
}

// ExtractAll runs OCR over many files with a bounded worker pool. Each
// worker owns its tesseract client. Results preserve input order.
func ExtractAll(ctx context.Context, paths []string, workers int) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]Result, len(paths))
	idxCh := make(chan int, len(paths))
	for i := range paths {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex := NewExtractor()
			for i := range idxCh {
				if err := ctx.Err(); err != nil {
					results[i] = Result{Path: paths[i], Err: err}
					continue
				}
				frags, err := ex.Fragments(paths[i])
				results[i] = Result{Path: paths[i], Fragments: frags, Err: err}
			}
		}()
	}
	wg.Wait()
	return results
}

// trimOCRLine strips tab debris and collapses runs of spaces inside a
// detected line without touching letter case.
func trimOCRLine(t string) string {
	t = strings.ReplaceAll(t, "\n", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	return strings.Join(strings.Fields(t), " ")
}
