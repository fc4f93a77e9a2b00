package viget

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flaneur2020/vi-get/viget/logger"
)

// ProgressCallback is called after each finished job
// done: jobs finished so far
// total: number of jobs
type ProgressCallback func(done int64, total int64)

// ExtractJob is one container to extract from and where to put the result.
type ExtractJob struct {
	Path    string
	Options ExtractOptions
	// Output is the base output path; see OutputPath.
	Output string

	// Extractions is filled in once the job succeeds.
	Extractions []*Extraction
}

// BatchStats contains statistics about a batch extraction
type BatchStats struct {
	TotalFiles      int
	ExtractedFiles  int
	ExtractedChunks int
	ExtractedBytes  int64
}

// ExtractBatch extracts and saves every job. Each container is parsed by its
// own sequential pipeline; up to concurrency pipelines run at once. The first
// failure cancels the remaining jobs and is returned alongside the stats of
// the jobs that had already finished.
func (e *extractor) ExtractBatch(ctx context.Context, jobs []*ExtractJob, concurrency int, progress ProgressCallback) (*BatchStats, error) {
	stats := &BatchStats{TotalFiles: len(jobs)}
	if len(jobs) == 0 {
		return stats, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu   sync.Mutex
		done int64
	)
	total := int64(len(jobs))
	if progress != nil {
		progress(0, total)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			extractions, err := e.Extract(gctx, job.Path, job.Options)
			if err != nil {
				logger.Error("%s: %v", job.Path, err)
				return err
			}

			var written int64
			for _, ext := range extractions {
				target := OutputPath(job.Output, ext, len(extractions) > 1)
				if err := e.Save(gctx, ext, target); err != nil {
					logger.Error("%s: %v", job.Path, err)
					return err
				}
				written += int64(len(ext.Data))
			}

			mu.Lock()
			defer mu.Unlock()
			job.Extractions = extractions
			stats.ExtractedFiles++
			stats.ExtractedChunks += len(extractions)
			stats.ExtractedBytes += written
			done++
			if progress != nil {
				progress(done, total)
			}
			return nil
		})
	}

	err := g.Wait()
	return stats, err
}
