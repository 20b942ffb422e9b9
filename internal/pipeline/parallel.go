package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"cardscan/internal/contact"
	"cardscan/internal/ocr"
)

// ImageResult is the outcome for one image of a batch. Err is set when the
// image could not be decoded; the rest of the batch is unaffected.
type ImageResult struct {
	Records []contact.Record
	Err     error
}

type imageJob struct {
	index int
	data  []byte
}

type indexedResult struct {
	index  int
	result ImageResult
}

// ProcessImages processes a batch of images and returns per-image results in
// input order. Images are distributed over a worker pool; each worker runs
// its own recognition engine since a Tesseract client is single-threaded.
func (p *Pipeline) ProcessImages(ctx context.Context, images [][]byte) ([]ImageResult, error) {
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}
	if p.engine == nil {
		return nil, errors.New("pipeline is closed")
	}

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(images) {
		workers = len(images)
	}
	if len(images) == 1 || workers == 1 {
		return p.processSequential(ctx, images)
	}

	jobs := make(chan imageJob, len(images))
	results := make(chan indexedResult, len(images))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, data := range images {
			select {
			case jobs <- imageJob{index: i, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]ImageResult, len(images))
	done := 0
	for r := range results {
		ordered[r.index] = r.result
		done++
		if p.cfg.Progress != nil {
			p.cfg.Progress(done, len(images))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

func (p *Pipeline) worker(ctx context.Context, jobs <-chan imageJob, results chan<- indexedResult, wg *sync.WaitGroup) {
	defer wg.Done()

	engine := ocr.NewEngine(p.logger)
	defer engine.Close()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		records, err := p.processWith(engine, job.data, Options{})
		results <- indexedResult{
			index:  job.index,
			result: ImageResult{Records: records, Err: err},
		}
	}
}

func (p *Pipeline) processSequential(ctx context.Context, images [][]byte) ([]ImageResult, error) {
	ordered := make([]ImageResult, len(images))
	for i, data := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := p.ProcessImage(data)
		ordered[i] = ImageResult{Records: records, Err: err}
		if p.cfg.Progress != nil {
			p.cfg.Progress(i+1, len(images))
		}
	}
	return ordered, nil
}
