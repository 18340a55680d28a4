package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"sjsage522/pricescout/internal/crawler"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/publisher"
)

// ProductExtractor is the single-product lookup the worker drives
type ProductExtractor interface {
	Lookup(ctx context.Context, url string) (crawler.ExtractionResult, error)
}

// Status classifies one URL's outcome
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
)

// Record is one URL's extraction as published downstream
type Record struct {
	RunID       string                   `json:"run_id"`
	URL         string                   `json:"url"`
	Marketplace crawler.Marketplace      `json:"marketplace"`
	Status      Status                   `json:"status"`
	Retryable   bool                     `json:"retryable"`
	Result      crawler.ExtractionResult `json:"result"`
	CheckedAt   time.Time                `json:"checked_at"`
}

// Summary aggregates a batch run
type Summary struct {
	RunID     string
	Succeeded int
	Empty     int
	Failed    int
	Records   []Record
	Elapsed   time.Duration
}

// Worker extracts many products concurrently, publishing each result
type Worker struct {
	extractor   ProductExtractor
	publisher   publisher.Publisher
	concurrency int
	production  bool
}

// NewWorker creates a new worker. pub may be nil, which skips publishing.
func NewWorker(extractor ProductExtractor, pub publisher.Publisher, concurrency int, production bool) *Worker {
	return &Worker{
		extractor:   extractor,
		publisher:   pub,
		concurrency: max(concurrency, 1),
		production:  production,
	}
}

// Run extracts every URL once. A failing URL never stops the batch; the
// summary counts outcomes and keeps records in input order.
func (w *Worker) Run(ctx context.Context, urls []string) Summary {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.ForWorker().WithField("run_id", runID)

	records := make([]Record, len(urls))
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	for i, url := range urls {
		i, url := i, url
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records[i] = w.extractAndPublish(ctx, runID, url)
		}()
	}
	wg.Wait()

	// Trim all streams after the batch
	if w.publisher != nil {
		if err := w.publisher.TrimStreams(); err != nil {
			log.Error().Err(err).Msg("Stream trimming failed")
		}
	}

	summary := Summary{RunID: runID, Records: records, Elapsed: time.Since(start)}
	for _, r := range records {
		switch r.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusEmpty:
			summary.Empty++
		default:
			summary.Failed++
		}
	}

	log.Info().
		Int("succeeded", summary.Succeeded).
		Int("empty", summary.Empty).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.Elapsed).
		Msg("Batch finished")

	return summary
}

func (w *Worker) extractAndPublish(ctx context.Context, runID, url string) Record {
	log := logger.ForWorker().WithFields(logger.Fields{"run_id": runID, "url": url})
	record := Record{
		RunID:       runID,
		URL:         url,
		Marketplace: crawler.DetectProfile(url, "").Marketplace,
		CheckedAt:   time.Now(),
	}

	if err := ctx.Err(); err != nil {
		record.Status = StatusFailed
		record.Result.Error = err.Error()
		return record
	}

	result, err := w.extractor.Lookup(ctx, url)
	record.Result = result
	switch {
	case err != nil:
		record.Status = StatusFailed
		record.Retryable = errors.Retryable(err)
		if !result.HasError() {
			record.Result.Error = err.Error()
		}
		log.Warn().Err(err).Bool("retryable", record.Retryable).Msg("Extraction failed")
	case result.HasError():
		record.Status = StatusFailed
	case result.Price == nil:
		record.Status = StatusEmpty
	default:
		record.Status = StatusSucceeded
	}

	if w.publisher == nil {
		return record
	}

	data, err := json.Marshal(record)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode record")
		return record
	}
	if err := w.publisher.Publish(string(record.Marketplace), data); err != nil {
		log.Error().Err(err).Msg("Failed to publish record")
	}

	if !w.production {
		log.Debug().RawJSON("record", data).Msg("Published record")
	}
	return record
}
