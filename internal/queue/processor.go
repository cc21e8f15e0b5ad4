package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/internal/venue"
)

// DefaultWorkers caps concurrent segment extractions per batch.
const DefaultWorkers = 3

// SegmentProcessor produces one segment artifact (the orchestrator).
type SegmentProcessor interface {
	Process(ctx context.Context, req venue.Request, progress media.ProgressFunc) (venue.Result, error)
}

// Prefetcher ensures a source's full copy is available before the batch
// fans out.
type Prefetcher interface {
	Ensure(ctx context.Context, sourceID string, onProgress func(float64)) (string, error)
}

// Evictor bounds disk growth. It runs before the batch triggers any fresh
// full-copy fetch.
type Evictor interface {
	Evict() (int, error)
}

// Uploader publishes one rendered segment and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, path string, item Item) (string, error)
}

// RemotePurger mirrors completed-item removal to the server-synced queue.
type RemotePurger interface {
	PurgeCompleted(ctx context.Context) error
}

// Processor drives one batch through the queue: group prefetch, bounded
// concurrent extraction, then strictly sequential uploads.
type Processor struct {
	logger     zerolog.Logger
	manager    *Manager
	segments   SegmentProcessor
	prefetch   Prefetcher
	cache      Evictor
	uploader   Uploader
	remote     RemotePurger
	workers    int
	graceDelay time.Duration
}

// ProcessorOptions wires the processor's collaborators. Prefetch, Cache,
// Uploader and Remote may be nil; the corresponding phase is skipped.
type ProcessorOptions struct {
	Manager    *Manager
	Segments   SegmentProcessor
	Prefetch   Prefetcher
	Cache      Evictor
	Uploader   Uploader
	Remote     RemotePurger
	Workers    int
	GraceDelay time.Duration
}

// NewProcessor creates a batch processor.
func NewProcessor(logger zerolog.Logger, opts ProcessorOptions) *Processor {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Processor{
		logger:     logger.With().Str("component", "processor").Logger(),
		manager:    opts.Manager,
		segments:   opts.Segments,
		prefetch:   opts.Prefetch,
		cache:      opts.Cache,
		uploader:   opts.Uploader,
		remote:     opts.Remote,
		workers:    workers,
		graceDelay: opts.GraceDelay,
	}
}

// ProcessAll runs the full batch. A single item's failure never aborts the
// batch; it is isolated to that item's status and error field.
func (p *Processor) ProcessAll(ctx context.Context) error {
	pending := p.pendingItems()
	if len(pending) == 0 {
		return nil
	}
	p.logger.Info().Int("items", len(pending)).Msg("processing queue batch")

	// Bound the cache before the batch can trigger fresh full-copy fetches.
	if p.cache != nil {
		if _, err := p.cache.Evict(); err != nil {
			p.logger.Warn().Err(err).Msg("cache eviction failed, continuing")
		}
	}

	pending = p.prefetchGroups(ctx, pending)
	p.extractAll(ctx, pending)
	p.uploadRendered(ctx)
	p.purgeAfterGrace(ctx)
	return ctx.Err()
}

func (p *Processor) pendingItems() []Item {
	var pending []Item
	for _, item := range p.manager.Items() {
		if item.Status == StatusPending {
			pending = append(pending, item)
		}
	}
	return pending
}

// prefetchGroups ensures each distinct source once. A prefetch failure marks
// the whole group as error and drops it from the batch without attempting
// extraction.
func (p *Processor) prefetchGroups(ctx context.Context, pending []Item) []Item {
	if p.prefetch == nil {
		return pending
	}

	groups := make(map[string][]Item)
	var order []string
	for _, item := range pending {
		if _, seen := groups[item.VideoID]; !seen {
			order = append(order, item.VideoID)
		}
		groups[item.VideoID] = append(groups[item.VideoID], item)
	}

	var runnable []Item
	for _, videoID := range order {
		group := groups[videoID]
		if _, err := p.prefetch.Ensure(ctx, videoID, nil); err != nil {
			p.logger.Error().Str("video", videoID).Err(err).Int("items", len(group)).Msg("source prefetch failed, failing group")
			for _, item := range group {
				p.fail(item.ID, err)
			}
			continue
		}
		runnable = append(runnable, group...)
	}
	return runnable
}

// extractAll runs extraction+overlay for all runnable items through a
// bounded worker pool.
func (p *Processor) extractAll(ctx context.Context, items []Item) {
	if len(items) == 0 {
		return
	}

	jobs := make(chan Item)
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				p.extractOne(ctx, item)
			}
		}()
	}

	for _, item := range items {
		jobs <- item
	}
	close(jobs)
	wg.Wait()
}

func (p *Processor) extractOne(ctx context.Context, item Item) {
	if _, err := p.manager.Update(item.ID, Patch{Status: patchStatus(StatusProcessing)}); err != nil {
		return // removed while queued
	}

	req := venue.Request{
		SourceID:    item.VideoID,
		Start:       item.StartTime,
		End:         item.EndTime,
		OverlayText: item.OverlayText,
	}

	result, err := p.segments.Process(ctx, req, func(prog media.Progress) {
		p.logger.Debug().Str("id", item.ID).Str("stage", prog.Stage).Float64("percent", prog.Percent).Msg("segment progress")
	})
	if err != nil {
		p.fail(item.ID, err)
		return
	}

	p.manager.Update(item.ID, Patch{
		Status:     patchStatus(StatusRendered),
		OutputPath: patchString(result.Path),
	})
}

// uploadRendered publishes rendered items strictly sequentially, in queue
// order.
func (p *Processor) uploadRendered(ctx context.Context) {
	if p.uploader == nil {
		return
	}

	for _, item := range p.manager.Items() {
		if item.Status != StatusRendered {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		p.manager.Update(item.ID, Patch{Status: patchStatus(StatusUploading)})

		url, err := p.uploader.Upload(ctx, item.OutputPath, item)
		if err != nil {
			p.fail(item.ID, err)
			continue
		}

		p.manager.Update(item.ID, Patch{
			Status:     patchStatus(StatusCompleted),
			YouTubeURL: patchString(url),
		})
		p.logger.Info().Str("id", item.ID).Str("url", url).Msg("segment uploaded")
	}
}

// purgeAfterGrace clears completed items from the local and remote queues
// once the grace delay has passed.
func (p *Processor) purgeAfterGrace(ctx context.Context) {
	if p.graceDelay > 0 {
		select {
		case <-time.After(p.graceDelay):
		case <-ctx.Done():
			return
		}
	}

	if removed := p.manager.ClearCompleted(); removed > 0 {
		p.logger.Info().Int("removed", removed).Msg("purged completed items")
	}
	if p.remote != nil {
		if err := p.remote.PurgeCompleted(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("remote queue purge failed")
		}
	}
}

func (p *Processor) fail(id string, err error) {
	p.manager.Update(id, Patch{
		Status: patchStatus(StatusError),
		Error:  patchString(err.Error()),
	})
}
