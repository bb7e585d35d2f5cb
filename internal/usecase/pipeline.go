package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

// CompletionMessage is returned to manual triggers once a run finishes.
const CompletionMessage = "News collection completed"

const defaultParallelism = 4

// Stage is the state of one batch. A run moves through the stages in declaration
// order and returns to StageIdle when it ends.
type Stage int32

const (
	StageIdle Stage = iota
	StageFetching
	StageDeduplicating
	StageSummarizing
	StagePersisting
	StageReporting
)

func (s Stage) String() string {
	switch s {
	case StageFetching:
		return "fetching"
	case StageDeduplicating:
		return "deduplicating"
	case StageSummarizing:
		return "summarizing"
	case StagePersisting:
		return "persisting"
	case StageReporting:
		return "reporting"
	default:
		return "idle"
	}
}

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Catalog     ports.FeedCatalog
	Fetcher     ports.FeedFetcher
	Store       ports.ArticleStore
	Summarizer  ports.Summarizer
	Parallelism int
	Logger      *slog.Logger
	Now         func() time.Time
	NewRunID    func() string
}

// Pipeline implements the ingestion workflow: fetch every feed, drop known URLs,
// summarize and persist the rest.
type Pipeline struct {
	catalog     ports.FeedCatalog
	fetcher     ports.FeedFetcher
	dedup       *Deduplicator
	store       ports.ArticleStore
	summarizer  ports.Summarizer
	parallelism int
	logger      *slog.Logger
	now         func() time.Time
	newRunID    func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		catalog:     deps.Catalog,
		fetcher:     deps.Fetcher,
		dedup:       NewDeduplicator(deps.Store),
		store:       deps.Store,
		summarizer:  deps.Summarizer,
		parallelism: deps.Parallelism,
		logger:      logging.OrDiscard(deps.Logger),
		now:         deps.Now,
		newRunID:    deps.NewRunID,
	}
	if p.parallelism <= 0 {
		p.parallelism = defaultParallelism
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	return p
}

// Collect runs one batch over every feed and returns a completion acknowledgement.
func (p *Pipeline) Collect(ctx context.Context) (string, error) {
	if _, err := p.Run(ctx); err != nil {
		return "", err
	}
	return CompletionMessage, nil
}

// Run processes every catalog feed. Only a catalog failure aborts the run; per-feed and
// per-article failures are counted in the report. Overlapping runs are independent.
func (p *Pipeline) Run(ctx context.Context) (domain.BatchReport, error) {
	return p.run(ctx, "", nil)
}

// RunCategory processes only the feeds whose label resolves to the same category as label.
func (p *Pipeline) RunCategory(ctx context.Context, label string) (domain.BatchReport, error) {
	target, ok := domain.LookupCategory(label)
	if !ok {
		return domain.BatchReport{}, fmt.Errorf("unknown category %q", label)
	}
	return p.run(ctx, label, func(feed domain.FeedDescriptor) bool {
		id, _ := domain.LookupCategory(feed.Category)
		return id == target
	})
}

func (p *Pipeline) run(ctx context.Context, scope string, keep func(domain.FeedDescriptor) bool) (domain.BatchReport, error) {
	report := domain.BatchReport{RunID: p.newRunID(), StartedAt: p.now()}
	logger := p.logger.With("run_id", report.RunID)
	if scope != "" {
		logger = logger.With("category", scope)
	}

	if p.catalog == nil || p.fetcher == nil || p.store == nil {
		return report, errors.New("pipeline is missing catalog, fetcher or store")
	}

	b := &batch{logger: logger}
	defer b.enter(StageIdle)

	b.enter(StageFetching)
	feeds, err := p.catalog.ListFeeds(ctx)
	if err != nil {
		return report, fmt.Errorf("list feeds: %w", err)
	}
	if keep != nil {
		feeds = filterFeeds(feeds, keep)
	}
	report.Feeds = len(feeds)
	logger.Info("collection started", "feeds", len(feeds))

	items := p.fetchAll(ctx, feeds, b)

	b.enter(StageDeduplicating)
	items = p.dropKnown(ctx, items, b)

	b.enter(StageSummarizing)
	p.summarizeAll(ctx, items, b)

	b.enter(StagePersisting)
	p.persistAll(ctx, items, b)

	b.enter(StageReporting)
	b.tally.fill(&report)
	report.FinishedAt = p.now()

	logger.Info("collection finished",
		"feeds", report.Feeds,
		"failed_feeds", report.FailedFeeds,
		"fetched", report.Fetched,
		"succeeded", report.Succeeded,
		"skipped_duplicate", report.SkippedDuplicate,
		"skipped_invalid", report.SkippedInvalid,
		"errored", report.Errored,
		"summary_fallbacks", report.SummaryFallbacks,
		"duration", report.Duration())

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("collection interrupted: %w", err)
	}
	return report, nil
}

// fetchAll downloads every feed in parallel and returns candidates in catalog order,
// preserving feed order within each feed.
func (p *Pipeline) fetchAll(ctx context.Context, feeds []domain.FeedDescriptor, b *batch) []*item {
	perFeed := make([][]*item, len(feeds))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.parallelism)
	for i, feed := range feeds {
		group.Go(func() error {
			perFeed[i] = p.fetchFeed(groupCtx, feed, b)
			return nil
		})
	}
	_ = group.Wait()

	var items []*item
	for _, feedItems := range perFeed {
		items = append(items, feedItems...)
	}
	b.tally.fetched.Add(int64(len(items)))
	return items
}

func (p *Pipeline) fetchFeed(ctx context.Context, feed domain.FeedDescriptor, b *batch) []*item {
	logger := b.logger.With("feed", feed.URL, "source", feed.SourceName)
	defer func() {
		if r := recover(); r != nil {
			b.tally.failedFeeds.Add(1)
			logger.Error("fetch feed panicked", "panic", r)
		}
	}()

	candidates, err := p.fetcher.Fetch(ctx, feed)
	if err != nil {
		b.tally.failedFeeds.Add(1)
		logger.Error("fetch feed failed", "error", err)
		return nil
	}

	var items []*item
	for candidate := range candidates {
		items = append(items, &item{candidate: candidate, logger: logger.With("url", candidate.URL)})
	}
	return items
}

// dropKnown filters out invalid candidates, URLs already stored and URLs repeated
// earlier in the same batch.
func (p *Pipeline) dropKnown(ctx context.Context, items []*item, b *batch) []*item {
	seen := make(map[string]struct{}, len(items))
	fresh := items[:0]
	for _, it := range items {
		if ctx.Err() != nil {
			b.tally.errored.Add(1)
			continue
		}
		if err := it.candidate.Validate(); err != nil {
			b.tally.skippedInvalid.Add(1)
			it.logger.Debug("skip invalid article", "error", err)
			continue
		}
		if _, dup := seen[it.candidate.URL]; dup {
			b.tally.skippedDuplicate.Add(1)
			it.logger.Debug("skip article repeated in batch")
			continue
		}
		seen[it.candidate.URL] = struct{}{}

		isNew, err := p.dedup.IsNew(ctx, it.candidate.URL)
		if err != nil {
			b.tally.errored.Add(1)
			it.logger.Error("duplicate check failed", "error", err)
			continue
		}
		if !isNew {
			b.tally.skippedDuplicate.Add(1)
			it.logger.Debug("skip known article")
			continue
		}
		fresh = append(fresh, it)
	}
	return fresh
}

func (p *Pipeline) summarizeAll(ctx context.Context, items []*item, b *batch) {
	if p.summarizer == nil {
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.parallelism)
	for _, it := range items {
		group.Go(func() error {
			p.summarize(groupCtx, it, b)
			return nil
		})
	}
	_ = group.Wait()
}

func (p *Pipeline) summarize(ctx context.Context, it *item, b *batch) {
	defer func() {
		if r := recover(); r != nil {
			it.failed = true
			it.logger.Error("summarize article panicked", "panic", r)
		}
	}()

	result := p.summarizer.Summarize(ctx, it.candidate.URL, it.candidate.Title)
	if result.OK() {
		it.candidate.Summary = result.Text
		return
	}
	b.tally.summaryFallbacks.Add(1)
	it.logger.Warn("summary unavailable, keeping feed content",
		"status", result.Status.String(),
		"detail", result.Text,
		"attempts", result.Attempts)
}

func (p *Pipeline) persistAll(ctx context.Context, items []*item, b *batch) {
	for _, it := range items {
		if it.failed {
			b.tally.errored.Add(1)
			continue
		}
		saved, err := p.store.Save(ctx, it.candidate.ToStored())
		switch {
		case errors.Is(err, domain.ErrDuplicateURL):
			b.tally.skippedDuplicate.Add(1)
			it.logger.Debug("article stored concurrently")
		case err != nil:
			b.tally.errored.Add(1)
			it.logger.Error("persist article failed", "error", err)
		default:
			b.tally.succeeded.Add(1)
			it.logger.Debug("article stored", "id", saved.ID, "category", saved.CategoryID.String())
		}
	}
}

// batch carries the state of a single run.
type batch struct {
	logger *slog.Logger
	stage  Stage
	tally  batchTally
}

func (b *batch) enter(s Stage) {
	if b.stage == s {
		return
	}
	b.stage = s
	b.logger.Info("stage", "stage", s.String())
}

type item struct {
	candidate domain.ArticleCandidate
	logger    *slog.Logger
	failed    bool
}

func filterFeeds(feeds []domain.FeedDescriptor, keep func(domain.FeedDescriptor) bool) []domain.FeedDescriptor {
	out := make([]domain.FeedDescriptor, 0, len(feeds))
	for _, feed := range feeds {
		if keep(feed) {
			out = append(out, feed)
		}
	}
	return out
}

type batchTally struct {
	failedFeeds      atomic.Int64
	fetched          atomic.Int64
	succeeded        atomic.Int64
	skippedDuplicate atomic.Int64
	skippedInvalid   atomic.Int64
	errored          atomic.Int64
	summaryFallbacks atomic.Int64
}

func (t *batchTally) fill(report *domain.BatchReport) {
	report.FailedFeeds = int(t.failedFeeds.Load())
	report.Fetched = int(t.fetched.Load())
	report.Succeeded = int(t.succeeded.Load())
	report.SkippedDuplicate = int(t.skippedDuplicate.Load())
	report.SkippedInvalid = int(t.skippedInvalid.Load())
	report.Errored = int(t.errored.Load())
	report.SummaryFallbacks = int(t.summaryFallbacks.Load())
}
