package enrichment

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/xaenox/nova-forum/internal/intelligence"
	"github.com/xaenox/nova-forum/internal/models"
	"github.com/xaenox/nova-forum/internal/thread"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxInFlight = 8
)

// FallbackReply is published when the provider cannot answer a new post
const FallbackReply = "The cosmos has much to teach us."

// FallbackEnrichment is merged when the provider cannot summarize a post
func FallbackEnrichment() models.Enrichment {
	return models.Enrichment{Summary: "New observation.", Tags: []string{"#Community"}}
}

// Target is the slice of the thread store the pipeline writes through.
// Merges onto a post must check that it still exists and apply atomically.
// A bot post is a new root entry and is always published.
type Target interface {
	MergeEnrichment(postID string, e models.Enrichment) bool
	AppendBotReply(parentID, content string) (models.Reply, bool)
	PublishBotPost(originID, content string) models.Post
}

type Config struct {
	// Timeout bounds every provider call, waiting for a free slot included
	Timeout time.Duration
	// BotReplyDelay paces bot content so it does not appear instantaneous
	BotReplyDelay time.Duration
	// MaxInFlight caps concurrent provider calls
	MaxInFlight int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.BotReplyDelay < 0 {
		c.BotReplyDelay = 0
	}
	return c
}

// Pipeline runs provider calls in the background after posts and replies
// are created, and merges their results back into the store.
// There is no per-task cancellation: stale results are dropped by the
// store's existence check at merge time.
type Pipeline struct {
	target   Target
	provider intelligence.Provider
	cfg      Config
	slots    *semaphore.Weighted
	tasks    errgroup.Group
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger

	// mu orders spawn against Close so no task is added once Close waits
	mu     sync.Mutex
	closed bool
}

func New(target Target, provider intelligence.Provider, cfg Config, logger *zap.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		target:   target,
		provider: provider,
		cfg:      cfg,
		slots:    semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}
}

var _ thread.Scheduler = (*Pipeline)(nil)

// PostCreated starts two independent tasks: metadata for the post and a
// bot post joining the conversation. Their results may land in any order.
func (p *Pipeline) PostCreated(post models.Post) {
	p.spawn(func(ctx context.Context) { p.summarize(ctx, post.ID, post.Content) })
	p.spawn(func(ctx context.Context) { p.converse(ctx, post.ID, post.Content) })
}

// ReplyCreated starts a task answering the reply under the same parent
func (p *Pipeline) ReplyCreated(parentID string, reply models.Reply) {
	p.spawn(func(ctx context.Context) { p.answer(ctx, parentID, reply) })
}

// Wait blocks until every scheduled task has settled
func (p *Pipeline) Wait() {
	p.tasks.Wait()
}

// Close abandons pending pacing waits and in-flight calls, then waits for
// the tasks to return. Tasks scheduled afterwards are ignored.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.cancel()
	p.mu.Unlock()

	p.tasks.Wait()
}

func (p *Pipeline) spawn(task func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.logger.Debug("Pipeline closed, task ignored")
		return
	}
	p.tasks.Go(func() error {
		task(p.ctx)
		return nil
	})
}

func (p *Pipeline) summarize(ctx context.Context, postID, content string) {
	var enrichment models.Enrichment
	err := p.call(ctx, opSummarize, func(ctx context.Context) error {
		var err error
		enrichment, err = p.provider.SummarizeAndTag(ctx, content)
		return err
	})
	if err != nil {
		p.logger.Warn("Summary unavailable, using fallback",
			zap.Error(err),
			zap.String("post_id", postID))
		enrichment = FallbackEnrichment()
	}

	if !p.target.MergeEnrichment(postID, enrichment) {
		p.logger.Debug("Enrichment discarded, post is gone", zap.String("post_id", postID))
		merges.WithLabelValues(kindEnrichment, resultDiscarded).Inc()
		return
	}
	merges.WithLabelValues(kindEnrichment, resultApplied).Inc()
}

func (p *Pipeline) converse(ctx context.Context, postID, content string) {
	var text string
	err := p.call(ctx, opConverse, func(ctx context.Context) error {
		var err error
		text, err = p.provider.Generate(ctx, content)
		return err
	})
	if err != nil {
		p.logger.Warn("Bot reply unavailable, using fallback",
			zap.Error(err),
			zap.String("post_id", postID))
		text = FallbackReply
	}

	if !p.pace(ctx) {
		merges.WithLabelValues(kindBotPost, resultDropped).Inc()
		return
	}

	botPost := p.target.PublishBotPost(postID, text)
	merges.WithLabelValues(kindBotPost, resultApplied).Inc()
	p.logger.Info("Bot joined the conversation",
		zap.String("post_id", botPost.ID),
		zap.String("origin_id", postID))
}

func (p *Pipeline) answer(ctx context.Context, parentID string, reply models.Reply) {
	var text string
	err := p.call(ctx, opAnswer, func(ctx context.Context) error {
		var err error
		text, err = p.provider.Generate(ctx, intelligence.ReplyPrompt(reply.Content))
		return err
	})
	if err != nil {
		p.logger.Warn("Bot answer failed, dropping",
			zap.Error(err),
			zap.String("parent_id", parentID),
			zap.String("reply_id", reply.ID))
		merges.WithLabelValues(kindBotReply, resultDropped).Inc()
		return
	}

	if !p.pace(ctx) {
		merges.WithLabelValues(kindBotReply, resultDropped).Inc()
		return
	}

	if _, ok := p.target.AppendBotReply(parentID, text); !ok {
		p.logger.Debug("Bot reply discarded, parent is gone", zap.String("parent_id", parentID))
		merges.WithLabelValues(kindBotReply, resultDiscarded).Inc()
		return
	}
	merges.WithLabelValues(kindBotReply, resultApplied).Inc()
}

// call runs fn with a bounded deadline inside one in-flight slot
func (p *Pipeline) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		providerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if err := p.slots.Acquire(ctx, 1); err != nil {
		providerCalls.WithLabelValues(op, outcomeTimeout).Inc()
		return err
	}
	defer p.slots.Release(1)

	err := fn(ctx)
	switch {
	case err == nil:
		providerCalls.WithLabelValues(op, outcomeOK).Inc()
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		providerCalls.WithLabelValues(op, outcomeTimeout).Inc()
	default:
		providerCalls.WithLabelValues(op, outcomeError).Inc()
	}
	return err
}

// pace holds bot content back for the configured delay.
// It reports false when the pipeline is closing.
func (p *Pipeline) pace(ctx context.Context) bool {
	if p.cfg.BotReplyDelay == 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(p.cfg.BotReplyDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
