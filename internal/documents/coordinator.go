package documents

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/internal/tokens"
	"github.com/JaimeStill/speechmark/pkg/lifecycle"
	"github.com/JaimeStill/speechmark/pkg/pagination"
	"github.com/JaimeStill/speechmark/pkg/pending"
)

type reply = chan []tokens.Token

type entry struct {
	latest     int32
	queued     *Revision
	processing bool
	dispatch   uuid.UUID
	document   *Document
	replies    pending.Buffer[reply]
}

type reviseMsg struct{ rev Revision }

type forgetMsg struct{ key string }

type remapMsg struct{ update labels.Update }

type fetchMsg struct {
	key   string
	reply reply
}

type abandonMsg struct {
	key   string
	reply reply
}

type completedMsg struct {
	key      string
	dispatch uuid.UUID
	doc      *Document
}

type failedMsg struct {
	key      string
	dispatch uuid.UUID
	err      error
}

type statusMsg struct {
	key   string
	reply chan statusResult
}

type listMsg struct {
	reply chan []Status
}

type statusResult struct {
	status Status
	found  bool
}

// coordinator owns every entry from a single goroutine. All operations,
// including classifier results, arrive as messages on the mailbox.
type coordinator struct {
	classifier classifications.Classifier
	gate       *classifications.Gate
	labels     *labels.Map
	logger     *slog.Logger
	metrics    *metrics
	pagination pagination.Config

	sem     *semaphore.Weighted
	mailbox chan any
	done    chan struct{}
	started atomic.Bool
	ctx     context.Context
	workers sync.WaitGroup

	entries map[string]*entry
}

// New creates the document coordinator. Metrics are registered with reg
// when it is non-nil.
func New(
	classifier classifications.Classifier,
	gate *classifications.Gate,
	labelMap *labels.Map,
	cfg *Config,
	reg prometheus.Registerer,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return newCoordinator(classifier, gate, labelMap, cfg, reg, logger, pagination)
}

func newCoordinator(
	classifier classifications.Classifier,
	gate *classifications.Gate,
	labelMap *labels.Map,
	cfg *Config,
	reg prometheus.Registerer,
	logger *slog.Logger,
	pagination pagination.Config,
) *coordinator {
	return &coordinator{
		classifier: classifier,
		gate:       gate,
		labels:     labelMap,
		logger:     logger.With("system", "documents"),
		metrics:    newMetrics(reg),
		pagination: pagination,
		sem:        semaphore.NewWeighted(int64(cfg.Workers)),
		mailbox:    make(chan any, cfg.MailboxSize),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		entries:    make(map[string]*entry),
	}
}

// Start launches the mailbox loop. The loop stops when the lifecycle
// context is cancelled, closing every pending token request.
func (c *coordinator) Start(lc *lifecycle.Coordinator) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	c.ctx = lc.Context()
	go c.run()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-c.done
		c.workers.Wait()
		c.logger.Info("document coordinator stopped")
	})

	c.logger.Info("document coordinator started")
	return nil
}

func (c *coordinator) Revise(rev Revision) {
	c.post(reviseMsg{rev: rev})
}

func (c *coordinator) Forget(key string) {
	c.post(forgetMsg{key: key})
}

func (c *coordinator) RemapLabels(update labels.Update) {
	c.post(remapMsg{update: update})
}

func (c *coordinator) FetchTokens(ctx context.Context, key string) ([]tokens.Token, error) {
	ch := make(reply, 1)

	select {
	case c.mailbox <- fetchMsg{key: key, reply: ch}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrStopped
	}

	select {
	case toks, ok := <-ch:
		if !ok {
			return nil, ErrNoResult
		}
		return toks, nil
	case <-ctx.Done():
		c.post(abandonMsg{key: key, reply: ch})
		return nil, ctx.Err()
	case <-c.done:
		select {
		case toks, ok := <-ch:
			if ok {
				return toks, nil
			}
			return nil, ErrNoResult
		default:
			return nil, ErrStopped
		}
	}
}

func (c *coordinator) Status(ctx context.Context, key string) (Status, error) {
	ch := make(chan statusResult, 1)
	if err := c.request(ctx, statusMsg{key: key, reply: ch}); err != nil {
		return Status{}, err
	}

	select {
	case res := <-ch:
		if !res.found {
			return Status{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return res.status, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-c.done:
		return Status{}, ErrStopped
	}
}

func (c *coordinator) List(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[Status], error) {
	ch := make(chan []Status, 1)
	if err := c.request(ctx, listMsg{reply: ch}); err != nil {
		return pagination.PageResult[Status]{}, err
	}

	var all []Status
	select {
	case all = <-ch:
	case <-ctx.Done():
		return pagination.PageResult[Status]{}, ctx.Err()
	case <-c.done:
		return pagination.PageResult[Status]{}, ErrStopped
	}

	if page.Search != nil && *page.Search != "" {
		term := strings.ToLower(*page.Search)
		filtered := all[:0]
		for _, s := range all {
			if strings.Contains(strings.ToLower(s.Key), term) {
				filtered = append(filtered, s)
			}
		}
		all = filtered
	}

	page.Normalize(c.pagination)
	if len(page.Sort) == 0 {
		page.Sort = pagination.SortFields{{Field: "key"}}
	}
	return pagination.Apply(all, page, sortStatus), nil
}

func (c *coordinator) Handler(fetchTimeout time.Duration, maxBodySize int64) *Handler {
	return NewHandler(c, c.logger, c.pagination, fetchTimeout, maxBodySize)
}

// post enqueues a fire-and-forget message. It gives up once the loop has
// stopped.
func (c *coordinator) post(msg any) {
	select {
	case c.mailbox <- msg:
	case <-c.done:
	}
}

func (c *coordinator) request(ctx context.Context, msg any) error {
	select {
	case c.mailbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

func (c *coordinator) run() {
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return
		case msg := <-c.mailbox:
			c.handle(msg)
		}
	}
}

func (c *coordinator) handle(msg any) {
	switch m := msg.(type) {
	case reviseMsg:
		c.revise(m.rev)
	case forgetMsg:
		c.forget(m.key)
	case remapMsg:
		c.labels.Extend(m.update)
		c.metrics.remaps.Inc()
		c.logger.Info("label map updated", "categories", len(m.update))
	case fetchMsg:
		c.fetch(m.key, m.reply)
	case abandonMsg:
		c.abandon(m.key, m.reply)
	case completedMsg:
		c.completed(m)
	case failedMsg:
		c.failed(m)
	case statusMsg:
		e, ok := c.entries[m.key]
		if !ok {
			m.reply <- statusResult{}
			return
		}
		m.reply <- statusResult{status: e.status(m.key), found: true}
	case listMsg:
		all := make([]Status, 0, len(c.entries))
		for key, e := range c.entries {
			all = append(all, e.status(key))
		}
		m.reply <- all
	default:
		c.logger.Error("unknown mailbox message", "type", fmt.Sprintf("%T", msg))
	}
}

func (c *coordinator) entry(key string) *entry {
	if e, ok := c.entries[key]; ok {
		return e
	}

	e := &entry{
		latest:  math.MinInt32,
		replies: pending.New(c.closeReply),
	}
	c.entries[key] = e
	c.metrics.tracked.Set(float64(len(c.entries)))
	return e
}

func (c *coordinator) revise(rev Revision) {
	e := c.entry(rev.Key)

	if rev.Version <= e.latest {
		c.metrics.revisions.WithLabelValues("stale").Inc()
		c.logger.Debug("stale revision discarded",
			"key", rev.Key,
			"version", rev.Version,
			"latest", e.latest,
		)
		return
	}
	e.latest = rev.Version

	if !e.processing {
		c.metrics.revisions.WithLabelValues("dispatched").Inc()
		c.dispatch(e, rev)
		return
	}

	if e.queued != nil {
		c.metrics.revisions.WithLabelValues("replaced").Inc()
	} else {
		c.metrics.revisions.WithLabelValues("queued").Inc()
	}
	e.queued = &rev
}

func (c *coordinator) forget(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}

	e.replies.Clear()
	delete(c.entries, key)
	c.metrics.tracked.Set(float64(len(c.entries)))
	c.logger.Debug("document forgotten", "key", key)
}

// fetch answers unknown keys at once with no value. Only revised keys
// hold waiting readers, so reads alone never grow the store.
func (c *coordinator) fetch(key string, ch reply) {
	e, ok := c.entries[key]
	if !ok {
		close(ch)
		c.metrics.replies.WithLabelValues("unknown").Inc()
		return
	}

	if !e.processing && e.document != nil {
		ch <- c.encode(e.document)
		c.metrics.replies.WithLabelValues("immediate").Inc()
		return
	}

	e.replies.Push(ch)
}

// abandon removes a reader whose caller stopped waiting, so the flush
// policy only weighs readers that can still receive.
func (c *coordinator) abandon(key string, ch reply) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.replies.Remove(func(r reply) bool { return r == ch }) {
		c.metrics.replies.WithLabelValues("abandoned").Inc()
	}
}

func (c *coordinator) completed(m completedMsg) {
	e, ok := c.entries[m.key]
	if !ok || e.dispatch != m.dispatch {
		c.metrics.classifications.WithLabelValues("dropped").Inc()
		c.logger.Debug("completion for forgotten document dropped",
			"key", m.key,
			"dispatch", m.dispatch,
		)
		return
	}

	c.metrics.classifications.WithLabelValues("completed").Inc()
	e.processing = false

	var (
		ch   reply
		sent bool
	)
	if e.queued != nil {
		ch, sent = e.replies.TakeOlder()
	} else {
		ch, sent = e.replies.TakeNewest()
	}
	if sent {
		ch <- c.encode(m.doc)
		c.metrics.replies.WithLabelValues("answered").Inc()
	}

	if e.document == nil || m.doc.Version >= e.document.Version {
		e.document = m.doc
	} else {
		c.logger.Warn("older completion ignored",
			"key", m.key,
			"version", m.doc.Version,
			"stored", e.document.Version,
		)
	}

	if e.queued != nil {
		next := *e.queued
		e.queued = nil
		c.dispatch(e, next)
	}
}

func (c *coordinator) failed(m failedMsg) {
	e, ok := c.entries[m.key]
	if !ok || e.dispatch != m.dispatch {
		return
	}

	e.processing = false
	if e.queued != nil {
		next := *e.queued
		e.queued = nil
		c.logger.Debug("retrying with queued revision",
			"key", m.key,
			"version", next.Version,
			"error", m.err,
		)
		c.dispatch(e, next)
	}
}

func (c *coordinator) dispatch(e *entry, rev Revision) {
	e.processing = true
	e.dispatch = uuid.New()

	c.workers.Add(1)
	go c.classify(e.dispatch, rev)
}

// classify runs on a worker goroutine and reports back through the mailbox.
func (c *coordinator) classify(id uuid.UUID, rev Revision) {
	defer c.workers.Done()

	logger := c.logger.With("key", rev.Key, "version", rev.Version, "dispatch", id)

	if err := c.sem.Acquire(c.ctx, 1); err != nil {
		c.post(failedMsg{key: rev.Key, dispatch: id, err: err})
		return
	}
	defer c.sem.Release(1)

	start := time.Now()
	preds, err := c.classifier.Classify(c.ctx, rev.Text)
	c.metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.classifications.WithLabelValues("failed").Inc()
		logger.Warn("classification failed", "error", err)
		c.post(failedMsg{key: rev.Key, dispatch: id, err: err})
		return
	}

	spans := c.gate.Apply(rev.Key, preds)
	logger.Debug("classification completed",
		"predictions", len(preds),
		"spans", len(spans),
		"duration", time.Since(start),
	)

	c.post(completedMsg{
		key:      rev.Key,
		dispatch: id,
		doc: &Document{
			Text:    rev.Text,
			Spans:   spans,
			Version: rev.Version,
		},
	})
}

func (c *coordinator) encode(doc *Document) []tokens.Token {
	return tokens.Encode(doc.Text, doc.Spans, c.labels)
}

func (c *coordinator) closeReply(ch reply) {
	close(ch)
	c.metrics.replies.WithLabelValues("closed").Inc()
}

func (c *coordinator) shutdown() {
	for _, e := range c.entries {
		e.replies.Clear()
	}
	c.entries = make(map[string]*entry)
	c.metrics.tracked.Set(0)
}

func (e *entry) status(key string) Status {
	s := Status{
		Key:        key,
		Processing: e.processing,
		Pending:    e.replies.Len(),
	}
	if e.latest != math.MinInt32 {
		latest := e.latest
		s.Latest = &latest
	}
	if e.queued != nil {
		queued := e.queued.Version
		s.Queued = &queued
	}
	if e.document != nil {
		version := e.document.Version
		s.Version = &version
		s.Spans = len(e.document.Spans)
	}
	return s
}

func sortStatus(a, b Status, field string) (int, bool) {
	switch field {
	case "key":
		return pagination.Compare(a.Key, b.Key)
	case "version":
		return cmp.Compare(deref(a.Version), deref(b.Version)), true
	case "pending":
		return pagination.Compare(a.Pending, b.Pending)
	}
	return 0, false
}

func deref(v *int32) int32 {
	if v == nil {
		return math.MinInt32
	}
	return *v
}
