package documents_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/documents"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/internal/tokens"
	"github.com/JaimeStill/speechmark/pkg/lifecycle"
	"github.com/JaimeStill/speechmark/pkg/pagination"
)

const wait = 5 * time.Second

type outcome struct {
	preds []classifications.Prediction
	err   error
}

type call struct {
	text   string
	result chan outcome
}

func (c *call) succeed(t *testing.T) {
	t.Helper()
	preds, err := classifications.NewLexicon().Classify(context.Background(), c.text)
	require.NoError(t, err)
	c.result <- outcome{preds: preds}
}

func (c *call) fail(err error) {
	c.result <- outcome{err: err}
}

// stubClassifier blocks every call until the test resolves it.
type stubClassifier struct {
	calls    chan *call
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *stubClassifier) Classify(ctx context.Context, text string) ([]classifications.Prediction, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	c := &call{text: text, result: make(chan outcome, 1)}
	select {
	case s.calls <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case o := <-c.result:
		return o.preds, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fetchResult struct {
	tokens []tokens.Token
	err    error
}

type harness struct {
	sys        documents.System
	lc         *lifecycle.Coordinator
	classifier *stubClassifier
	labels     *labels.Map
	gate       *classifications.Gate
	registry   *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		lc:         lifecycle.New(),
		classifier: &stubClassifier{calls: make(chan *call, 16)},
		labels:     labels.NewMap(),
		gate:       classifications.NewGate(classifications.DefaultThreshold, logger),
		registry:   prometheus.NewRegistry(),
	}

	h.sys = documents.New(
		h.classifier,
		h.gate,
		h.labels,
		&documents.Config{Workers: 4, MailboxSize: 64},
		h.registry,
		logger,
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
	require.NoError(t, h.sys.Start(h.lc))

	t.Cleanup(func() {
		h.lc.Shutdown(wait)
	})
	return h
}

func (h *harness) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-h.classifier.calls:
		return c
	case <-time.After(wait):
		t.Fatal("classifier was not called")
		return nil
	}
}

func (h *harness) idle(t *testing.T) {
	t.Helper()
	select {
	case c := <-h.classifier.calls:
		t.Fatalf("unexpected classification of %q", c.text)
	case <-time.After(50 * time.Millisecond):
	}
}

func (h *harness) status(t *testing.T, key string) documents.Status {
	t.Helper()
	s, err := h.sys.Status(context.Background(), key)
	require.NoError(t, err)
	return s
}

func (h *harness) fetch(t *testing.T, key string) <-chan fetchResult {
	t.Helper()
	before := h.status(t, key).Pending

	out := make(chan fetchResult, 1)
	go func() {
		toks, err := h.sys.FetchTokens(context.Background(), key)
		out <- fetchResult{tokens: toks, err: err}
	}()

	want := min(before+1, 2)
	require.Eventually(t, func() bool {
		return h.status(t, key).Pending == want
	}, wait, time.Millisecond)
	return out
}

func (h *harness) expected(t *testing.T, text string) []tokens.Token {
	t.Helper()
	preds, err := classifications.NewLexicon().Classify(context.Background(), text)
	require.NoError(t, err)
	return tokens.Encode(text, h.gate.Apply("expected", preds), h.labels)
}

func receive(t *testing.T, ch <-chan fetchResult) fetchResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(wait):
		t.Fatal("token request not resolved")
		return fetchResult{}
	}
}

func pendingResult(t *testing.T, ch <-chan fetchResult) {
	t.Helper()
	select {
	case r := <-ch:
		t.Fatalf("request resolved early: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func ptr(v int32) *int32 { return &v }

func TestLatestWinsWithSingleFlight(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	first := h.next(t)
	assert.Equal(t, "one", first.text)

	h.sys.Revise(documents.Revision{Key: "a", Text: "two", Version: 2})
	h.sys.Revise(documents.Revision{Key: "a", Text: "three", Version: 3})

	s := h.status(t, "a")
	assert.True(t, s.Processing)
	assert.Equal(t, ptr(3), s.Queued)
	assert.Equal(t, ptr(3), s.Latest)
	h.idle(t)

	first.succeed(t)
	second := h.next(t)
	assert.Equal(t, "three", second.text, "intermediate revision is never classified")

	second.succeed(t)
	require.Eventually(t, func() bool {
		return !h.status(t, "a").Processing
	}, wait, time.Millisecond)

	h.idle(t)
	assert.Equal(t, int32(1), h.classifier.peak.Load())
	assert.Equal(t, ptr(3), h.status(t, "a").Version)
}

func TestStaleRevisionsDiscarded(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "five", Version: 5})
	h.next(t).succeed(t)
	require.Eventually(t, func() bool {
		return !h.status(t, "a").Processing
	}, wait, time.Millisecond)

	h.sys.Revise(documents.Revision{Key: "a", Text: "three", Version: 3})
	h.sys.Revise(documents.Revision{Key: "a", Text: "again", Version: 5})

	s := h.status(t, "a")
	assert.False(t, s.Processing)
	assert.Equal(t, ptr(5), s.Latest)
	h.idle(t)
}

func TestStaleWhileBusyDoesNotReplaceQueue(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	first := h.next(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "three", Version: 3})
	h.sys.Revise(documents.Revision{Key: "a", Text: "two", Version: 2})

	assert.Equal(t, ptr(3), h.status(t, "a").Queued)

	first.succeed(t)
	assert.Equal(t, "three", h.next(t).text)
}

func TestKeysAreIndependent(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "alpha", Version: 1})
	h.sys.Revise(documents.Revision{Key: "b", Text: "beta", Version: 1})

	texts := map[string]bool{h.next(t).text: true, h.next(t).text: true}
	assert.Equal(t, map[string]bool{"alpha": true, "beta": true}, texts)
}

func TestFetchImmediateWhenIdle(t *testing.T) {
	h := newHarness(t)

	text := "The cat\nsat on the mat."
	h.sys.Revise(documents.Revision{Key: "a", Text: text, Version: 1})
	h.next(t).succeed(t)
	require.Eventually(t, func() bool {
		return h.status(t, "a").Version != nil
	}, wait, time.Millisecond)

	toks, err := h.sys.FetchTokens(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, h.expected(t, text), toks)
}

func TestReplyBufferEvictsOldest(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	first := h.next(t)

	r1 := h.fetch(t, "a")
	r2 := h.fetch(t, "a")
	r3 := h.fetch(t, "a")

	evicted := receive(t, r1)
	assert.ErrorIs(t, evicted.err, documents.ErrNoResult)
	assert.Equal(t, 2, h.status(t, "a").Pending)

	first.succeed(t)

	newest := receive(t, r3)
	require.NoError(t, newest.err)
	assert.Equal(t, h.expected(t, "one"), newest.tokens)

	dropped := receive(t, r2)
	assert.ErrorIs(t, dropped.err, documents.ErrNoResult)
}

func TestFlushWithQueue(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "first text", Version: 1})
	first := h.next(t)

	older := h.fetch(t, "a")
	newer := h.fetch(t, "a")

	h.sys.Revise(documents.Revision{Key: "a", Text: "second text", Version: 2})
	assert.Equal(t, ptr(2), h.status(t, "a").Queued)

	first.succeed(t)

	got := receive(t, older)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "first text"), got.tokens)
	pendingResult(t, newer)

	second := h.next(t)
	assert.Equal(t, "second text", second.text)
	assert.Equal(t, 1, h.status(t, "a").Pending)

	second.succeed(t)
	got = receive(t, newer)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "second text"), got.tokens)
}

func TestFlushWithQueueSingleReaderWaits(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "first", Version: 1})
	first := h.next(t)

	reader := h.fetch(t, "a")
	h.sys.Revise(documents.Revision{Key: "a", Text: "second", Version: 2})

	first.succeed(t)
	second := h.next(t)
	pendingResult(t, reader)

	second.succeed(t)
	got := receive(t, reader)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "second"), got.tokens)
}

func TestFlushWithoutQueue(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "only text", Version: 1})
	first := h.next(t)

	older := h.fetch(t, "a")
	newer := h.fetch(t, "a")

	first.succeed(t)

	got := receive(t, newer)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "only text"), got.tokens)

	dropped := receive(t, older)
	assert.ErrorIs(t, dropped.err, documents.ErrNoResult)
	assert.Equal(t, 0, h.status(t, "a").Pending)
}

func TestForgetClosesPendingReaders(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	first := h.next(t)

	r1 := h.fetch(t, "a")
	r2 := h.fetch(t, "a")

	h.sys.Forget("a")

	assert.ErrorIs(t, receive(t, r1).err, documents.ErrNoResult)
	assert.ErrorIs(t, receive(t, r2).err, documents.ErrNoResult)

	_, err := h.sys.Status(context.Background(), "a")
	assert.ErrorIs(t, err, documents.ErrNotFound)

	h.sys.Revise(documents.Revision{Key: "a", Text: "fresh", Version: 1})
	fresh := h.next(t)
	reader := h.fetch(t, "a")

	first.succeed(t)
	pendingResult(t, reader)
	assert.True(t, h.status(t, "a").Processing, "late completion does not touch the new entry")

	fresh.succeed(t)
	got := receive(t, reader)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "fresh"), got.tokens)
}

func TestFailureDispatchesQueuedRevision(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	first := h.next(t)
	reader := h.fetch(t, "a")

	h.sys.Revise(documents.Revision{Key: "a", Text: "two", Version: 2})
	first.fail(errors.New("model offline"))

	second := h.next(t)
	assert.Equal(t, "two", second.text)
	pendingResult(t, reader)

	second.succeed(t)
	got := receive(t, reader)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "two"), got.tokens)
}

func TestFailureWithoutQueueRecovers(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	h.next(t).fail(errors.New("model offline"))

	require.Eventually(t, func() bool {
		return !h.status(t, "a").Processing
	}, wait, time.Millisecond)
	assert.Nil(t, h.status(t, "a").Version)

	h.sys.Revise(documents.Revision{Key: "a", Text: "two", Version: 2})
	assert.Equal(t, "two", h.next(t).text)
}

func TestUnknownKeyAnswersNothing(t *testing.T) {
	h := newHarness(t)

	for i := range 50 {
		_, err := h.sys.FetchTokens(context.Background(), fmt.Sprintf("bogus-%d", i))
		assert.ErrorIs(t, err, documents.ErrNoResult)
	}

	res, err := h.sys.List(context.Background(), pagination.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Total, "reads alone never create entries")

	_, err = h.sys.Status(context.Background(), "bogus-0")
	assert.ErrorIs(t, err, documents.ErrNotFound)
}

func TestForgottenKeyAnswersNothing(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	h.next(t).succeed(t)
	h.sys.Forget("a")

	_, err := h.sys.FetchTokens(context.Background(), "a")
	assert.ErrorIs(t, err, documents.ErrNoResult)
}

// abandon registers a reader on key and cancels it once it holds a slot.
func (h *harness) abandon(t *testing.T, key string) {
	t.Helper()
	before := h.status(t, key).Pending

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.sys.FetchTokens(ctx, key)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return h.status(t, key).Pending == before+1
	}, wait, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	require.Eventually(t, func() bool {
		return h.status(t, key).Pending == before
	}, wait, time.Millisecond, "abandoned reader gives up its slot")
}

func TestAbandonedReaderDoesNotDisplaceLiveReader(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "only text", Version: 1})
	first := h.next(t)

	live := h.fetch(t, "a")
	h.abandon(t, "a")
	assert.Equal(t, 1, h.status(t, "a").Pending)

	first.succeed(t)

	got := receive(t, live)
	require.NoError(t, got.err)
	assert.Equal(t, h.expected(t, "only text"), got.tokens)
}

func TestRemapLabelsAffectsEncoding(t *testing.T) {
	h := newHarness(t)

	text := "The cat\nsat on the mat."
	h.sys.Revise(documents.Revision{Key: "a", Text: text, Version: 1})
	h.next(t).succeed(t)
	require.Eventually(t, func() bool {
		return h.status(t, "a").Version != nil
	}, wait, time.Millisecond)

	before, err := h.sys.FetchTokens(context.Background(), "a")
	require.NoError(t, err)

	h.sys.RemapLabels(labels.Update{labels.NN: nil})
	after, err := h.sys.FetchTokens(context.Background(), "a")
	require.NoError(t, err)

	assert.Less(t, len(after), len(before))
	_, ok := h.labels.Get(labels.NN)
	assert.False(t, ok)

	h.sys.RemapLabels(labels.Update{labels.NN: &labels.Descriptor{Type: labels.TypeType}})
	restored, err := h.sys.FetchTokens(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, before, restored)
}

func TestShutdownClosesPendingReaders(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 1})
	h.next(t)
	reader := h.fetch(t, "a")

	require.NoError(t, h.lc.Shutdown(wait))

	assert.ErrorIs(t, receive(t, reader).err, documents.ErrNoResult)

	_, err := h.sys.FetchTokens(context.Background(), "a")
	assert.ErrorIs(t, err, documents.ErrStopped)
}

func TestStartTwice(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.sys.Start(h.lc), documents.ErrAlreadyStarted)
}

func TestList(t *testing.T) {
	h := newHarness(t)

	for _, key := range []string{"notes.txt", "draft.md", "notes-old.txt"} {
		h.sys.Revise(documents.Revision{Key: key, Text: key, Version: 1})
		h.next(t).succeed(t)
	}
	require.Eventually(t, func() bool {
		res, err := h.sys.List(context.Background(), pagination.PageRequest{Page: 1, PageSize: 10})
		if err != nil || res.Total != 3 {
			return false
		}
		for _, s := range res.Data {
			if s.Processing {
				return false
			}
		}
		return true
	}, wait, time.Millisecond)

	res, err := h.sys.List(context.Background(), pagination.PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, []string{"draft.md", "notes-old.txt"}, []string{res.Data[0].Key, res.Data[1].Key})

	search := "notes"
	res, err = h.sys.List(context.Background(), pagination.PageRequest{
		Page:     1,
		PageSize: 10,
		Search:   &search,
		Sort:     pagination.SortFields{{Field: "key", Descending: true}},
	})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "notes.txt", res.Data[0].Key)
}

func TestMetrics(t *testing.T) {
	h := newHarness(t)

	h.sys.Revise(documents.Revision{Key: "a", Text: "one", Version: 2})
	first := h.next(t)
	h.sys.Revise(documents.Revision{Key: "a", Text: "stale", Version: 1})
	h.sys.Revise(documents.Revision{Key: "a", Text: "three", Version: 3})
	h.sys.Revise(documents.Revision{Key: "a", Text: "four", Version: 4})
	h.status(t, "a")

	count := func(name, label string) float64 {
		families, err := h.registry.Gather()
		require.NoError(t, err)
		for _, f := range families {
			if f.GetName() != name {
				continue
			}
			for _, m := range f.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetValue() == label {
						return m.GetCounter().GetValue()
					}
				}
			}
		}
		return 0
	}

	assert.Equal(t, 1.0, count("speechmark_documents_revisions_total", "dispatched"))
	assert.Equal(t, 1.0, count("speechmark_documents_revisions_total", "stale"))
	assert.Equal(t, 1.0, count("speechmark_documents_revisions_total", "queued"))
	assert.Equal(t, 1.0, count("speechmark_documents_revisions_total", "replaced"))

	n, err := testutil.GatherAndCount(h.registry, "speechmark_documents_tracked")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	first.succeed(t)
	h.next(t).succeed(t)
}
