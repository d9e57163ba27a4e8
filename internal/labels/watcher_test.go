package labels_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/internal/labels"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	updates := make(chan labels.Update, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := labels.NewWatcher(path, 20*time.Millisecond, func(u labels.Update) {
		updates <- u
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, os.WriteFile(path, []byte(`{"NN":null}`), 0o644))

	select {
	case u := <-updates:
		d, present := u[labels.NN]
		assert.True(t, present)
		assert.Nil(t, d)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	updates := make(chan labels.Update, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := labels.NewWatcher(path, 10*time.Millisecond, func(u labels.Update) {
		updates <- u
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"NN":null}`), 0o644))

	select {
	case <-updates:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
