package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	assert.False(t, lc.Ready(), "ready before startup")

	lc.WaitForStartup()
	assert.True(t, lc.Ready())

	var labelsLoaded atomic.Bool
	lc.AddReadiness("labels", lifecycle.ReadyFunc(labelsLoaded.Load))
	lc.AddReadiness("documents", lifecycle.ReadyFunc(func() bool { return true }))

	assert.False(t, lc.Ready())
	assert.Equal(t, []string{"labels"}, lc.NotReady())

	labelsLoaded.Store(true)
	assert.True(t, lc.Ready())
	assert.Empty(t, lc.NotReady())

	require.NoError(t, lc.Shutdown(time.Second))
	assert.False(t, lc.Ready(), "ready after shutdown")
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() { count.Add(1) })
	}
	lc.WaitForStartup()

	assert.Equal(t, int32(3), count.Load())
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})
	lc.WaitForStartup()

	require.NoError(t, lc.Shutdown(5*time.Second))
	assert.True(t, cleaned.Load())
	assert.Error(t, lc.Context().Err())

	require.NoError(t, lc.Shutdown(time.Second), "second shutdown")
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	defer close(release)
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-release
	})
	lc.WaitForStartup()

	assert.Error(t, lc.Shutdown(50*time.Millisecond))
}
