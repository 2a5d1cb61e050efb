package app

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_StopWaitsForTasks(t *testing.T) {
	var finished atomic.Int32
	started := make(chan struct{}, 2)

	task := func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		finished.Add(1)
	}

	s := NewScheduler(zaptest.NewLogger(t),
		Task{Name: "first", Run: task},
		Task{Name: "second", Run: task},
	)
	s.Start(context.Background())
	<-started
	<-started

	s.Stop()
	assert.Equal(t, int32(2), finished.Load())
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler(zaptest.NewLogger(t))
	assert.NotPanics(t, s.Stop)
}
