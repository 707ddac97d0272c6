package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescerDeduplicatesConcurrentCalls(t *testing.T) {
	c := NewCoalescer()
	var calls int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := c.Do(context.Background(), "same-key", func(context.Context) (any, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return "computed", nil
			})
			require.NoError(t, err)
			results[i] = v
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "only one caller should execute fn")
	for _, r := range results {
		assert.Equal(t, "computed", r)
	}
}

func TestCoalescerPropagatesError(t *testing.T) {
	c := NewCoalescer()
	boom := errors.New("boom")

	_, err := c.Do(context.Background(), "k", func(context.Context) (any, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestCoalescerRunsFreshCallAfterPriorCompletes(t *testing.T) {
	c := NewCoalescer()
	var calls int32

	fn := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	_, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	_, err = c.Do(context.Background(), "k", fn)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}
