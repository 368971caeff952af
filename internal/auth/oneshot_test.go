package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneShot(t *testing.T) {
	t.Run("DeliversFirstValueOnly", func(t *testing.T) {
		o := NewOneShot[string]()

		assert.False(t, o.Sent())
		assert.True(t, o.Send("first"))
		assert.True(t, o.Sent())
		assert.False(t, o.Send("second"))

		v, err := o.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first", v)

		// Draining the value does not re-arm the hand-off
		assert.False(t, o.Send("third"))
	})

	t.Run("ConcurrentSendersNeverBlock", func(t *testing.T) {
		o := NewOneShot[int]()

		var wg sync.WaitGroup
		accepted := make(chan int, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if o.Send(i) {
					accepted <- i
				}
			}(i)
		}
		wg.Wait()
		close(accepted)

		var winners []int
		for i := range accepted {
			winners = append(winners, i)
		}
		require.Len(t, winners, 1)

		v, err := o.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, winners[0], v)
	})

	t.Run("ReceiveHonoursContext", func(t *testing.T) {
		o := NewOneShot[string]()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		v, err := o.Receive(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Empty(t, v)
	})
}
