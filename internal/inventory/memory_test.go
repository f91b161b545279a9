package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/repository"
)

func TestMemoryLedger_ReserveBoundary(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	id := uuid.New()
	l.Track(id, 10, 9)

	// 9 of 10 sold: reserving 2 must fail, reserving 1 must land on 10.
	err := l.Reserve(ctx, id, 2)
	assert.ErrorIs(t, err, repository.ErrInsufficient)

	_, sold, _ := l.Counts(id)
	assert.Equal(t, 9, sold, "failed reservation must not move the counter")

	require.NoError(t, l.Reserve(ctx, id, 1))
	_, sold, _ = l.Counts(id)
	assert.Equal(t, 10, sold)

	err = l.Reserve(ctx, id, 1)
	assert.ErrorIs(t, err, repository.ErrInsufficient)
}

func TestMemoryLedger_UnknownTicket(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	id := uuid.New()

	assert.ErrorIs(t, l.Reserve(ctx, id, 1), repository.ErrNotFound)
	assert.ErrorIs(t, l.Release(ctx, id, 1), repository.ErrNotFound)

	_, err := l.CheckReduction(ctx, id, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryLedger_ReleaseFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	id := uuid.New()
	l.Track(id, 10, 2)

	require.NoError(t, l.Release(ctx, id, 5))

	_, sold, _ := l.Counts(id)
	assert.Equal(t, 0, sold)
}

func TestMemoryLedger_CheckReduction(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	id := uuid.New()
	l.Track(id, 10, 3)

	ok, err := l.CheckReduction(ctx, id, 3)
	require.NoError(t, err)
	assert.True(t, ok, "shrinking to exactly the sold count is allowed")

	ok, err = l.CheckReduction(ctx, id, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLedger_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	id := uuid.New()
	l.Track(id, 50, 0)

	const workers = 100

	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Reserve(ctx, id, 1); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	var won int
	for range successes {
		won++
	}

	assert.Equal(t, 50, won, "exactly capacity many reservations may win")
	_, sold, _ := l.Counts(id)
	assert.Equal(t, 50, sold, "counter never oversells")
}
