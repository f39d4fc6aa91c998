package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-service/internal/waitlist"
)

var ctx = context.Background()

func TestStore_CreateAndFind(t *testing.T) {
	s := New()
	rec := waitlist.Record{ID: "1", Email: "a@b.co", CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.FindByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = s.FindByEmail(ctx, "missing@b.co")
	assert.ErrorIs(t, err, waitlist.ErrNotFound)
}

func TestStore_ConcurrentCreateOnlyOneWins(t *testing.T) {
	s := New()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Create(ctx, waitlist.Record{ID: fmt.Sprint(i), Email: "same@b.co"})
			if err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, waitlist.ErrDuplicate)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Create(ctx, waitlist.Record{Email: "mid@x.io", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.Create(ctx, waitlist.Record{Email: "old@x.io", CreatedAt: base}))
	require.NoError(t, s.Create(ctx, waitlist.Record{Email: "new@x.io", CreatedAt: base.Add(2 * time.Hour)}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"new@x.io", "mid@x.io", "old@x.io"},
		[]string{got[0].Email, got[1].Email, got[2].Email})
}
