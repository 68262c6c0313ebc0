package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "test:"), srv
}

type cachedQuiz struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	stored := cachedQuiz{ID: 7, Title: "Photosynthesis"}
	require.NoError(t, helper.Set(ctx, "quiz:7", stored, time.Minute))

	var loaded cachedQuiz
	require.NoError(t, helper.Get(ctx, "quiz:7", &loaded))
	assert.Equal(t, stored, loaded)
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestCache(t)

	var loaded cachedQuiz
	err := helper.Get(context.Background(), "missing", &loaded)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	// Without Redis every operation is a no-op, never an outage.
	assert.NoError(t, helper.Set(ctx, "k", "v", time.Minute))

	var loaded string
	assert.ErrorIs(t, helper.Get(ctx, "k", &loaded), ErrCacheNotAvailable)
	assert.NoError(t, helper.Delete(ctx, "k"))
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, helper.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, helper.Delete(ctx, "a", "b"))

	var loaded int
	assert.ErrorIs(t, helper.Get(ctx, "a", &loaded), ErrCacheNotFound)
	assert.ErrorIs(t, helper.Get(ctx, "b", &loaded), ErrCacheNotFound)
}

func TestCacheHelper_Expiry(t *testing.T) {
	helper, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "short", "lived", time.Second))
	srv.FastForward(2 * time.Second)

	var loaded string
	assert.ErrorIs(t, helper.Get(ctx, "short", &loaded), ErrCacheNotFound)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedQuiz{ID: 1, Title: "Fractions"}, nil
	}

	var first cachedQuiz
	require.NoError(t, helper.CacheOrExecute(ctx, "quiz:1", &first, time.Minute, fetch))
	assert.Equal(t, "Fractions", first.Title)
	assert.Equal(t, 1, calls)

	// The write-behind set is asynchronous; wait for the key to land.
	require.Eventually(t, func() bool {
		var probe cachedQuiz
		return helper.Get(ctx, "quiz:1", &probe) == nil
	}, time.Second, 10*time.Millisecond)

	var second cachedQuiz
	require.NoError(t, helper.CacheOrExecute(ctx, "quiz:1", &second, time.Minute, fetch))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read must come from cache")
}

func TestInvalidateQuizCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Quiz.Set(ctx, "id:3", cachedQuiz{ID: 3}, time.Minute))
	require.NoError(t, cm.Quiz.Set(ctx, "creator:teacher-1:list", []uint{3}, time.Minute))
	require.NoError(t, cm.Stats.Set(ctx, "quiz:3:histogram", []int{1, 2}, time.Minute))
	require.NoError(t, cm.Quiz.Set(ctx, "id:4", cachedQuiz{ID: 4}, time.Minute))

	InvalidateQuizCache(ctx, cm, 3, "teacher-1")

	var probe cachedQuiz
	assert.ErrorIs(t, cm.Quiz.Get(ctx, "id:3", &probe), ErrCacheNotFound)

	var list []uint
	assert.ErrorIs(t, cm.Quiz.Get(ctx, "creator:teacher-1:list", &list), ErrCacheNotFound)

	var hist []int
	assert.ErrorIs(t, cm.Stats.Get(ctx, "quiz:3:histogram", &hist), ErrCacheNotFound)

	// Unrelated quizzes stay cached.
	assert.NoError(t, cm.Quiz.Get(ctx, "id:4", &probe))
}

func TestCacheManager_ClearAll(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Quiz.Set(ctx, "id:1", cachedQuiz{ID: 1}, time.Minute))
	require.NoError(t, cm.Stats.Set(ctx, "portal_overview", []int{1}, time.Minute))

	require.NoError(t, cm.ClearAll(ctx))

	var got cachedQuiz
	assert.ErrorIs(t, cm.Quiz.Get(ctx, "id:1", &got), ErrCacheNotFound)
	var stats []int
	assert.ErrorIs(t, cm.Stats.Get(ctx, "portal_overview", &stats), ErrCacheNotFound)
}
