package media

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-library/internal/database"
)

func TestWarmer_GeneratesThenSkipsFresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addPicture(t, "Trip/a.png", 200, 100)
	env.addPicture(t, "Trip/b.png", 40, 40)
	env.addPicture(t, "Home/c.jpg", 80, 60)

	warmer := NewWarmer(env.db, env.cache, 2)

	result, err := warmer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Galleries)
	assert.Equal(t, 3, result.Pictures)
	assert.Equal(t, 3, result.Generated)
	assert.Zero(t, result.Failed)

	result, err = warmer.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	assert.Equal(t, 3, result.Fresh)
}

func TestWarmer_IsolatesFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	good := env.addPicture(t, "Trip/good.png", 20, 20)
	broken := env.addPicture(t, "Trip/broken.png", 20, 20)
	require.NoError(t, os.WriteFile(broken.Path, []byte("garbage"), 0o644))

	result, err := NewWarmer(env.db, env.cache, 4).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Failed)

	row, err := env.db.ThumbnailByPicture(ctx, good.ID)
	require.NoError(t, err)
	assert.NotNil(t, row)
}

func TestWarmer_RecoversPanics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	boom := env.addPicture(t, "Trip/boom.png", 10, 10)
	env.addPicture(t, "Trip/ok.png", 10, 10)

	var calls atomic.Int64
	warmer := NewWarmer(env.db, env.cache, 1)
	warmer.generate = func(ctx context.Context, pic *database.Picture) (bool, error) {
		calls.Add(1)
		if pic.ID == boom.ID {
			panic("decoder exploded")
		}
		return true, nil
	}

	result, err := warmer.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 1, result.Panicked)
	assert.Equal(t, 1, result.Generated)
}

func TestWarmer_StopsWhenCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.addPicture(t, "Trip/a.png", 10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewWarmer(env.db, env.cache, 1).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, result.Generated)
}

type closedGate struct{ calls atomic.Int64 }

func (g *closedGate) WaitIfPaused() bool {
	g.calls.Add(1)
	return false
}

func TestWarmer_GateSkipsTasks(t *testing.T) {
	env := newTestEnv(t)
	env.addPicture(t, "Trip/a.png", 200, 100)
	env.addPicture(t, "Trip/b.png", 40, 40)

	gate := &closedGate{}
	warmer := NewWarmer(env.db, env.cache, 1)
	warmer.SetGate(gate)

	result, err := warmer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pictures)
	assert.Zero(t, result.Generated)
	assert.Zero(t, result.Fresh)
	assert.Equal(t, int64(2), gate.calls.Load())

	entries, err := os.ReadDir(env.cache.Dir())
	if err == nil {
		assert.Empty(t, entries)
	}
}
