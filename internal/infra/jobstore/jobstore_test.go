package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaokay/gestionale-energia/internal/domain/importer"
	"github.com/okaokay/gestionale-energia/internal/domain/importjob"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleJob(id string) *importjob.Job {
	return &importjob.Job{
		ID:         id,
		FileName:   "clienti.csv",
		RecordType: importer.RecordPrivateClient,
		Status:     importjob.StatusRunning,
		Processed:  10,
		Total:      40,
		Report:     &importer.Report{JobID: id, Created: 10},
		CreatedAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStores_SaveAndGet(t *testing.T) {
	_, client := newRedis(t)

	stores := map[string]importjob.Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  NewRedisStore(client, time.Hour),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, sampleJob("j1")))

			got, err := s.Get(ctx, "j1")
			require.NoError(t, err)
			assert.Equal(t, importjob.StatusRunning, got.Status)
			assert.Equal(t, 40, got.Total)
			require.NotNil(t, got.Report)
			assert.Equal(t, 10, got.Report.Created)
			assert.True(t, got.CreatedAt.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, importjob.ErrJobNotFound)
		})
	}
}

func TestMemoryStore_Expires(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(context.Background(), sampleJob("j1")))
	now = now.Add(2 * time.Minute)

	_, err := s.Get(context.Background(), "j1")
	assert.ErrorIs(t, err, importjob.ErrJobNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	mr, client := newRedis(t)
	s := NewRedisStore(client, time.Minute)

	require.NoError(t, s.Save(context.Background(), sampleJob("j1")))
	assert.Equal(t, time.Minute, mr.TTL(jobKeyPrefix+"j1"))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(context.Background(), "j1")
	assert.ErrorIs(t, err, importjob.ErrJobNotFound)
}

func TestLocks_SingleHolder(t *testing.T) {
	_, client := newRedis(t)

	locks := map[string]importjob.Lock{
		"memory": NewMemoryLock(),
		"redis":  NewRedisLock(client),
	}
	for name, l := range locks {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			release, err := l.Acquire(ctx, "import", time.Minute)
			require.NoError(t, err)

			_, err = l.Acquire(ctx, "import", time.Minute)
			assert.ErrorIs(t, err, importjob.ErrLocked)

			other, err := l.Acquire(ctx, "export", time.Minute)
			require.NoError(t, err)
			require.NoError(t, other(ctx))

			require.NoError(t, release(ctx))
			again, err := l.Acquire(ctx, "import", time.Minute)
			require.NoError(t, err)
			require.NoError(t, again(ctx))
		})
	}
}

func TestRedisLock_StaleReleaseKeepsNewHolder(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLock(client)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "import", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	_, err = l.Acquire(ctx, "import", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists(lockKeyPrefix+"import"))

	_, err = l.Acquire(ctx, "import", time.Minute)
	assert.ErrorIs(t, err, importjob.ErrLocked)
}

func TestMemoryLock_Expires(t *testing.T) {
	l := NewMemoryLock()
	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Acquire(context.Background(), "import", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = l.Acquire(context.Background(), "import", time.Second)
	require.NoError(t, err)
}
