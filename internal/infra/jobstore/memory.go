package jobstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/okaokay/gestionale-energia/internal/domain/importjob"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps jobs in process. Jobs are stored as JSON so callers
// never share the worker's copy.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	jobs map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		jobs: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

var _ importjob.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, job *importjob.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	var expires time.Time
	if s.ttl > 0 {
		expires = now.Add(s.ttl)
	}
	s.jobs[job.ID] = memoryEntry{data: data, expires: expires}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*importjob.Job, error) {
	s.mu.Lock()
	e, ok := s.jobs[id]
	s.mu.Unlock()

	if !ok || (!e.expires.IsZero() && s.now().After(e.expires)) {
		return nil, importjob.ErrJobNotFound
	}

	var job importjob.Job
	if err := json.Unmarshal(e.data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for id, e := range s.jobs {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(s.jobs, id)
		}
	}
}

// MemoryLock is a process local lock with the same contract as RedisLock.
type MemoryLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	now   func() time.Time
	token uint64
	owner map[string]uint64
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{
		held:  make(map[string]time.Time),
		owner: make(map[string]uint64),
		now:   time.Now,
	}
}

var _ importjob.Lock = (*MemoryLock)(nil)

func (l *MemoryLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && (until.IsZero() || now.Before(until)) {
		return nil, importjob.ErrLocked
	}

	var until time.Time
	if ttl > 0 {
		until = now.Add(ttl)
	}
	l.token++
	tok := l.token
	l.held[key] = until
	l.owner[key] = tok

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.owner[key] == tok {
			delete(l.held, key)
			delete(l.owner, key)
		}
		return nil
	}, nil
}
