package importjob

import (
	"context"
	"time"
)

// Store keeps job state for status polling.
type Store interface {
	Save(ctx context.Context, job *Job) error

	// Get returns ErrJobNotFound for unknown or expired jobs.
	Get(ctx context.Context, id string) (*Job, error)
}

// Lock serializes imports. Acquire returns ErrLocked when the key is held.
type Lock interface {
	Acquire(
		ctx context.Context,
		key string,
		ttl time.Duration,
	) (release func(ctx context.Context) error, err error)
}

// Archiver stores the uploaded source files.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
